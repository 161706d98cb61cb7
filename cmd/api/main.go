package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/complexorj/staff-dashboard/internal/api/http"
	"github.com/complexorj/staff-dashboard/internal/api/http/handlers"
	"github.com/complexorj/staff-dashboard/internal/auth"
	"github.com/complexorj/staff-dashboard/internal/cache"
	"github.com/complexorj/staff-dashboard/internal/config"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/locale"
	"github.com/complexorj/staff-dashboard/internal/observability"
	"github.com/complexorj/staff-dashboard/internal/persistence"
	"github.com/complexorj/staff-dashboard/internal/repository"
	"github.com/complexorj/staff-dashboard/internal/service"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed default goals, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	}

	rootCmd = &cobra.Command{
		Use:          "staff-dashboard",
		Short:        "Staff management dashboard API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func migrate(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		log.Print(err)
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		return err
	}
	defer db.Close()

	if err := persistence.Prepare(ctx, db, logger); err != nil {
		logger.Error("failed to prepare database", zap.Error(err))
		return err
	}
	logger.Info("database ready", zap.String("driver", db.Dialect().String()))
	return nil
}

func serve(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		log.Print(err)
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		return err
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := persistence.Prepare(ctx, db, logger); err != nil {
			logger.Error("failed to prepare database", zap.Error(err))
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	translator, err := locale.New(cfg.App.DefaultLanguage)
	if err != nil {
		logger.Error("failed to load message catalogs", zap.Error(err))
		return err
	}
	metrics := observability.NewMetrics()

	rosterRepo := repository.NewRosterRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	userRepo := repository.NewUserRepository(db)

	goalService := service.NewGoalService(service.GoalDependencies{
		Tx:       db,
		GoalRepo: goalRepo,
		Cache:    cache.NewGoalCache(redis, cfg.Redis.GoalsTTL(), logger),
	})
	rosterService := service.NewRosterService(rosterRepo)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Logger:   logger,
	})
	backupService := service.NewBackupService(service.BackupDependencies{
		Tx:               db,
		RosterRepo:       rosterRepo,
		RegistrationRepo: registrationRepo,
		GoalRepo:         goalRepo,
		GoalService:      goalService,
		Logger:           logger,
	})

	rosters := make([]*handlers.RosterHandler, 0, len(domain.Tiers()))
	for _, tier := range domain.Tiers() {
		rosters = append(rosters, handlers.NewRosterHandler(tier, rosterService))
	}

	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Translator:  translator,
		AllowOrigin: cfg.App.CORSAllowOrigins,
		Timeout:     cfg.App.RequestTimeout(),
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, db, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Rosters:        rosters,
		Registrations:  handlers.NewRegistrationHandler(service.NewRegistrationService(registrationRepo)),
		Goals:          handlers.NewGoalHandler(goalService),
		Backup:         handlers.NewBackupHandler(backupService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
		LoginLimiter:   auth.NewLoginLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst),
		Metrics:        metrics,
		PublicDir:      cfg.App.PublicDir,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server",
			zap.String("addr", cfg.App.Addr()),
			zap.String("env", cfg.App.Env),
			zap.String("db_driver", db.Dialect().String()),
		)
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
		return nil
	case sig := <-waitForShutdown():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
	return nil
}

func waitForShutdown() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
