package http

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/complexorj/staff-dashboard/internal/api/http/handlers"
	"github.com/complexorj/staff-dashboard/internal/auth"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/observability"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Rosters        []*handlers.RosterHandler
	Registrations  *handlers.RegistrationHandler
	Goals          *handlers.GoalHandler
	Backup         *handlers.BackupHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *auth.LoginLimiter
	Metrics        *observability.Metrics
	PublicDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	admin := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin)}

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.LoginLimiter.Handle, cfg.Auth.Login)
	authGroup.Get("/verify", cfg.AuthMiddleware.Handle, cfg.Auth.Verify)
	authGroup.Post("/register", append(admin, cfg.Auth.Register)...)

	for _, h := range cfg.Rosters {
		tier := h.Tier()
		registerRoster(api, "/"+tier.Key, h, admin)
		if tier.Alias != "" && tier.Alias != tier.Key {
			registerRoster(api, "/"+tier.Alias, h, admin)
		}
	}

	regs := api.Group("/cadastros")
	regs.Get("/", cfg.Registrations.List)
	regs.Get("/:id", cfg.Registrations.Get)
	regs.Post("/", append(admin, cfg.Registrations.Create)...)
	regs.Patch("/:id", append(admin, cfg.Registrations.Update)...)
	regs.Delete("/:id", append(admin, cfg.Registrations.Delete)...)

	goals := api.Group("/metas")
	goals.Get("/", cfg.Goals.Matrix)
	goals.Get("/:cargo", cfg.Goals.ForRole)
	goals.Post("/", append(admin, cfg.Goals.Save)...)
	goals.Put("/", append(admin, cfg.Goals.Replace)...)
	goals.Patch("/:cargo/:metrica", append(admin, cfg.Goals.Update)...)
	goals.Delete("/:cargo/:metrica", append(admin, cfg.Goals.Delete)...)

	api.Get("/export", cfg.Backup.Export)
	api.Post("/import", append(admin, cfg.Backup.Import)...)
	api.Post("/export/import", append(admin, cfg.Backup.Import)...)

	api.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound(apperrors.MsgRouteNotFound, nil)
	})

	registerStatic(app, cfg.PublicDir)
}

func registerRoster(api fiber.Router, prefix string, h *handlers.RosterHandler, admin []fiber.Handler) {
	g := api.Group(prefix)
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Post("/", append(admin, h.Create)...)
	g.Patch("/:id", append(admin, h.Update)...)
	g.Delete("/:id", append(admin, h.Delete)...)
}

// registerStatic serves the dashboard bundle and falls back to index.html so
// client-side routes survive a reload.
func registerStatic(app *fiber.App, dir string) {
	if dir == "" {
		return
	}
	app.Static("/", dir)
	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		if isAPIPath(c.Path()) {
			return apperrors.NewNotFound(apperrors.MsgRouteNotFound, nil)
		}
		return c.SendFile(index)
	})
}
