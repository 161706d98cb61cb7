package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PublicDir             string
	CORSAllowOrigins      string
	DefaultLanguage       string
	BodyLimitMB           int
	RequestTimeoutSeconds int
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver        string
	Path          string
	DSN           string
	MaxOpenConns  int
	BusyTimeoutMS int
	RunMigrations bool
}

// RedisConfig holds Redis connection values. An empty Addr disables the goal cache.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	GoalsTTLSecond int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret           string
	AdminPassword       string
	TokenTTLMinutes     int
	BcryptCost          int
	LoginRatePerMinute  int
	LoginBurst          int
	secretAutoGenerated bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "staff-dashboard"),
			Env:                   strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			PublicDir:             getEnv("PUBLIC_DIR", "./public"),
			CORSAllowOrigins:      getEnv("CORS_ALLOW_ORIGINS", "*"),
			DefaultLanguage:       getEnv("DEFAULT_LANGUAGE", "pt-BR"),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 10),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:          getEnv("DB_PATH", "./database/dashboard.db"),
			DSN:           os.Getenv("DB_DSN"),
			MaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 4),
			BusyTimeoutMS: getEnvAsInt("DB_BUSY_TIMEOUT_MS", 5000),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Addr:           os.Getenv("REDIS_ADDR"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			GoalsTTLSecond: getEnvAsInt("REDIS_GOALS_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 7),
		},
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET"),
			AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
			TokenTTLMinutes:    getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 10),
			LoginRatePerMinute: getEnvAsInt("AUTH_LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:         getEnvAsInt("AUTH_LOGIN_BURST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with. In production a signing
// secret must be configured; elsewhere a random one is generated per process.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set when APP_ENV=production")
		}
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generate jwt secret: %w", err)
		}
		c.Auth.JWTSecret = secret
		c.Auth.secretAutoGenerated = true
	}
	return nil
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// SecretAutoGenerated reports whether JWT_SECRET was missing and replaced by a random value.
func (a AuthConfig) SecretAutoGenerated() bool {
	return a.secretAutoGenerated
}

// TokenTTL returns the configured token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// BodyLimit returns the maximum accepted request body in bytes.
func (a AppConfig) BodyLimit() int {
	if a.BodyLimitMB <= 0 {
		return 10 * 1024 * 1024
	}
	return a.BodyLimitMB * 1024 * 1024
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// GoalsTTL returns how long the cached goal matrix stays valid.
func (r RedisConfig) GoalsTTL() time.Duration {
	if r.GoalsTTLSecond <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.GoalsTTLSecond) * time.Second
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
