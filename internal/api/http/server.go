package http

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/config"
	"github.com/complexorj/staff-dashboard/internal/observability"
)

// NewApp returns a Fiber app using go-json and the shared error renderer.
func NewApp(cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               cfg.Name,
		BodyLimit:             cfg.BodyLimit(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler(logger, metrics),
		DisableStartupMessage: true,
	})
}
