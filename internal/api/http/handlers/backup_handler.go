package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complexorj/staff-dashboard/internal/api/dto"
	"github.com/complexorj/staff-dashboard/internal/service"
)

// BackupHandler exposes the export and import routes.
type BackupHandler struct {
	backup *service.BackupService
}

// NewBackupHandler constructs handler.
func NewBackupHandler(backup *service.BackupService) *BackupHandler {
	return &BackupHandler{backup: backup}
}

// Export handles GET /api/export.
func (h *BackupHandler) Export(c *fiber.Ctx) error {
	doc, err := h.backup.Export(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// Import handles POST /api/import.
func (h *BackupHandler) Import(c *fiber.Ctx) error {
	if err := h.backup.Import(c.UserContext(), c.Body()); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: msg(c, "ImportDone", nil)})
}
