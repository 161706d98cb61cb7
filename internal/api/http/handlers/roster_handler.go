package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/complexorj/staff-dashboard/internal/api/dto"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/service"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

// RosterHandler serves the CRUD routes of one staff tier.
type RosterHandler struct {
	tier   domain.Tier
	roster *service.RosterService
}

// NewRosterHandler binds the handler to tier.
func NewRosterHandler(tier domain.Tier, roster *service.RosterService) *RosterHandler {
	return &RosterHandler{tier: tier, roster: roster}
}

// Tier returns the tier served by the handler.
func (h *RosterHandler) Tier() domain.Tier {
	return h.tier
}

func (h *RosterHandler) notFound() error {
	return apperrors.NewNotFound(apperrors.MsgNotFound, entityData(h.tier.EntityMessage))
}

// List handles GET /api/{tier}.
func (h *RosterHandler) List(c *fiber.Ctx) error {
	records, err := h.roster.List(c.UserContext(), h.tier)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// Get handles GET /api/{tier}/:id.
func (h *RosterHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, h.notFound())
	if err != nil {
		return err
	}
	rec, err := h.roster.Get(c.UserContext(), h.tier, id)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// Create handles POST /api/{tier}.
func (h *RosterHandler) Create(c *fiber.Ctx) error {
	input, err := decodeObject(c)
	if err != nil {
		return err
	}
	rec, err := h.roster.Create(c.UserContext(), h.tier, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.CreatedResponse{
		Success: true,
		ID:      rec.ID,
		Message: msg(c, "RecordCreated", entityData(h.tier.EntityMessage)),
	})
}

// Update handles PATCH /api/{tier}/:id.
func (h *RosterHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, h.notFound())
	if err != nil {
		return err
	}
	input, err := decodeObject(c)
	if err != nil {
		return err
	}
	rec, err := h.roster.Update(c.UserContext(), h.tier, id, input)
	if err != nil {
		return err
	}
	return c.JSON(dto.UpdatedResponse{
		Success: true,
		Data:    rec,
		Message: msg(c, "RecordUpdated", entityData(h.tier.EntityMessage)),
	})
}

// Delete handles DELETE /api/{tier}/:id.
func (h *RosterHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, h.notFound())
	if err != nil {
		return err
	}
	if err := h.roster.Delete(c.UserContext(), h.tier, id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{
		Success: true,
		Message: msg(c, "RecordDeleted", entityData(h.tier.EntityMessage)),
	})
}
