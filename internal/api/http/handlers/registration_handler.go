package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/complexorj/staff-dashboard/internal/api/dto"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/service"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

const entityRegistration = "EntityRegistration"

// RegistrationHandler exposes the cadastros routes.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs handler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

func registrationNotFound() error {
	return apperrors.NewNotFound(apperrors.MsgNotFound, entityData(entityRegistration))
}

// List handles GET /api/cadastros.
func (h *RegistrationHandler) List(c *fiber.Ctx) error {
	regs, err := h.registrations.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(regs)
}

// Get handles GET /api/cadastros/:id.
func (h *RegistrationHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, registrationNotFound())
	if err != nil {
		return err
	}
	reg, err := h.registrations.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(reg)
}

// Create handles POST /api/cadastros.
func (h *RegistrationHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRegistrationRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	req.Nome = strings.TrimSpace(req.Nome)
	req.Cargo = strings.TrimSpace(req.Cargo)
	if err := validateStruct(&req, "RegistrationFieldsRequired"); err != nil {
		return err
	}
	id, err := req.ID.Int64()
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("InvalidFieldValue", map[string]any{"Field": "id"})
	}

	reg, err := h.registrations.Create(c.UserContext(), domain.Registration{
		ID:   id,
		Name: req.Nome,
		City: *req.Cidade,
		Role: req.Cargo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.CreatedResponse{
		Success: true,
		ID:      reg.ID,
		Message: msg(c, "RecordCreated", entityData(entityRegistration)),
	})
}

// Update handles PATCH /api/cadastros/:id.
func (h *RegistrationHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, registrationNotFound())
	if err != nil {
		return err
	}
	input, err := decodeObject(c)
	if err != nil {
		return err
	}
	reg, err := h.registrations.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(dto.UpdatedResponse{
		Success: true,
		Data:    reg,
		Message: msg(c, "RecordUpdated", entityData(entityRegistration)),
	})
}

// Delete handles DELETE /api/cadastros/:id.
func (h *RegistrationHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, registrationNotFound())
	if err != nil {
		return err
	}
	if err := h.registrations.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{
		Success: true,
		Message: msg(c, "RecordDeleted", entityData(entityRegistration)),
	})
}
