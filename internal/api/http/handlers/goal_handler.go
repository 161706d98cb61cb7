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

// GoalHandler exposes the metas routes.
type GoalHandler struct {
	goals *service.GoalService
}

// NewGoalHandler constructs handler.
func NewGoalHandler(goals *service.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// Matrix handles GET /api/metas.
func (h *GoalHandler) Matrix(c *fiber.Ctx) error {
	m, err := h.goals.Matrix(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(m)
}

// ForRole handles GET /api/metas/:cargo.
func (h *GoalHandler) ForRole(c *fiber.Ctx) error {
	metrics, err := h.goals.ForRole(c.UserContext(), pathParam(c, "cargo"))
	if err != nil {
		return err
	}
	return c.JSON(metrics)
}

// Save handles POST /api/metas.
func (h *GoalHandler) Save(c *fiber.Ctx) error {
	var req dto.GoalRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	req.Cargo = strings.TrimSpace(req.Cargo)
	req.Metrica = strings.TrimSpace(req.Metrica)
	if err := validateStruct(&req, "GoalKeyRequired"); err != nil {
		return err
	}
	promotion, bonus, err := parseThresholds(req.Promocao, req.Premiacao)
	if err != nil {
		return err
	}

	goal := domain.Goal{Role: req.Cargo, Metric: req.Metrica}
	if promotion != nil {
		goal.Promotion = *promotion
	}
	if bonus != nil {
		goal.Bonus = *bonus
	}
	if err := h.goals.Save(c.UserContext(), goal); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Success: true, Message: msg(c, "GoalSaved", nil)})
}

// Update handles PATCH /api/metas/:cargo/:metrica.
func (h *GoalHandler) Update(c *fiber.Ctx) error {
	var req dto.GoalPatchRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	promotion, bonus, err := parseThresholds(req.Promocao, req.Premiacao)
	if err != nil {
		return err
	}
	if err := h.goals.UpdateThresholds(c.UserContext(), pathParam(c, "cargo"), pathParam(c, "metrica"), promotion, bonus); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: msg(c, "GoalUpdated", nil)})
}

// Replace handles PUT /api/metas.
func (h *GoalHandler) Replace(c *fiber.Ctx) error {
	var raw any
	if err := decodeBody(c, &raw); err != nil {
		return apperrors.NewValidationError("InvalidGoalsFormat", nil)
	}
	m, err := domain.ParseGoalMatrix(raw)
	if err != nil {
		return apperrors.NewDomainError("VALIDATION_FAILED", "InvalidGoalsFormat", http.StatusBadRequest, nil).
			WithDetails(map[string]any{"reason": err.Error()})
	}
	if err := h.goals.ReplaceMatrix(c.UserContext(), m); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: msg(c, "GoalsUpdated", nil)})
}

// Delete handles DELETE /api/metas/:cargo/:metrica.
func (h *GoalHandler) Delete(c *fiber.Ctx) error {
	if err := h.goals.Delete(c.UserContext(), pathParam(c, "cargo"), pathParam(c, "metrica")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: msg(c, "GoalDeleted", nil)})
}

func parseThresholds(promocao, premiacao any) (*int64, *int64, error) {
	promotion, err := domain.ParseThreshold("promocao", promocao)
	if err != nil {
		return nil, nil, apperrors.NewValidationError("InvalidFieldValue", map[string]any{"Field": "promocao"})
	}
	bonus, err := domain.ParseThreshold("premiacao", premiacao)
	if err != nil {
		return nil, nil, apperrors.NewValidationError("InvalidFieldValue", map[string]any{"Field": "premiacao"})
	}
	return promotion, bonus, nil
}
