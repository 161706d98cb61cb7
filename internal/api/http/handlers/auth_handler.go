package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/complexorj/staff-dashboard/internal/api/dto"
	"github.com/complexorj/staff-dashboard/internal/auth"
	"github.com/complexorj/staff-dashboard/internal/service"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

// AuthHandler exposes login, token verification and user registration.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Message:   msg(c, "Authenticated", nil),
	})
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("TokenRequired")
	}
	return c.JSON(dto.VerifyResponse{Valid: true, User: claims})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if err := validateStruct(&req, "CredentialsRequired"); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		Success: true,
		UserID:  user.ID,
		Message: msg(c, "UserCreated", nil),
	})
}
