package dto

import (
	"time"

	"github.com/complexorj/staff-dashboard/internal/auth"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Password string `json:"password"`
}

// RegisterRequest payload for new dashboard users.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Message   string    `json:"message"`
}

// RegisterResponse is returned once a user is created.
type RegisterResponse struct {
	Success bool   `json:"success"`
	UserID  int64  `json:"userId"`
	Message string `json:"message"`
}

// VerifyResponse echoes the verified claims.
type VerifyResponse struct {
	Valid bool         `json:"valid"`
	User  *auth.Claims `json:"user"`
}
