package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/auth"
	"github.com/complexorj/staff-dashboard/internal/config"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/repository"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

// AuthService coordinates login and operator registration.
type AuthService struct {
	users         repository.UserRepository
	tokenMgr      *auth.TokenManager
	adminPassword string
	bcryptCost    int
	logger        *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Auth.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set; shared password login disabled")
	}
	if cfg.Auth.SecretAutoGenerated() {
		logger.Warn("JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}
	return &AuthService{
		users:         deps.UserRepo,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		adminPassword: cfg.Auth.AdminPassword,
		bcryptCost:    cfg.Auth.BcryptCost,
		logger:        logger,
	}
}

// Login accepts the shared admin password or the stored credential of the
// "admin" user.
func (s *AuthService) Login(ctx context.Context, password string) (*domain.Session, error) {
	if password == "" {
		return nil, apperrors.NewValidationError("PasswordRequired", nil)
	}

	if auth.SharedPasswordMatches(s.adminPassword, password) {
		return s.issue(domain.DefaultUsername, nil)
	}

	user, err := s.users.GetByUsername(ctx, domain.DefaultUsername)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("WrongPassword")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("WrongPassword")
	}
	return s.issue(user.Username, &user.ID)
}

func (s *AuthService) issue(username string, userID *int64) (*domain.Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(username, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.Session{Token: token, ExpiresAt: exp, Username: username, UserID: userID}, nil
}

// Register creates a users-table credential.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("CredentialsRequired", nil)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("UserExists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if _, lookupErr := s.users.GetByUsername(ctx, username); lookupErr == nil {
			return nil, apperrors.NewConflict("UserExists", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user registered", zap.String("username", username), zap.Int64("user_id", user.ID))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
