package service

import (
	"context"
	"errors"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/repository"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

const entityRegistration = "EntityRegistration"

// RegistrationService manages city registrations.
type RegistrationService struct {
	registrations repository.RegistrationRepository
}

// NewRegistrationService constructs the service.
func NewRegistrationService(registrations repository.RegistrationRepository) *RegistrationService {
	return &RegistrationService{registrations: registrations}
}

func (s *RegistrationService) List(ctx context.Context) ([]domain.Registration, error) {
	regs, err := s.registrations.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return regs, nil
}

func (s *RegistrationService) Get(ctx context.Context, id int64) (*domain.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, lookupRegistrationError(err)
	}
	return reg, nil
}

// Create stores reg under its caller-chosen id. An existing id is a conflict and
// leaves the stored row untouched.
func (s *RegistrationService) Create(ctx context.Context, reg domain.Registration) (*domain.Registration, error) {
	exists, err := s.exists(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("RegistrationExists", nil)
	}

	if err := s.registrations.Create(ctx, &reg); err != nil {
		if exists, _ := s.exists(ctx, reg.ID); exists {
			return nil, apperrors.NewConflict("RegistrationExists", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return &reg, nil
}

// Update applies the allow-listed fields of input and returns the fresh row.
func (s *RegistrationService) Update(ctx context.Context, id int64, input map[string]any) (*domain.Registration, error) {
	if _, err := s.registrations.GetByID(ctx, id); err != nil {
		return nil, lookupRegistrationError(err)
	}

	updates, err := domain.FilterPatch(domain.RegistrationColumns, input)
	if err != nil {
		return nil, inputError(err)
	}
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("NoValidFields", nil)
	}

	if err := s.registrations.Update(ctx, id, updates); err != nil {
		return nil, lookupRegistrationError(err)
	}
	return s.Get(ctx, id)
}

func (s *RegistrationService) Delete(ctx context.Context, id int64) error {
	if err := s.registrations.Delete(ctx, id); err != nil {
		return lookupRegistrationError(err)
	}
	return nil
}

func (s *RegistrationService) exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.registrations.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	}
	return false, apperrors.MapError(err)
}

func lookupRegistrationError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(apperrors.MsgNotFound, entity(entityRegistration))
	}
	return apperrors.MapError(err)
}
