package service

import (
	"context"
	"errors"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/repository"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

// RosterService manages staff records of every tier.
type RosterService struct {
	roster repository.RosterRepository
}

// NewRosterService constructs the service.
func NewRosterService(roster repository.RosterRepository) *RosterService {
	return &RosterService{roster: roster}
}

// List returns every record of the tier ordered by name.
func (s *RosterService) List(ctx context.Context, tier domain.Tier) ([]domain.StaffRecord, error) {
	records, err := s.roster.List(ctx, tier)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

func (s *RosterService) Get(ctx context.Context, tier domain.Tier, id int64) (*domain.StaffRecord, error) {
	rec, err := s.roster.GetByID(ctx, tier, id)
	if err != nil {
		return nil, s.lookupError(tier, err)
	}
	return rec, nil
}

// Create validates input, fills defaults and stores the record.
func (s *RosterService) Create(ctx context.Context, tier domain.Tier, input map[string]any) (*domain.StaffRecord, error) {
	rec, err := tier.NewRecord(input)
	if err != nil {
		return nil, inputError(err)
	}
	if err := s.roster.Create(ctx, tier, &rec); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &rec, nil
}

// Update applies the allow-listed fields of input and returns the fresh row.
func (s *RosterService) Update(ctx context.Context, tier domain.Tier, id int64, input map[string]any) (*domain.StaffRecord, error) {
	if _, err := s.roster.GetByID(ctx, tier, id); err != nil {
		return nil, s.lookupError(tier, err)
	}

	updates, err := domain.FilterPatch(tier.Columns(), input)
	if err != nil {
		return nil, inputError(err)
	}
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("NoValidFields", nil)
	}

	if err := s.roster.Update(ctx, tier, id, updates); err != nil {
		return nil, s.lookupError(tier, err)
	}
	return s.Get(ctx, tier, id)
}

func (s *RosterService) Delete(ctx context.Context, tier domain.Tier, id int64) error {
	if err := s.roster.Delete(ctx, tier, id); err != nil {
		return s.lookupError(tier, err)
	}
	return nil
}

func (s *RosterService) lookupError(tier domain.Tier, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(apperrors.MsgNotFound, entity(tier.EntityMessage))
	}
	return apperrors.MapError(err)
}
