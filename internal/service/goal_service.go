package service

import (
	"context"
	"errors"

	"github.com/complexorj/staff-dashboard/internal/cache"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
	"github.com/complexorj/staff-dashboard/internal/repository"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

// GoalService reads and upserts the per-role goal matrix.
type GoalService struct {
	tx    TxRunner
	goals repository.GoalRepository
	cache cache.GoalCache
}

// GoalDependencies encapsulates what the goal service needs.
type GoalDependencies struct {
	Tx       TxRunner
	GoalRepo repository.GoalRepository
	Cache    cache.GoalCache
}

// NewGoalService constructs the service.
func NewGoalService(deps GoalDependencies) *GoalService {
	c := deps.Cache
	if c == nil {
		c = cache.NewGoalCache(nil, 0, nil)
	}
	return &GoalService{tx: deps.Tx, goals: deps.GoalRepo, cache: c}
}

// Matrix returns every goal nested by role and metric.
func (s *GoalService) Matrix(ctx context.Context) (domain.GoalMatrix, error) {
	if m, ok := s.cache.Get(ctx); ok {
		return m, nil
	}
	token, fill := s.cache.Token(ctx)
	goals, err := s.goals.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	m := domain.NewGoalMatrix(goals)
	if fill {
		s.cache.Set(ctx, token, m)
	}
	return m, nil
}

// ForRole returns the metrics of one role; a role without goals is not found.
func (s *GoalService) ForRole(ctx context.Context, role string) (map[string]domain.Thresholds, error) {
	goals, err := s.goals.ListByRole(ctx, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(goals) == 0 {
		return nil, apperrors.NewNotFound("GoalsForRoleNotFound", nil)
	}
	out := make(map[string]domain.Thresholds, len(goals))
	for _, g := range goals {
		out[g.Metric] = g.Thresholds
	}
	return out, nil
}

// Save upserts one goal.
func (s *GoalService) Save(ctx context.Context, goal domain.Goal) error {
	if goal.Role == "" || goal.Metric == "" {
		return apperrors.NewValidationError("GoalKeyRequired", nil)
	}
	if err := s.goals.Upsert(ctx, goal); err != nil {
		return apperrors.MapError(err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

// UpdateThresholds changes whichever threshold is given on an existing goal.
func (s *GoalService) UpdateThresholds(ctx context.Context, role, metric string, promotion, bonus *int64) error {
	if _, err := s.goals.Get(ctx, role, metric); err != nil {
		return goalLookupError(err)
	}
	if promotion == nil && bonus == nil {
		return apperrors.NewValidationError("NoValidFields", nil)
	}
	if err := s.goals.UpdateThresholds(ctx, role, metric, promotion, bonus); err != nil {
		return goalLookupError(err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

// ReplaceMatrix upserts every pair of m in one transaction. Pairs not in m are
// left untouched.
func (s *GoalService) ReplaceMatrix(ctx context.Context, m domain.GoalMatrix) error {
	err := s.tx.InTx(ctx, func(h persistence.Handle) error {
		repo := s.goals.WithTx(h)
		for _, g := range m.Goals() {
			if err := repo.Upsert(ctx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *GoalService) Delete(ctx context.Context, role, metric string) error {
	if err := s.goals.Delete(ctx, role, metric); err != nil {
		return goalLookupError(err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached matrix after writes made outside this service.
func (s *GoalService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

func goalLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("GoalNotFound", nil)
	}
	return apperrors.MapError(err)
}
