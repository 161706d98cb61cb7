package repository

import (
	"context"
	"strings"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
)

// GoalRepository persists the (role, metric) goal table.
type GoalRepository interface {
	List(ctx context.Context) ([]domain.Goal, error)
	ListByRole(ctx context.Context, role string) ([]domain.Goal, error)
	Get(ctx context.Context, role, metric string) (*domain.Goal, error)
	Upsert(ctx context.Context, goal domain.Goal) error
	UpdateThresholds(ctx context.Context, role, metric string, promotion, bonus *int64) error
	Delete(ctx context.Context, role, metric string) error
	WithTx(h persistence.Handle) GoalRepository
}

type goalRepository struct {
	db persistence.Handle
}

// NewGoalRepository returns a database/sql backed implementation.
func NewGoalRepository(db *persistence.Database) GoalRepository {
	return &goalRepository{db: db.Handle()}
}

func (r *goalRepository) WithTx(h persistence.Handle) GoalRepository {
	return &goalRepository{db: h}
}

const selectGoal = "SELECT cargo, metrica, promocao, premiacao FROM metas"

func (r *goalRepository) List(ctx context.Context) ([]domain.Goal, error) {
	return r.query(ctx, selectGoal+" ORDER BY cargo, metrica")
}

func (r *goalRepository) ListByRole(ctx context.Context, role string) ([]domain.Goal, error) {
	return r.query(ctx, selectGoal+" WHERE cargo = ? ORDER BY metrica", role)
}

func (r *goalRepository) query(ctx context.Context, query string, args ...any) ([]domain.Goal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]domain.Goal, 0)
	for rows.Next() {
		var g domain.Goal
		if err := rows.Scan(&g.Role, &g.Metric, &g.Promotion, &g.Bonus); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *goalRepository) Get(ctx context.Context, role, metric string) (*domain.Goal, error) {
	var g domain.Goal
	if err := r.db.QueryRow(ctx, selectGoal+" WHERE cargo = ? AND metrica = ?", role, metric).
		Scan(&g.Role, &g.Metric, &g.Promotion, &g.Bonus); err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *goalRepository) Upsert(ctx context.Context, goal domain.Goal) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO metas (cargo, metrica, promocao, premiacao) VALUES (?, ?, ?, ?)
        ON CONFLICT (cargo, metrica) DO UPDATE SET promocao = excluded.promocao, premiacao = excluded.premiacao`,
		goal.Role, goal.Metric, goal.Promotion, goal.Bonus)
	return err
}

// UpdateThresholds sets whichever of promotion and bonus is non-nil.
func (r *goalRepository) UpdateThresholds(ctx context.Context, role, metric string, promotion, bonus *int64) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if promotion != nil {
		sets = append(sets, "promocao = ?")
		args = append(args, *promotion)
	}
	if bonus != nil {
		sets = append(sets, "premiacao = ?")
		args = append(args, *bonus)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, role, metric)

	res, err := r.db.Exec(ctx, "UPDATE metas SET "+strings.Join(sets, ", ")+" WHERE cargo = ? AND metrica = ?", args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *goalRepository) Delete(ctx context.Context, role, metric string) error {
	res, err := r.db.Exec(ctx, "DELETE FROM metas WHERE cargo = ? AND metrica = ?", role, metric)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
