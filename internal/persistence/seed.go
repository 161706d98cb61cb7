package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/domain"
)

const insertGoal = "INSERT INTO metas (cargo, metrica, promocao, premiacao) VALUES (?, ?, ?, ?)"

// SeedGoals inserts the default matrix when the goals table is empty.
func SeedGoals(ctx context.Context, db *Database, logger *zap.Logger) error {
	seeded := false
	err := db.InTx(ctx, func(tx Handle) error {
		var count int64
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM metas").Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, g := range domain.DefaultGoalMatrix().Goals() {
			if _, err := tx.Exec(ctx, insertGoal, g.Role, g.Metric, g.Promotion, g.Bonus); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err == nil && seeded {
		logger.Info("default goals seeded")
	}
	return err
}

// SeedSupervisorGoals inserts the SPV defaults when no SPV goal exists.
func SeedSupervisorGoals(ctx context.Context, db *Database, logger *zap.Logger) error {
	seeded := false
	err := db.InTx(ctx, func(tx Handle) error {
		var count int64
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM metas WHERE cargo = ?", domain.Supervisors.Code).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for metric, t := range domain.DefaultSupervisorGoals() {
			if _, err := tx.Exec(ctx, insertGoal, domain.Supervisors.Code, metric, t.Promotion, t.Bonus); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err == nil && seeded {
		logger.Info("supervisor goals seeded")
	}
	return err
}
