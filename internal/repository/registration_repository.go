package repository

import (
	"context"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
)

// RegistrationRepository persists city registrations (cadastros).
type RegistrationRepository interface {
	List(ctx context.Context) ([]domain.Registration, error)
	GetByID(ctx context.Context, id int64) (*domain.Registration, error)
	Create(ctx context.Context, reg *domain.Registration) error
	Upsert(ctx context.Context, reg *domain.Registration) error
	Update(ctx context.Context, id int64, updates []domain.ColumnValue) error
	Delete(ctx context.Context, id int64) error
	WithTx(h persistence.Handle) RegistrationRepository
}

type registrationRepository struct {
	db persistence.Handle
}

// NewRegistrationRepository returns a database/sql backed implementation.
func NewRegistrationRepository(db *persistence.Database) RegistrationRepository {
	return &registrationRepository{db: db.Handle()}
}

func (r *registrationRepository) WithTx(h persistence.Handle) RegistrationRepository {
	return &registrationRepository{db: h}
}

const selectRegistration = "SELECT id, nome, COALESCE(cidade, ''), cargo FROM cadastros"

func (r *registrationRepository) List(ctx context.Context) ([]domain.Registration, error) {
	rows, err := r.db.Query(ctx, selectRegistration+" ORDER BY nome ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]domain.Registration, 0)
	for rows.Next() {
		var reg domain.Registration
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.City, &reg.Role); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) GetByID(ctx context.Context, id int64) (*domain.Registration, error) {
	var reg domain.Registration
	if err := r.db.QueryRow(ctx, selectRegistration+" WHERE id = ?", id).
		Scan(&reg.ID, &reg.Name, &reg.City, &reg.Role); err != nil {
		return nil, notFound(err)
	}
	return &reg, nil
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO cadastros (id, nome, cidade, cargo) VALUES (?, ?, ?, ?)",
		reg.ID, reg.Name, reg.City, reg.Role)
	return err
}

// Upsert inserts reg or overwrites the row with the same id.
func (r *registrationRepository) Upsert(ctx context.Context, reg *domain.Registration) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO cadastros (id, nome, cidade, cargo) VALUES (?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET nome = excluded.nome, cidade = excluded.cidade, cargo = excluded.cargo`,
		reg.ID, reg.Name, reg.City, reg.Role)
	return err
}

func (r *registrationRepository) Update(ctx context.Context, id int64, updates []domain.ColumnValue) error {
	if len(updates) == 0 {
		return nil
	}
	set, args := setClause(updates)
	args = append(args, id)
	res, err := r.db.Exec(ctx, "UPDATE cadastros SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *registrationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, "DELETE FROM cadastros WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
