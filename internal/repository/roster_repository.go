package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
)

// RosterRepository stores staff records of every tier. The tier picks the table
// and its column set.
type RosterRepository interface {
	List(ctx context.Context, tier domain.Tier) ([]domain.StaffRecord, error)
	GetByID(ctx context.Context, tier domain.Tier, id int64) (*domain.StaffRecord, error)
	Create(ctx context.Context, tier domain.Tier, rec *domain.StaffRecord) error
	Update(ctx context.Context, tier domain.Tier, id int64, updates []domain.ColumnValue) error
	Delete(ctx context.Context, tier domain.Tier, id int64) error
	DeleteAll(ctx context.Context, tier domain.Tier) error
	SyncIDSequence(ctx context.Context, tier domain.Tier) error
	WithTx(h persistence.Handle) RosterRepository
}

type rosterRepository struct {
	db persistence.Handle
}

// NewRosterRepository returns a database/sql backed implementation.
func NewRosterRepository(db *persistence.Database) RosterRepository {
	return &rosterRepository{db: db.Handle()}
}

func (r *rosterRepository) WithTx(h persistence.Handle) RosterRepository {
	return &rosterRepository{db: h}
}

func selectRoster(tier domain.Tier) string {
	return fmt.Sprintf("SELECT id, %s FROM %s",
		strings.Join(quoteColumns(tier.Columns()), ", "), persistence.QuoteIdent(tier.Key))
}

func (r *rosterRepository) List(ctx context.Context, tier domain.Tier) ([]domain.StaffRecord, error) {
	rows, err := r.db.Query(ctx, selectRoster(tier)+" ORDER BY nome ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.StaffRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, tier)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *rosterRepository) GetByID(ctx context.Context, tier domain.Tier, id int64) (*domain.StaffRecord, error) {
	row := r.db.QueryRow(ctx, selectRoster(tier)+" WHERE id = ?", id)
	rec, err := scanRecord(row, tier)
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// Create inserts rec and stores the assigned id back into it. A positive rec.ID
// is written as-is.
func (r *rosterRepository) Create(ctx context.Context, tier domain.Tier, rec *domain.StaffRecord) error {
	cols := quoteColumns(tier.Columns())
	args := rec.Values(tier)
	if rec.ID > 0 {
		cols = append([]string{"id"}, cols...)
		args = append([]any{rec.ID}, args...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		persistence.QuoteIdent(tier.Key), strings.Join(cols, ", "), placeholders(len(args)))
	return r.db.QueryRow(ctx, query, args...).Scan(&rec.ID)
}

func (r *rosterRepository) Update(ctx context.Context, tier domain.Tier, id int64, updates []domain.ColumnValue) error {
	if len(updates) == 0 {
		return nil
	}
	set, args := setClause(updates)
	args = append(args, id)
	res, err := r.db.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", persistence.QuoteIdent(tier.Key), set), args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *rosterRepository) Delete(ctx context.Context, tier domain.Tier, id int64) error {
	res, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", persistence.QuoteIdent(tier.Key)), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *rosterRepository) DeleteAll(ctx context.Context, tier domain.Tier) error {
	_, err := r.db.Exec(ctx, "DELETE FROM "+persistence.QuoteIdent(tier.Key))
	return err
}

// SyncIDSequence moves the Postgres id sequence past rows inserted with explicit ids.
func (r *rosterRepository) SyncIDSequence(ctx context.Context, tier domain.Tier) error {
	if r.db.Dialect() != persistence.DialectPostgres {
		return nil
	}
	table := persistence.QuoteIdent(tier.Key)
	_, err := r.db.Exec(ctx, fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
		tier.Key, table))
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner, tier domain.Tier) (domain.StaffRecord, error) {
	cols := tier.Columns()
	texts := make([]sql.NullString, len(cols))
	ints := make([]sql.NullInt64, len(cols))
	dest := make([]any, 0, len(cols)+1)

	var rec domain.StaffRecord
	dest = append(dest, &rec.ID)
	for i, col := range cols {
		if col.Kind == domain.ColumnInt {
			dest = append(dest, &ints[i])
		} else {
			dest = append(dest, &texts[i])
		}
	}
	if err := s.Scan(dest...); err != nil {
		return domain.StaffRecord{}, err
	}

	rec.Counters = make(map[string]int64, len(tier.Counters))
	for i, col := range cols {
		switch col.Name {
		case domain.ColName:
			rec.Name = texts[i].String
		case domain.ColRole:
			rec.Role = texts[i].String
		case domain.ColStatus:
			rec.Status = texts[i].String
		case domain.ColDiscordID:
			rec.DiscordID = texts[i].String
		case domain.ColPrize:
			prize := texts[i].String
			rec.Prize = &prize
		default:
			rec.Counters[col.Name] = ints[i].Int64
		}
	}
	return rec, nil
}
