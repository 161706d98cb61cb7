package persistence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/domain"
)

// Migration is one versioned schema change. Up runs inside its own transaction.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, h Handle) error
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrations returns every schema migration in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "baseline_schema", Up: baselineSchema},
		{Version: 2, Name: "legacy_discord_id", Up: legacyDiscordID},
		{Version: 3, Name: "legacy_support_prize", Up: legacySupportPrize},
	}
}

// RunMigrations applies every migration not yet recorded in schema_migrations.
func RunMigrations(ctx context.Context, db *Database, logger *zap.Logger) error {
	h := db.Handle()
	if _, err := h.Exec(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := AppliedVersions(ctx, h)
	if err != nil {
		return err
	}

	count := 0
	for _, m := range Migrations() {
		if applied[m.Version] {
			continue
		}
		logger.Info("applying migration", zap.Int("version", m.Version), zap.String("name", m.Name))
		err := db.InTx(ctx, func(tx Handle) error {
			if err := m.Up(ctx, tx); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d %s: %w", m.Version, m.Name, err)
		}
		count++
	}

	logger.Info("migrations applied", zap.Int("count", count))
	return nil
}

// AppliedVersions lists the recorded migration versions.
func AppliedVersions(ctx context.Context, h Handle) (map[int]bool, error) {
	rows, err := h.Query(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Prepare brings the schema up to date and seeds the default goals.
func Prepare(ctx context.Context, db *Database, logger *zap.Logger) error {
	if err := RunMigrations(ctx, db, logger); err != nil {
		return err
	}
	if err := SeedGoals(ctx, db, logger); err != nil {
		return fmt.Errorf("seed goals: %w", err)
	}
	if err := SeedSupervisorGoals(ctx, db, logger); err != nil {
		return fmt.Errorf("seed supervisor goals: %w", err)
	}
	return nil
}

func baselineSchema(ctx context.Context, h Handle) error {
	stmts := make([]string, 0, len(domain.Tiers())+3)
	for _, t := range domain.Tiers() {
		stmts = append(stmts, tierTableDDL(h.Dialect(), t))
	}

	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS cadastros (
			id BIGINT PRIMARY KEY,
			nome TEXT NOT NULL,
			cidade TEXT NOT NULL DEFAULT '',
			cargo TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS metas (
			id `+h.Dialect().SerialPrimaryKey()+`,
			cargo TEXT NOT NULL,
			metrica TEXT NOT NULL,
			promocao BIGINT NOT NULL DEFAULT 0,
			premiacao BIGINT NOT NULL DEFAULT 0,
			UNIQUE (cargo, metrica)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id `+h.Dialect().SerialPrimaryKey()+`,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	)

	for _, stmt := range stmts {
		if _, err := h.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func tierTableDDL(d Dialect, t domain.Tier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n\tid %s", QuoteIdent(t.Key), d.SerialPrimaryKey())
	for _, col := range t.Columns() {
		b.WriteString(",\n\t")
		b.WriteString(QuoteIdent(col.Name))
		b.WriteByte(' ')
		b.WriteString(columnDefinition(t, col))
	}
	b.WriteString(",\n\tcreated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP\n)")
	return b.String()
}

func columnDefinition(t domain.Tier, col domain.Column) string {
	switch col.Name {
	case domain.ColName:
		return "TEXT NOT NULL"
	case domain.ColRole:
		return "TEXT DEFAULT " + quoteLiteral(t.Code)
	case domain.ColStatus:
		return "TEXT DEFAULT " + quoteLiteral(domain.DefaultStatus)
	case domain.ColDiscordID:
		return "TEXT DEFAULT ''"
	case domain.ColPrize:
		return "TEXT DEFAULT " + quoteLiteral(domain.DefaultPrize)
	}
	return "BIGINT DEFAULT 0"
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func legacyDiscordID(ctx context.Context, h Handle) error {
	for _, t := range domain.Tiers() {
		if _, err := AddColumnIfMissing(ctx, h, t.Key, domain.ColDiscordID, "TEXT DEFAULT ''"); err != nil {
			return fmt.Errorf("%s: %w", t.Key, err)
		}
	}
	return nil
}

func legacySupportPrize(ctx context.Context, h Handle) error {
	_, err := AddColumnIfMissing(ctx, h, domain.Support.Key, domain.ColPrize, "TEXT DEFAULT "+quoteLiteral(domain.DefaultPrize))
	return err
}
