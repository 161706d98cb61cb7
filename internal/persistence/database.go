package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/complexorj/staff-dashboard/internal/config"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Handle runs statements written with ? placeholders against either the pool or
// an open transaction, rebinding them for the active dialect.
type Handle struct {
	q       querier
	dialect Dialect
}

func (h Handle) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return h.q.ExecContext(ctx, h.dialect.Rebind(query), args...)
}

func (h Handle) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return h.q.QueryContext(ctx, h.dialect.Rebind(query), args...)
}

func (h Handle) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return h.q.QueryRowContext(ctx, h.dialect.Rebind(query), args...)
}

// Dialect returns the SQL flavour behind the handle.
func (h Handle) Dialect() Dialect {
	return h.dialect
}

// Database wraps the database/sql pool of the configured backend.
type Database struct {
	DB      *sql.DB
	dialect Dialect
}

// Open connects to SQLite (default) or Postgres and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	var (
		driver  string
		dsn     string
		dialect Dialect
	)

	switch cfg.Driver {
	case "postgres":
		driver, dsn, dialect = "pgx", cfg.DSN, DialectPostgres
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		driver, dsn, dialect = "sqlite", sqliteDSN(cfg), DialectSQLite
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("connected to database", zap.String("driver", dialect.String()))
	return &Database{DB: db, dialect: dialect}, nil
}

func sqliteDSN(cfg config.DatabaseConfig) string {
	busy := cfg.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	return "file:" + cfg.Path + "?" + params.Encode()
}

// Handle returns a pool-backed handle.
func (d *Database) Handle() Handle {
	return Handle{q: d.DB, dialect: d.dialect}
}

// Dialect returns the SQL flavour of the connection.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// InTx runs fn inside one transaction, committing when it returns nil.
func (d *Database) InTx(ctx context.Context, fn func(Handle) error) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(Handle{q: tx, dialect: d.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Ping verifies database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return errors.New("database not configured")
	}
	return d.DB.PingContext(ctx)
}

// Close releases pool resources.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
