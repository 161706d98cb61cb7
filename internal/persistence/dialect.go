package persistence

import (
	"context"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour of the backing store.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites ? placeholders to $n for Postgres. Quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var (
		b        strings.Builder
		n        int
		inString bool
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case r == '\'':
			inString = !inString
			b.WriteRune(r)
		case r == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SerialPrimaryKey is the column definition of an auto-assigned integer id.
func (d Dialect) SerialPrimaryKey() string {
	if d == DialectPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// QuoteIdent quotes a column or table name, keeping camelCase names intact on Postgres.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// HasColumn reports whether table already has column.
func HasColumn(ctx context.Context, h Handle, table, column string) (bool, error) {
	if h.dialect == DialectPostgres {
		var exists bool
		err := h.QueryRow(ctx, `SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?)`,
			table, column).Scan(&exists)
		return exists, err
	}

	rows, err := h.Query(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// AddColumnIfMissing adds column with the given definition when table lacks it.
func AddColumnIfMissing(ctx context.Context, h Handle, table, column, definition string) (bool, error) {
	exists, err := HasColumn(ctx, h, table, column)
	if err != nil || exists {
		return false, err
	}
	stmt := "ALTER TABLE " + QuoteIdent(table) + " ADD COLUMN " + QuoteIdent(column) + " " + definition
	if _, err := h.Exec(ctx, stmt); err != nil {
		return false, err
	}
	return true, nil
}
