package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func quoteColumns(cols []domain.Column) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, persistence.QuoteIdent(c.Name))
	}
	return out
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// setClause renders "col" = ?, ... for a filtered patch and returns its arguments.
func setClause(updates []domain.ColumnValue) (string, []any) {
	parts := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for _, u := range updates {
		parts = append(parts, persistence.QuoteIdent(u.Column)+" = ?")
		args = append(args, u.Value)
	}
	return strings.Join(parts, ", "), args
}
