package service

import (
	"context"
	"errors"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

// TxRunner opens a transaction and hands fn a handle bound to it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(persistence.Handle) error) error
}

func entity(messageID string) map[string]any {
	return map[string]any{"Entity": apperrors.MessageRef(messageID)}
}

// inputError maps record validation failures to 400 responses.
func inputError(err error) error {
	var fieldErr *domain.FieldError
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return apperrors.NewValidationError("NameRequired", nil)
	case errors.As(err, &fieldErr):
		return apperrors.NewValidationError("InvalidFieldValue", map[string]any{"Field": fieldErr.Field})
	}
	return apperrors.MapError(err)
}
