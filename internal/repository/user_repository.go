package repository

import (
	"context"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
)

// UserRepository defines persistence access for dashboard credentials.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type userRepository struct {
	db persistence.Handle
}

// NewUserRepository returns a database/sql backed implementation.
func NewUserRepository(db *persistence.Database) UserRepository {
	return &userRepository{db: db.Handle()}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, password_hash)
        VALUES (?, ?)
        RETURNING id`

	return r.db.QueryRow(ctx, query, user.Username, user.PasswordHash).Scan(&user.ID)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash
        FROM users WHERE username = ?`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
	); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
