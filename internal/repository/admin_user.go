package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/jackc/pgx/v5"
)

type adminUserRepo struct{}

// NewAdminUserRepository returns a pgx-backed AdminUserRepository.
func NewAdminUserRepository() AdminUserRepository {
	return &adminUserRepo{}
}

// FindByEmail returns an admin user by email, or nil if not found.
func (r *adminUserRepo) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AdminUser, error) {
	row := db.QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at, updated_at
		 FROM admin_users WHERE lower(email) = lower($1)`, email)

	u := &domain.AdminUser{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan admin user: %w", err)
	}
	return u, nil
}

// Create inserts a new admin user.
func (r *adminUserRepo) Create(ctx context.Context, db DBTX, user *domain.AdminUser) error {
	err := db.QueryRow(ctx,
		`INSERT INTO admin_users (id, email, password_hash, role) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		user.ID, user.Email, user.PasswordHash, user.Role).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("email already registered")
		}
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}

// UpdatePasswordHash updates the password hash for the given email.
func (r *adminUserRepo) UpdatePasswordHash(ctx context.Context, db DBTX, email, hash string) error {
	tag, err := db.Exec(ctx,
		`UPDATE admin_users SET password_hash = $1, updated_at = now() WHERE lower(email) = lower($2)`,
		hash, email)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("admin user", email)
	}
	return nil
}
