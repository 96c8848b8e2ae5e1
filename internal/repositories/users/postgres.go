// Package users provides a PostgreSQL-backed repository for user accounts,
// including the single-use password-reset token lifecycle.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/dbx"
	"github.com/ritvika/paintshop/internal/models"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A duplicate email yields common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, password_hash, is_admin)
         VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.IsAdmin).Scan(&user.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, is_admin FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsAdmin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, is_admin FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsAdmin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	query :=
		`UPDATE users SET reset_token = $2, reset_token_expires = $3
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, token, expires); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByResetToken returns the user holding an unexpired reset token.
// An expired or unknown token yields common.ErrNotFound.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	query :=
		`SELECT id, email, reset_token_expires FROM users
		 WHERE reset_token = $1 AND reset_token_expires > now()
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&user.ID, &user.Email, &user.ResetTokenExpires)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// UpdatePasswordAndClearResetToken sets the new password hash and
// invalidates the reset token in a single statement, so a token can never
// be replayed after use.
func (r *PostgresRepository) UpdatePasswordAndClearResetToken(ctx context.Context, userID string, passwordHash []byte) error {
	query :=
		`UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expires = NULL
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, passwordHash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
