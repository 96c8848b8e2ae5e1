// Package products provides a PostgreSQL-backed repository for the live
// product catalog with paginated listing.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/dbx"
	"github.com/ritvika/paintshop/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {

	query :=
		`INSERT INTO products (title, description, price_cents, image_key, user_id)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		product.Title, product.Description, product.PriceCents, product.ImageKey, product.UserID).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return product, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query :=
		`SELECT id, title, description, price_cents, image_key, user_id, created_at, updated_at
		 FROM products
		 WHERE id = $1
		 `

	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.PriceCents, &p.ImageKey, &p.UserID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, product *models.Product) error {
	query :=
		`UPDATE products
		 SET title = $2, description = $3, price_cents = $4, image_key = $5, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		product.ID, product.Title, product.Description, product.PriceCents, product.ImageKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// List returns one catalog page ordered by creation time, newest first.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.Product, error) {
	query :=
		`SELECT id, title, description, price_cents, image_key, user_id, created_at, updated_at
		 FROM products
		 ORDER BY created_at DESC
		 OFFSET $1 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.PriceCents, &p.ImageKey, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByUser returns all products owned by an admin user (the admin
// products screen is not paginated).
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Product, error) {
	query :=
		`SELECT id, title, description, price_cents, image_key, user_id, created_at, updated_at
		 FROM products
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.PriceCents, &p.ImageKey, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
