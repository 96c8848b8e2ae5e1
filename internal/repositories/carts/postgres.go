// Package carts provides the PostgreSQL-backed cart ledger: one cart per
// user, at most one line per product, quantities maintained with a single
// atomic upsert so concurrent adds never lose an increment.
package carts

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

// GetOrCreate returns the user's cart, creating an empty one if absent.
// The insert is idempotent under races: a concurrent create wins and the
// existing row is returned.
func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	query := `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.Get(ctx, userID)
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	cart := &models.Cart{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, version FROM carts WHERE user_id = $1`, userID).
		Scan(&cart.ID, &cart.UserID, &cart.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM cart_items WHERE cart_id = $1`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		cart.Items = append(cart.Items, it)
	}
	return cart, rows.Err()
}

// GetResolved performs the read-time join of cart lines against the live
// catalog. Lines whose product was deleted come back with a nil Product;
// prices seen here are live and may differ from a past order's snapshot.
func (r *PostgresRepository) GetResolved(ctx context.Context, userID string) (*models.ResolvedCart, error) {
	cart, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	resolved := &models.ResolvedCart{CartID: cart.ID, UserID: cart.UserID, Version: cart.Version}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.product_id, ci.quantity,
		       p.id, p.title, p.description, p.price_cents, p.image_key, p.user_id
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.ResolvedCartItem
		var pid, title, description, imageKey, ownerID sql.NullString
		var priceCents sql.NullInt64
		if err := rows.Scan(&it.ProductID, &it.Quantity,
			&pid, &title, &description, &priceCents, &imageKey, &ownerID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if pid.Valid {
			it.Product = &models.Product{
				ID:          pid.String,
				Title:       title.String,
				Description: description.String,
				PriceCents:  priceCents.Int64,
				ImageKey:    imageKey.String,
				UserID:      ownerID.String,
			}
		}
		resolved.Items = append(resolved.Items, it)
	}
	return resolved, rows.Err()
}

// AddItem appends a line with quantity 1, or increments the existing line.
// The upsert is a single statement, so two concurrent adds both land.
func (r *PostgresRepository) AddItem(ctx context.Context, userID, productID string) error {
	cart, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1
	`
	if _, err := r.db.ExecContext(ctx, query, cart.ID, productID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RemoveItem deletes the line for productID. Removing a product that is not
// in the cart is a no-op, not an error.
func (r *PostgresRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	cart, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	if _, err := r.db.ExecContext(ctx, query, cart.ID, productID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	cart, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ClearIfVersion empties the cart only when its version is unchanged since
// the checkout read it, so a cart mutated mid-checkout is left alone.
func (r *PostgresRepository) ClearIfVersion(ctx context.Context, userID string, version int64) error {
	query := `
		DELETE FROM cart_items
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1 AND version = $2)
	`
	res, err := r.db.ExecContext(ctx, query, userID, version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var current int64
		if err := r.db.QueryRowContext(ctx,
			`SELECT version FROM carts WHERE user_id = $1`, userID).Scan(&current); err == nil && current != version {
			return common.ErrVersionConflict
		}
	}
	return nil
}

// BumpVersion is the optimistic-concurrency gate of the checkout sequence:
// it succeeds for exactly one of any set of concurrent checkouts reading
// the same cart state.
func (r *PostgresRepository) BumpVersion(ctx context.Context, cartID string, expected int64) error {
	query := `
		UPDATE carts SET version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := r.db.ExecContext(ctx, query, cartID, expected)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrVersionConflict
	}
	return nil
}
