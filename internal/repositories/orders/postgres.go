// Package orders provides the append-only PostgreSQL order store. Order
// rows and their denormalized line items are immutable after creation;
// only the payment status and provider reference ever change.
package orders

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

// Create appends an order with its line items. Run inside a transaction
// (pass a dbx.DBTX bound to a *sql.Tx) together with the cart version bump.
// A duplicate idempotency_key yields common.ErrAlreadyExists so the caller
// can fall back to the order created by the competing submission.
func (r *PostgresRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {

	query :=
		`INSERT INTO orders (user_id, user_email, status, total_cents, currency, idempotency_key)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		order.UserID, order.UserEmail, order.Status, order.TotalCents, order.Currency, order.IdempotencyKey).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	itemQuery :=
		`INSERT INTO order_items (order_id, product_id, title, description, image_key, unit_price_cents, quantity, line_cents)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	for i := range order.Items {
		it := &order.Items[i]
		if _, err := r.db.ExecContext(ctx, itemQuery,
			order.ID, it.ProductID, it.Title, it.Description, it.ImageKey,
			it.UnitPriceCents, it.Quantity, it.LineCents); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return order, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query :=
		`SELECT id, user_id, user_email, status, total_cents, currency,
		        COALESCE(idempotency_key, ''), provider_ref, created_at
		 FROM orders
		 WHERE id = $1
		 `

	o := &models.Order{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&o.ID, &o.UserID, &o.UserEmail, &o.Status, &o.TotalCents, &o.Currency,
			&o.IdempotencyKey, &o.ProviderRef, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListByUser returns the user's orders, explicitly sorted most-recent-first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	query :=
		`SELECT id, user_id, user_email, status, total_cents, currency,
		        COALESCE(idempotency_key, ''), provider_ref, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o := &models.Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.Status, &o.TotalCents, &o.Currency,
			&o.IdempotencyKey, &o.ProviderRef, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range out {
		items, err := r.listItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return out, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID, status, providerRef string) error {
	query :=
		`UPDATE orders SET status = $2, provider_ref = COALESCE(NULLIF($3, ''), provider_ref)
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, orderID, status, providerRef)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// FindByIdempotencyKey returns the order created by a previous submission
// with the same key, or common.ErrNotFound.
func (r *PostgresRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	query := `SELECT id FROM orders WHERE idempotency_key = $1`

	var id string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*models.Order, error) {
	query :=
		`SELECT id, user_id, user_email, status, total_cents, currency,
		        COALESCE(idempotency_key, ''), provider_ref, created_at
		 FROM orders
		 WHERE status = $1 AND created_at < $2
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, models.OrderStatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o := &models.Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.Status, &o.TotalCents, &o.Currency,
			&o.IdempotencyKey, &o.ProviderRef, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) listItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	query :=
		`SELECT product_id, title, description, image_key, unit_price_cents, quantity, line_cents
		 FROM order_items
		 WHERE order_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Title, &it.Description, &it.ImageKey,
			&it.UnitPriceCents, &it.Quantity, &it.LineCents); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
