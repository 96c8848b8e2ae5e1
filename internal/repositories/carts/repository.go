package carts

import (
	"context"

	"github.com/ritvika/paintshop/internal/models"
)

type Repository interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Cart, error)
	Get(ctx context.Context, userID string) (*models.Cart, error)
	// GetResolved joins cart lines against the live products table.
	GetResolved(ctx context.Context, userID string) (*models.ResolvedCart, error)
	AddItem(ctx context.Context, userID, productID string) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
	// ClearIfVersion empties the cart only if it still has the given
	// version; common.ErrVersionConflict otherwise.
	ClearIfVersion(ctx context.Context, userID string, version int64) error
	// BumpVersion increments the cart version only when the expected
	// version still matches; common.ErrVersionConflict otherwise.
	BumpVersion(ctx context.Context, cartID string, expected int64) error
}
