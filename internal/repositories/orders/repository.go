package orders

import (
	"context"
	"time"

	"github.com/ritvika/paintshop/internal/models"
)

type Repository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, orderID, status, providerRef string) error
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	// ListStalePending returns pending orders created before the cutoff,
	// for the reconciliation loop.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]*models.Order, error)
}
