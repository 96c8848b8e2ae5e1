package products

import (
	"context"

	"github.com/ritvika/paintshop/internal/models"
)

type Repository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, skip, limit int) ([]*models.Product, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Product, error)
	Count(ctx context.Context) (int64, error)
}
