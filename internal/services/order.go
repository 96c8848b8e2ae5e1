package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/invoice"
	"github.com/ritvika/paintshop/internal/models"
	"github.com/ritvika/paintshop/internal/repositories/repomanager"
)

// OrderService exposes a user's order history and invoices. Orders are
// read-only snapshots here; only the checkout and settlement paths write.
type OrderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewOrderService(db *sql.DB, m repomanager.RepositoryManager) *OrderService {
	return &OrderService{db: db, repomanager: m}
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	orders, err := s.repomanager.Orders(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing orders: %w", err)
	}
	return orders, nil
}

// Get returns an order only to the user it belongs to.
func (s *OrderService) Get(ctx context.Context, actorID, orderID string) (*models.Order, error) {
	order, err := s.repomanager.Orders(s.db).GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("error loading order: %w", err)
	}
	if order.UserID != actorID {
		return nil, common.ErrForbidden
	}
	return order, nil
}

// WriteInvoice renders the order's PDF invoice to w after the same
// ownership check as Get. The invoice is built from the stored snapshot,
// so it stays stable regardless of later catalog changes.
func (s *OrderService) WriteInvoice(ctx context.Context, actorID, orderID string, w io.Writer) error {
	order, err := s.Get(ctx, actorID, orderID)
	if err != nil {
		return err
	}
	if err := invoice.Render(w, order); err != nil {
		return fmt.Errorf("error rendering invoice: %w", err)
	}
	return nil
}
