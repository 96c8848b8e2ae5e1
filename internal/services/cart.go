package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ritvika/paintshop/internal/models"
	"github.com/ritvika/paintshop/internal/repositories/repomanager"
)

// CartService manages the per-user cart. All reads return the resolved
// view, joined against the live catalog, so a deleted product shows up as
// an unavailable line instead of disappearing silently.
type CartService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCartService(db *sql.DB, m repomanager.RepositoryManager) *CartService {
	return &CartService{db: db, repomanager: m}
}

func (s *CartService) Get(ctx context.Context, userID string) (*models.ResolvedCart, error) {
	if _, err := s.repomanager.Carts(s.db).GetOrCreate(ctx, userID); err != nil {
		return nil, fmt.Errorf("error loading cart: %w", err)
	}
	cart, err := s.repomanager.Carts(s.db).GetResolved(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error resolving cart: %w", err)
	}
	return cart, nil
}

// Add puts one unit of the product into the cart, incrementing the
// quantity if the line already exists. The product must exist at add time.
func (s *CartService) Add(ctx context.Context, userID, productID string) error {
	if _, err := s.repomanager.Products(s.db).GetByID(ctx, productID); err != nil {
		return fmt.Errorf("error checking product: %w", err)
	}
	if _, err := s.repomanager.Carts(s.db).GetOrCreate(ctx, userID); err != nil {
		return fmt.Errorf("error loading cart: %w", err)
	}
	if err := s.repomanager.Carts(s.db).AddItem(ctx, userID, productID); err != nil {
		return fmt.Errorf("error adding item: %w", err)
	}
	return nil
}

// Remove deletes the whole line for the product. Removing a product that
// is not in the cart is a no-op.
func (s *CartService) Remove(ctx context.Context, userID, productID string) error {
	if err := s.repomanager.Carts(s.db).RemoveItem(ctx, userID, productID); err != nil {
		return fmt.Errorf("error removing item: %w", err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.repomanager.Carts(s.db).Clear(ctx, userID); err != nil {
		return fmt.Errorf("error clearing cart: %w", err)
	}
	return nil
}
