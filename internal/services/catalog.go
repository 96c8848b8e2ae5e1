package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/config"
	"github.com/ritvika/paintshop/internal/filestore"
	"github.com/ritvika/paintshop/internal/logging"
	"github.com/ritvika/paintshop/internal/models"
	"github.com/ritvika/paintshop/internal/repositories/repomanager"
)

const productCacheSize = 512

// CatalogService implements the public product listing and the admin CRUD
// surface. Single-product reads go through a small LRU cache; every write
// to a product invalidates its cache entry before touching the database.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       filestore.FileStore
	logger      logging.Logger
	pageSize    int
	cache       *lru.Cache[string, *models.Product]
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, store filestore.FileStore, logger logging.Logger, cfg *config.Config) (*CatalogService, error) {
	cache, err := lru.New[string, *models.Product](productCacheSize)
	if err != nil {
		return nil, err
	}
	return &CatalogService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger,
		pageSize:    cfg.PageSize,
		cache:       cache,
	}, nil
}

// ListPage returns one page of the catalog, newest first. Pages are
// 1-based; a page beyond the end returns an empty product list with
// correct pagination metadata.
func (s *CatalogService) ListPage(ctx context.Context, page int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}

	repo := s.repomanager.Products(s.db)
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting products: %w", err)
	}

	items, err := repo.List(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	lastPage := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	if lastPage < 1 {
		lastPage = 1
	}

	return &models.ProductPage{
		Products:    items,
		TotalItems:  total,
		CurrentPage: page,
		LastPage:    lastPage,
		HasNext:     int64(page)*int64(s.pageSize) < total,
		HasPrev:     page > 1,
	}, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}
	p, err := s.repomanager.Products(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading product: %w", err)
	}
	s.cache.Add(id, p)
	return p, nil
}

// ImageURL resolves a stored image key to a short-lived download URL.
func (s *CatalogService) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.store.PresignGet(ctx, key)
}

// UploadImage stores an uploaded image and returns its storage key. The
// key only becomes visible once attached to a product.
func (s *CatalogService) UploadImage(ctx context.Context, contentType string, r io.Reader) (string, error) {
	key := filestore.RandomStorageKey()
	if err := s.store.Put(ctx, key, contentType, r); err != nil {
		return "", fmt.Errorf("error storing image: %w", err)
	}
	return key, nil
}

func (s *CatalogService) Create(ctx context.Context, ownerID string, p *models.Product) (*models.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.UserID = ownerID
	created, err := s.repomanager.Products(s.db).Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}
	return created, nil
}

// Update modifies a product the actor owns. When the update carries a new
// image key, the previous object is deleted only after the row update
// succeeds, so a failed update never orphans the live image.
func (s *CatalogService) Update(ctx context.Context, actorID string, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	existing, err := s.repomanager.Products(s.db).GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("error loading product: %w", err)
	}
	if existing.UserID != actorID {
		return common.ErrForbidden
	}

	if p.ImageKey == "" {
		p.ImageKey = existing.ImageKey
	}
	p.UserID = existing.UserID

	s.cache.Remove(p.ID)
	if err := s.repomanager.Products(s.db).Update(ctx, p); err != nil {
		return fmt.Errorf("error updating product: %w", err)
	}

	if existing.ImageKey != "" && existing.ImageKey != p.ImageKey {
		if err := s.store.Delete(ctx, existing.ImageKey); err != nil {
			s.logger.Warn(ctx, "stale image not deleted", "key", existing.ImageKey, "error", err)
		}
	}
	return nil
}

// Delete removes a product the actor owns. Existing orders keep their
// denormalized copies; carts referencing the product resolve it as
// unavailable from now on.
func (s *CatalogService) Delete(ctx context.Context, actorID, id string) error {
	existing, err := s.repomanager.Products(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("error loading product: %w", err)
	}
	if existing.UserID != actorID {
		return common.ErrForbidden
	}

	s.cache.Remove(id)
	if err := s.repomanager.Products(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting product: %w", err)
	}

	if existing.ImageKey != "" {
		if err := s.store.Delete(ctx, existing.ImageKey); err != nil {
			s.logger.Warn(ctx, "image not deleted", "key", existing.ImageKey, "error", err)
		}
	}
	return nil
}

// ListByOwner returns the actor's own listings for the admin view.
func (s *CatalogService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Product, error) {
	items, err := s.repomanager.Products(s.db).ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return items, nil
}

func validateProduct(p *models.Product) error {
	if p.Title == "" {
		return fmt.Errorf("title is required: %w", common.ErrValidation)
	}
	if p.PriceCents <= 0 {
		return fmt.Errorf("price must be positive: %w", common.ErrValidation)
	}
	return nil
}
