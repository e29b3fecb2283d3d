package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/application/catalog"
	"github.com/TemirB/storefront-api/internal/domain"
)

//go:generate mockgen -source internal/application/wishlist/wishlist.go -destination=internal/application/wishlist/wishlist_mock_test.go -package=wishlist

type Store interface {
	WishlistProducts(ctx context.Context, userID uuid.UUID) ([]domain.Product, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error
}

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]catalog.ProductView, error) {
	ps, err := s.store.WishlistProducts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return catalog.NormalizeAll(ps), nil
}

// Add is idempotent and returns the wished product.
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID) (catalog.ProductView, error) {
	ps, err := s.store.ProductsByIDs(ctx, []uuid.UUID{productID})
	if err != nil {
		return catalog.ProductView{}, err
	}
	if len(ps) == 0 {
		return catalog.ProductView{}, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	if err := s.store.AddToWishlist(ctx, userID, productID); err != nil {
		return catalog.ProductView{}, err
	}
	s.logger.Debug("wishlist add",
		zap.String("user_id", userID.String()),
		zap.String("product_id", productID.String()),
	)
	return catalog.Normalize(ps[0]), nil
}

func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.store.RemoveFromWishlist(ctx, userID, productID); err != nil {
		return fmt.Errorf("wishlist entry %s: %w", productID, err)
	}
	return nil
}
