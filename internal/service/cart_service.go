package service

import (
	"context"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// cartService implements CartService on top of a cart.Store. Product names
// and prices always come from the catalogue, never from the client.
type cartService struct {
	store       *cart.Store
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(store *cart.Store, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		store:       store,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) Get(ctx context.Context, userID string) (*model.CartResponse, error) {
	if userID == "" {
		return nil, model.ErrMissingUser
	}
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*model.CartResponse, error) {
	if userID == "" {
		return nil, model.ErrMissingUser
	}
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", productID).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	c, err := s.store.AddItem(ctx, userID, *product, quantity)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID string, delta int) (*model.CartResponse, error) {
	if userID == "" {
		return nil, model.ErrMissingUser
	}
	c, err := s.store.UpdateQuantity(ctx, userID, productID, delta)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (*model.CartResponse, error) {
	if userID == "" {
		return nil, model.ErrMissingUser
	}
	c, err := s.store.RemoveItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return model.ErrMissingUser
	}
	return s.store.Clear(ctx, userID)
}

func (s *cartService) Lines(ctx context.Context, userID string) ([]model.CartLine, error) {
	if userID == "" {
		return nil, model.ErrMissingUser
	}
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.Lines(), nil
}

func (s *cartService) view(c *cart.Cart) *model.CartResponse {
	return &model.CartResponse{
		Lines:    c.Lines(),
		Totals:   s.store.Totals(c),
		Currency: s.store.Pricing().Currency,
	}
}
