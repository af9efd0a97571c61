package service

import (
	"context"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"go.uber.org/zap"
)

type ProductGetter interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type CartService struct {
	carts    CartStore
	products ProductGetter
	logger   *zap.Logger
}

func NewCartService(carts CartStore, products ProductGetter, logger *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

func (s *CartService) ListCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	lines, err := s.carts.ListCartLines(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return &domain.Cart{UserID: userID, Lines: lines}, nil
}

// AddItem puts quantity units of the product in the cart, incrementing an existing line.
// The stock check here is advisory; checkout re-checks atomically.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, classify(err)
	}

	if !product.InStock() || quantity > product.Stock {
		return nil, domain.ErrNotEnoughStock
	}

	inCart, err := s.carts.GetCartQuantity(ctx, userID, productID)
	if err != nil {
		return nil, classify(err)
	}
	if inCart > product.Stock-quantity {
		return nil, domain.ErrNotEnoughStock
	}

	line, err := s.carts.UpsertCartLine(ctx, userID, productID, quantity)
	if err != nil {
		s.logger.Error("add cart item failed", zap.Int64("user_id", userID), zap.Int64("product_id", productID), zap.Error(err))
		return nil, classify(err)
	}
	line.Name = product.Name
	line.Price = product.Price
	line.ImageURL = product.ImageURL
	line.Stock = product.Stock
	return line, nil
}

// DecreaseItem lowers the quantity by one and reports whether the line was removed.
func (s *CartService) DecreaseItem(ctx context.Context, userID, productID int64) (bool, error) {
	removed, err := s.carts.DecreaseCartLine(ctx, userID, productID)
	if err != nil {
		return false, classify(err)
	}
	return removed, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, lineID int64) error {
	return classify(s.carts.DeleteCartLine(ctx, userID, lineID))
}
