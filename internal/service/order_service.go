package service

import (
	"context"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
)

type OrderLister interface {
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
}

type OrderService struct {
	orders OrderLister
}

func NewOrderService(orders OrderLister) *OrderService {
	return &OrderService{orders: orders}
}

// ListOrders returns the user's order history, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return orders, nil
}
