package service

import (
	"context"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/shopspring/decimal"
)

// TxRunner runs fn in one transaction carried by the context passed to fn.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CartStore interface {
	ListCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	GetCartQuantity(ctx context.Context, userID, productID int64) (int, error)
	UpsertCartLine(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error)
	DecreaseCartLine(ctx context.Context, userID, productID int64) (bool, error)
	DeleteCartLine(ctx context.Context, userID, lineID int64) error
	ClearCart(ctx context.Context, userID int64) (int64, error)
	CartTotal(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type OutboxStore interface {
	InsertOutboxEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error
}

// CheckoutStore is everything the checkout transaction touches.
type CheckoutStore interface {
	TxRunner
	ListCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	CreateOrder(ctx context.Context, order *domain.Order) (int64, error)
	CreateOrderLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error
	ClearCart(ctx context.Context, userID int64) (int64, error)
	OutboxStore
}
