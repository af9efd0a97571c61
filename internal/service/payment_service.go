package service

import (
	"context"
	"fmt"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/clock"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var minorUnits = decimal.NewFromInt(100)

type CartTotaler interface {
	CartTotal(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.GatewayOrder, error)
	KeyID() string
}

// PaymentOrder is what the storefront needs to open the gateway checkout widget.
type PaymentOrder struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
	KeyID   string `json:"keyId"`
}

type PaymentService struct {
	carts    CartTotaler
	gateway  PaymentGateway
	currency string
	clock    clock.Clock
	logger   *zap.Logger
}

func NewPaymentService(carts CartTotaler, gateway PaymentGateway, currency string, clk clock.Clock, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		carts:    carts,
		gateway:  gateway,
		currency: currency,
		clock:    clk,
		logger:   logger,
	}
}

// CreateOrder opens a gateway order for the current cart total.
func (s *PaymentService) CreateOrder(ctx context.Context, userID int64) (*PaymentOrder, error) {
	total, err := s.carts.CartTotal(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	if !total.IsPositive() {
		return nil, domain.ErrEmptyCart
	}

	req := payment.OrderRequest{
		Amount:   total.Mul(minorUnits).Round(0).IntPart(),
		Currency: s.currency,
		Receipt:  fmt.Sprintf("receipt_order_%d_%d", userID, s.clock.Now().UnixMilli()),
	}

	order, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		s.logger.Error("create gateway order failed",
			zap.Int64("user_id", userID),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	return &PaymentOrder{
		OrderID: order.ID,
		Amount:  order.Amount,
		KeyID:   s.gateway.KeyID(),
	}, nil
}
