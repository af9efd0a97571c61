package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/clock"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultCheckoutTxTimeout = 10 * time.Second

type SignatureVerifier interface {
	Verify(orderRef, paymentRef, signature string) bool
}

// CacheInvalidator is notified after every committed checkout.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type CheckoutRequest struct {
	UserID     int64
	OrderRef   string
	PaymentRef string
	Signature  string
}

type CheckoutResult struct {
	OrderID    int64
	PaymentRef string
	Total      decimal.Decimal
	Lines      []domain.OrderLine
}

type CheckoutService struct {
	store     CheckoutStore
	verifier  SignatureVerifier
	catalog   CacheInvalidator
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *zap.Logger
	txTimeout time.Duration
}

func NewCheckoutService(
	store CheckoutStore,
	verifier SignatureVerifier,
	catalog CacheInvalidator,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
	txTimeout time.Duration,
) *CheckoutService {
	if txTimeout <= 0 {
		txTimeout = defaultCheckoutTxTimeout
	}
	return &CheckoutService{
		store:     store,
		verifier:  verifier,
		catalog:   catalog,
		clock:     clk,
		metrics:   m,
		logger:    logger,
		txTimeout: txTimeout,
	}
}

// VerifyAndCheckout authenticates the gateway callback and, in one transaction, converts
// the user's cart into an order: stock is decremented, the order and its lines are written,
// the cart is emptied and an order.placed event is queued. Any failure leaves no trace.
//
// Replaying an already fulfilled payment is not detected; if the cart was refilled in the
// meantime a second order is placed.
func (s *CheckoutService) VerifyAndCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	started := time.Now()

	if !s.verifier.Verify(req.OrderRef, req.PaymentRef, req.Signature) {
		s.metrics.ObserveCheckout(metrics.OutcomeUnverified, time.Since(started))
		s.logger.Warn("payment signature rejected",
			zap.Int64("user_id", req.UserID),
			zap.String("order_ref", req.OrderRef),
			zap.String("payment_ref", req.PaymentRef))
		return nil, domain.ErrPaymentVerificationFailed
	}

	// A verified payment must not be abandoned because the client went away.
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.txTimeout)
	defer cancel()

	var result *CheckoutResult
	err := s.store.WithTx(txCtx, func(ctx context.Context) error {
		r, err := s.fulfil(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	if err != nil {
		outcome := metrics.OutcomeStorageFault
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			outcome = metrics.OutcomeEmptyCart
		case errors.Is(err, domain.ErrInsufficientStock):
			outcome = metrics.OutcomeInsufficient
		default:
			err = classify(err)
		}
		s.metrics.ObserveCheckout(outcome, time.Since(started))
		s.logger.Error("checkout transaction rolled back",
			zap.Int64("user_id", req.UserID),
			zap.String("order_ref", req.OrderRef),
			zap.String("payment_ref", req.PaymentRef),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveCheckout(metrics.OutcomeCommitted, time.Since(started))
	s.logger.Info("order placed",
		zap.Int64("user_id", req.UserID),
		zap.Int64("order_id", result.OrderID),
		zap.String("payment_ref", req.PaymentRef),
		zap.String("total", result.Total.StringFixed(2)))

	if err := s.catalog.Invalidate(txCtx); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
	return result, nil
}

func (s *CheckoutService) fulfil(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	lines, err := s.store.ListCartLines(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Lock rows in product order so concurrent checkouts do not deadlock.
	byProduct := slices.Clone(lines)
	slices.SortFunc(byProduct, func(a, b domain.CartLine) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	for _, l := range byProduct {
		ok, err := s.store.DecrementStock(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: product %d", domain.ErrInsufficientStock, l.ProductID)
		}
	}

	order := &domain.Order{
		UserID:         req.UserID,
		TotalAmount:    domain.SumLines(lines),
		GatewayOrderID: req.OrderRef,
		PaymentRef:     req.PaymentRef,
		CreatedAt:      s.clock.Now(),
		Lines:          domain.NewOrderLines(lines),
	}

	order.ID, err = s.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := s.store.CreateOrderLines(ctx, order.ID, order.Lines); err != nil {
		return nil, fmt.Errorf("create order lines: %w", err)
	}
	if _, err := s.store.ClearCart(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	payload, err := json.Marshal(domain.OrderPlacedPayload{
		OrderID:        order.ID,
		UserID:         order.UserID,
		TotalAmount:    order.TotalAmount.StringFixed(2),
		GatewayOrderID: order.GatewayOrderID,
		PaymentRef:     order.PaymentRef,
		Items:          order.Lines,
		PlacedAt:       order.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order placed event: %w", err)
	}
	if err := s.store.InsertOutboxEvent(ctx, strconv.FormatInt(order.ID, 10), domain.EventTypeOrderPlaced, payload); err != nil {
		return nil, fmt.Errorf("enqueue order placed event: %w", err)
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}
	return &CheckoutResult{
		OrderID:    order.ID,
		PaymentRef: order.PaymentRef,
		Total:      order.TotalAmount,
		Lines:      order.Lines,
	}, nil
}
