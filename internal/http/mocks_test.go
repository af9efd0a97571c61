package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/auth"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/metrics"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testJWTSecret = "test-jwt-secret"

type ProductListerMock struct {
	products []domain.Product
	err      error
}

func (m *ProductListerMock) ListProducts(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

type CartManagerMock struct {
	cart       *domain.Cart
	line       *domain.CartLine
	removed    bool
	err        error
	lastUser   int64
	lastProdID int64
	lastQty    int
	lastLineID int64
}

func (m *CartManagerMock) ListCart(_ context.Context, userID int64) (*domain.Cart, error) {
	m.lastUser = userID
	return m.cart, m.err
}

func (m *CartManagerMock) AddItem(_ context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	m.lastUser, m.lastProdID, m.lastQty = userID, productID, quantity
	return m.line, m.err
}

func (m *CartManagerMock) DecreaseItem(_ context.Context, userID, productID int64) (bool, error) {
	m.lastUser, m.lastProdID = userID, productID
	return m.removed, m.err
}

func (m *CartManagerMock) RemoveItem(_ context.Context, userID, lineID int64) error {
	m.lastUser, m.lastLineID = userID, lineID
	return m.err
}

type PaymentCreatorMock struct {
	order *service.PaymentOrder
	err   error
}

func (m *PaymentCreatorMock) CreateOrder(context.Context, int64) (*service.PaymentOrder, error) {
	return m.order, m.err
}

type CheckoutProcessorMock struct {
	result *service.CheckoutResult
	err    error
	got    *service.CheckoutRequest
}

func (m *CheckoutProcessorMock) VerifyAndCheckout(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.got = &req
	return m.result, m.err
}

type OrderListerMock struct {
	orders []domain.Order
	err    error
}

func (m *OrderListerMock) ListOrders(context.Context, int64) ([]domain.Order, error) {
	return m.orders, m.err
}

type PingerMock struct {
	err error
}

func (m PingerMock) Ping(context.Context) error {
	return m.err
}

var errBoom = errors.New("boom")

type testServer struct {
	products *ProductListerMock
	cart     *CartManagerMock
	payments *PaymentCreatorMock
	checkout *CheckoutProcessorMock
	orders   *OrderListerMock
	health   PingerMock
	handler  http.Handler
	auth     *auth.Authenticator
}

func newTestServer(t *testing.T, setup func(s *testServer)) *testServer {
	t.Helper()
	s := &testServer{
		products: &ProductListerMock{},
		cart:     &CartManagerMock{},
		payments: &PaymentCreatorMock{},
		checkout: &CheckoutProcessorMock{},
		orders:   &OrderListerMock{},
		auth:     auth.NewAuthenticator(testJWTSecret),
	}
	if setup != nil {
		setup(s)
	}

	logger := zaptest.NewLogger(t)
	s.handler = NewRouter(RouterConfig{
		Products:           NewProductHandler(s.products, logger),
		Cart:               NewCartHandler(s.cart, logger),
		Payment:            NewPaymentHandler(s.payments, s.checkout, logger),
		Orders:             NewOrdersHandler(s.orders, logger),
		Auth:               s.auth,
		Health:             s.health,
		Metrics:            metrics.New(),
		Logger:             logger,
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		token, err := s.auth.NewToken(userID, "shopper@example.com", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
