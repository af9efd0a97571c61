package http

import (
	"context"
	"net/http"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"go.uber.org/zap"
)

type OrderLister interface {
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
}

type OrdersHandler struct {
	orders OrderLister
	logger *zap.Logger
}

func NewOrdersHandler(orders OrderLister, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, logger: logger}
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		h.logger.Error("fetch order history failed", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Error fetching order history")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}
