package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartManager interface {
	ListCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error)
	DecreaseItem(ctx context.Context, userID, productID int64) (bool, error)
	RemoveItem(ctx context.Context, userID, lineID int64) error
}

type CartHandler struct {
	carts  CartManager
	logger *zap.Logger
}

func NewCartHandler(carts CartManager, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type DecreaseItemRequestDTO struct {
	ProductID int64 `json:"productId"`
}

type CartResponseDTO struct {
	Items []domain.CartLine `json:"items"`
	Total string            `json:"total"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.ListCart(r.Context(), userID)
	if err != nil {
		h.logger.Error("fetch cart failed", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Error fetching cart")
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items: cart.Lines,
		Total: cart.Total().StringFixed(2),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 || req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_argument", "Invalid product or quantity")
		return
	}

	line, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, line)
	case errors.Is(err, domain.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Product not found")
	case errors.Is(err, domain.ErrNotEnoughStock):
		respondError(w, http.StatusBadRequest, "not_enough_stock", "Not enough stock")
	case errors.Is(err, domain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_argument", "Invalid product or quantity")
	default:
		h.logger.Error("add to cart failed", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Error adding to cart")
	}
}

func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req DecreaseItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "productId is required")
		return
	}

	removed, err := h.carts.DecreaseItem(r.Context(), userID, req.ProductID)
	switch {
	case err == nil && removed:
		respondMessage(w, http.StatusOK, "Item removed from cart")
	case err == nil:
		respondMessage(w, http.StatusOK, "Quantity decreased")
	case errors.Is(err, domain.ErrCartLineNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Item not in cart")
	default:
		h.logger.Error("decrease quantity failed", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Error decreasing quantity")
	}
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	lineID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil || lineID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "itemId must be a positive integer")
		return
	}

	err = h.carts.RemoveItem(r.Context(), userID, lineID)
	switch {
	case err == nil:
		respondMessage(w, http.StatusOK, "Item removed from cart")
	case errors.Is(err, domain.ErrCartLineNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Cart item not found or not owned by user")
	default:
		h.logger.Error("remove from cart failed", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Error removing from cart")
	}
}
