package http

import (
	"context"
	"net/http"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"go.uber.org/zap"
)

type ProductLister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type ProductHandler struct {
	catalog ProductLister
	logger  *zap.Logger
}

func NewProductHandler(catalog ProductLister, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// ListProducts serves the cached in-stock listing.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Error fetching products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}
