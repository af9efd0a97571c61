package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/payment"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/service"
	"go.uber.org/zap"
)

type PaymentCreator interface {
	CreateOrder(ctx context.Context, userID int64) (*service.PaymentOrder, error)
}

type CheckoutProcessor interface {
	VerifyAndCheckout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

type PaymentHandler struct {
	payments PaymentCreator
	checkout CheckoutProcessor
	logger   *zap.Logger
}

func NewPaymentHandler(payments PaymentCreator, checkout CheckoutProcessor, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, checkout: checkout, logger: logger}
}

// VerifyPaymentRequestDTO accepts both the neutral field names and the ones the
// Razorpay checkout widget posts back.
type VerifyPaymentRequestDTO struct {
	OrderRef   string `json:"orderRef"`
	PaymentRef string `json:"paymentRef"`
	Signature  string `json:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (d VerifyPaymentRequestDTO) refs() (orderRef, paymentRef, signature string) {
	return firstNonEmpty(d.OrderRef, d.RazorpayOrderID),
		firstNonEmpty(d.PaymentRef, d.RazorpayPaymentID),
		firstNonEmpty(d.Signature, d.RazorpaySignature)
}

type VerifyPaymentResponseDTO struct {
	Message   string `json:"message"`
	PaymentID string `json:"paymentId"`
	OrderID   int64  `json:"orderId"`
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), userID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, order)
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "Cart is empty or total is zero")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		h.logger.Error("payment gateway unavailable", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "Error creating payment order")
	default:
		h.logger.Error("create payment order failed", zap.Int64("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Error creating payment order")
	}
}

// VerifyPayment handles the gateway callback: signature check, then the checkout transaction.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req VerifyPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	orderRef, paymentRef, signature := req.refs()
	if orderRef == "" || paymentRef == "" || signature == "" {
		respondError(w, http.StatusBadRequest, "missing_payment_details", "Missing payment details")
		return
	}

	res, err := h.checkout.VerifyAndCheckout(r.Context(), service.CheckoutRequest{
		UserID:     userID,
		OrderRef:   orderRef,
		PaymentRef: paymentRef,
		Signature:  signature,
	})
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, VerifyPaymentResponseDTO{
			Message:   "Payment verified successfully",
			PaymentID: paymentRef,
			OrderID:   res.OrderID,
		})
	case errors.Is(err, domain.ErrPaymentVerificationFailed):
		respondError(w, http.StatusBadRequest, "payment_verification_failed", "Payment verification failed")
	default:
		// Details stay in the service log; the client only learns that fulfilment failed.
		respondError(w, http.StatusInternalServerError, "checkout_failed", "Error processing order after payment")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
