package domain

import "errors"

var (
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrEmptyCart                 = errors.New("cart is empty, nothing to checkout")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrNotEnoughStock            = errors.New("not enough stock")
	ErrProductNotFound           = errors.New("product not found")
	ErrCartLineNotFound          = errors.New("cart item not found")
	ErrInvalidQuantity           = errors.New("invalid quantity")
)
