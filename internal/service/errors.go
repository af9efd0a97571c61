package service

import (
	"errors"
	"fmt"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/domain"
)

// ErrStorageFault marks infrastructure failures. The wrapped cause is for logs only.
var ErrStorageFault = errors.New("storage fault")

var domainErrors = []error{
	domain.ErrPaymentVerificationFailed,
	domain.ErrEmptyCart,
	domain.ErrInsufficientStock,
	domain.ErrNotEnoughStock,
	domain.ErrProductNotFound,
	domain.ErrCartLineNotFound,
	domain.ErrInvalidQuantity,
}

// classify passes domain errors through and wraps everything else as a storage fault.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	if errors.Is(err, ErrStorageFault) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageFault, err)
}
