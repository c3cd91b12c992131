package service

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrConflict        = errors.New("order was modified concurrently, retry")
	ErrStore           = errors.New("record store failure")
	ErrAIParsingFailed = errors.New("could not parse model response")
	ErrAIUnavailable   = errors.New("ai assistant is not configured")
	ErrAIRequestFailed = errors.New("ai request failed")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidPayment  = errors.New("unsupported payment method")
	ErrSessionNotFound = errors.New("verification session not found or expired")
	ErrProductNotFound = errors.New("product not found")
	ErrBarcodeExists   = errors.New("barcode already exists")
	ErrOfferNotFound   = errors.New("offer not found")
)

// StoreError wraps an unexpected record-store failure with the operation
// that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// OutOfStockError names the product a cart line could not be filled from.
type OutOfStockError struct {
	ProductName string
	Remaining   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock (%d left)", e.ProductName, e.Remaining)
}

// ProductNotFoundError names the cart line whose product no longer exists.
type ProductNotFoundError struct {
	Item string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.Item)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }
