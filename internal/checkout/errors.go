package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidOrder marks client input errors. The caller must fix the
	// request; retrying it unchanged cannot succeed.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrProductNotFound and ErrOutOfStock are the reasons carried by a
	// RejectionError.
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product out of stock")

	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

// ValidationError lists the request fields that failed validation. It
// unwraps to ErrInvalidOrder.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid order: %s", e.Reason)
	}
	return fmt.Sprintf("invalid order: %s (%s)", e.Reason, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrder
}

// RejectionError is a business rule rejection naming the offending line.
// It unwraps to its Reason.
type RejectionError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
	Reason      error
}

func (e *RejectionError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Reason, e.ProductName, e.ProductID)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.ProductID)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}
