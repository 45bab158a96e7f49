package market

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

var (
	ErrProductNotFound   = kindErr(ErrNotFound, "product not found")
	ErrServiceNotFound   = kindErr(ErrNotFound, "service not found")
	ErrOrderNotFound     = kindErr(ErrNotFound, "order not found")
	ErrBookingNotFound   = kindErr(ErrNotFound, "booking not found")
	ErrPaymentNotFound   = kindErr(ErrNotFound, "payment not found")
	ErrReferenceNotFound = kindErr(ErrNotFound, "referenced record not found")

	ErrInsufficientStock = kindErr(ErrConflict, "insufficient stock")
	ErrIllegalTransition = kindErr(ErrConflict, "illegal status transition")
	ErrAmountMismatch    = kindErr(ErrConflict, "amount does not match referenced total")
	ErrConcurrentUpdate  = kindErr(ErrConflict, "concurrent update, retry")
	ErrConstraint        = kindErr(ErrConflict, "constraint violation")
	ErrOutOfRange        = kindErr(ErrValidation, "value out of range")
	ErrDuplicate         = kindErr(ErrConflict, "duplicate record")

	ErrInvalidStatus        = kindErr(ErrValidation, "invalid status")
	ErrInvalidPaymentMethod = kindErr(ErrValidation, "invalid payment_method")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func kindErr(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StorageErr wraps a driver error so callers only see ErrStorage.
func StorageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsBusiness reports whether err is a client-caused failure rather than a storage fault.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
