package domain

import "errors"

var (
	ErrSaleNotFound            = errors.New("credit sale not found")
	ErrCustomerNotFound        = errors.New("customer has no credit account")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrInvalidLimit            = errors.New("credit limit must not be negative")
	ErrInvalidMethod           = errors.New("invalid payment method")
	ErrAmountExceedsPending    = errors.New("amount exceeds pending balance")
	ErrSaleAlreadySettled      = errors.New("credit sale already settled")
	ErrCreditLimitExceeded     = errors.New("credit limit exceeded")
	ErrVersionConflict         = errors.New("optimistic lock conflict")
	ErrConcurrentModification  = errors.New("concurrent modification, retry the operation")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	ErrMissingIdempotencyKey   = errors.New("idempotency key is required")
	// ErrDebtUnderflow signals that a debt decrement would have driven the
	// aggregate below zero. The registry clamps to zero instead; the error
	// exists so the breach is logged and counted, never silently ignored.
	ErrDebtUnderflow = errors.New("debt adjustment underflow, clamped to zero")
)
