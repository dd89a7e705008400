package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidLimit          = &AppError{http.StatusBadRequest, "INVALID_LIMIT", "Credit limit must not be negative"}
	ErrInvalidMethod         = &AppError{http.StatusBadRequest, "INVALID_PAYMENT_METHOD", "Payment method must be cash, card, transfer, or other"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}

	ErrCreditLimitExceeded  = &AppError{http.StatusUnprocessableEntity, "CREDIT_LIMIT_EXCEEDED", "Credit limit exceeded"}
	ErrAmountExceedsPending = &AppError{http.StatusUnprocessableEntity, "AMOUNT_EXCEEDS_PENDING", "Amount exceeds the sale's pending balance"}
	ErrSaleAlreadySettled   = &AppError{http.StatusUnprocessableEntity, "SALE_ALREADY_SETTLED", "Credit sale is already fully paid"}

	ErrConcurrentModification = &AppError{http.StatusConflict, "CONCURRENT_MODIFICATION", "Resource was modified concurrently, please retry"}
)
