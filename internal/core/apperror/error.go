// Package apperror provides structured error handling for the API.
// All business errors must use AppError for consistent responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal          = "INTERNAL_ERROR"
	CodeDatabase          = "DATABASE_ERROR"
	CodeNumberExhausted   = "NUMBER_ALLOCATION_EXHAUSTED"
	CodeDependencyFailure = "DEPENDENCY_FAILURE"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeEmptyCart           = "EMPTY_CART"
	CodeInvalidDiscount     = "INVALID_DISCOUNT"
	CodeInsufficientPayment = "INSUFFICIENT_PAYMENT"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeProductInactive     = "PRODUCT_INACTIVE"
	CodeInvalidTaxID        = "INVALID_TAX_ID"
	CodeSaleAlreadyVoided   = "SALE_ALREADY_VOIDED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the service.
// It implements the error interface and provides structured details
// for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (product ids, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock creates a stock shortage error naming the product,
// the available quantity and the requested quantity.
func NewInsufficientStock(productID string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewNumberExhausted signals that document number allocation ran out of
// retries. Surfaces as a server error: it indicates systemic contention,
// not a caller mistake.
func NewNumberExhausted(prefix string, attempts int) *AppError {
	return &AppError{
		Code:       CodeNumberExhausted,
		Message:    "Could not allocate a document number",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"prefix": prefix, "attempts": attempts},
	}
}

// NewDependencyFailure wraps a failure of an external collaborator
// (receipt rendering, email delivery). Callers log and swallow these.
func NewDependencyFailure(dependency string, err error) *AppError {
	return &AppError{
		Code:       CodeDependencyFailure,
		Message:    fmt.Sprintf("%s failed", dependency),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"dependency": dependency},
		Err:        err,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another transaction. Please retry.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsCode checks if error carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
