// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
//
// Every error carries a stable machine code so checkout devices can branch
// without parsing human-readable messages.
package apierror

import (
	"errors"
	"net/http"
)

// Stable error codes.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeSessionNotActive = "SESSION_NOT_ACTIVE"
	CodeDebtNotPending   = "DEBT_NOT_PENDING"
	CodeShiftNotOpen     = "SHIFT_NOT_OPEN"
	CodeNoShiftOpen      = "NO_SHIFT_OPEN"
	CodeShiftAlreadyOpen = "SHIFT_ALREADY_OPEN"
	CodeShiftHasActivity = "SHIFT_HAS_ACTIVITY"
	CodeNoApplicableRule = "NO_APPLICABLE_RULE"
	CodeConflict         = "CONFLICT"
	CodePersistence      = "PERSISTENCE_ERROR"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string { return e.Detail }

func New(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

// NotFound marks an unknown session/shift/debt id. Surfaced as 404.
func NotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Detail: msg} }

// Conflict marks a state-machine violation (session not ACTIVE, debt not
// PENDING, shift already open, double settlement). Surfaced as 409 — exactly
// one of two concurrent attempts wins, the loser observes this error.
func Conflict(code, msg string) *APIError { return &APIError{Code: code, Detail: msg} }

// NoApplicableRule marks a matcher miss: no active pricing rule governs the
// given instant/duration and no tenant default tariff is configured.
func NoApplicableRule(msg string) *APIError {
	return &APIError{Code: CodeNoApplicableRule, Detail: msg}
}

// Persistence wraps a transaction/storage failure. The transaction has been
// rolled back; safe to retry.
func Persistence(msg string) *APIError { return &APIError{Code: CodePersistence, Detail: msg} }

// ExternalService marks a payment-provider failure. Session/debt state is left
// untouched; the callback may be retried.
func ExternalService(msg string) *APIError {
	return &APIError{Code: CodeExternalService, Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string { return e.Detail }

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: CodeValidation, Detail: "validation failed", Fields: fields}
}

// Status maps an error to its HTTP status code. Unknown errors are 500 —
// handlers never leak raw internals.
func Status(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case CodeValidation:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeNoApplicableRule, CodePersistence:
			return http.StatusInternalServerError
		case CodeExternalService:
			return http.StatusBadGateway
		default:
			// All remaining codes are state conflicts.
			return http.StatusConflict
		}
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
