package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
// Validation errors are never retried automatically; the caller must fix the input.
var ErrValidation = errors.New("validation error")

// ErrConflict indicates the operation conflicts with existing state (e.g. a second disposition).
var ErrConflict = errors.New("conflict")

// ErrCalculation indicates an internal arithmetic precondition was violated.
// It is a defect, not a user error, and aborts the operation.
var ErrCalculation = errors.New("calculation error")

// ErrStore indicates an I/O failure in the ledger store. The whole reconcile/dispose call is safe to retry.
var ErrStore = errors.New("store error")

// AppError carries an HTTP-ish status code and an underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match AppErrors against the taxonomy sentinels by code.
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrStore:
		return e.Code >= http.StatusInternalServerError
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrConflict:
		return e.Code == http.StatusConflict
	}
	return false
}

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewStoreError wraps a repository failure.
func NewStoreError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// NewNotFoundError builds a not-found AppError.
func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, nil)
}

// NewConflictError builds a conflict AppError.
func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, nil)
}

// CalculationError reports a violated arithmetic invariant with enough context to debug it.
type CalculationError struct {
	AssetID string
	Period  string
	Reason  string
}

func (e *CalculationError) Error() string {
	msg := "calculation error"
	if e.AssetID != "" {
		msg += " for asset " + e.AssetID
	}
	if e.Period != "" {
		msg += " in period " + e.Period
	}
	return msg + ": " + e.Reason
}

func (e *CalculationError) Is(target error) bool {
	return target == ErrCalculation
}

// NewCalculationError builds a CalculationError.
func NewCalculationError(assetID, period, reason string) *CalculationError {
	return &CalculationError{AssetID: assetID, Period: period, Reason: reason}
}

// HTTPStatus maps an error from the core to a response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrCalculation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
