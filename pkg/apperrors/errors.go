package apperrors

import (
	"errors"
	"net/http"
)

// Error kinds exposed by the core. Transition failures deliberately conflate
// "order not found" and "order in the wrong state" into one kind: callers of
// pick-up/delivered cannot tell the two apart.
var (
	ErrValidation    = errors.New("validation failed")
	ErrStateConflict = errors.New("invalid order state")
	ErrIntegrity     = errors.New("integrity violation")
	ErrUnauthorized  = errors.New("unauthorized")
)

// AppError is a structured application error carrying the message returned
// to the client and the HTTP status the handler layer should use.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation creates a validation error. These are always reported before
// any persistence happens.
func NewValidation(message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, StatusCode: http.StatusBadRequest}
}

// NewStateConflict creates the conflated invalid-order-id error used for
// illegal status transitions.
func NewStateConflict(message string) *AppError {
	return &AppError{Err: ErrStateConflict, Message: message, StatusCode: http.StatusBadRequest}
}

// NewIntegrity creates an error for writes rejected by the store. The
// enclosing transaction has been rolled back by the time this is returned.
func NewIntegrity(message string) *AppError {
	return &AppError{Err: ErrIntegrity, Message: message, StatusCode: http.StatusInternalServerError}
}

// NewUnauthorized creates an authentication/authorization failure.
func NewUnauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message, StatusCode: http.StatusUnauthorized}
}

// StatusCode extracts the HTTP status for err, defaulting to 500.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
