package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/waitline/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic and queue domain errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return &DomainError{
			Code:       "CAPACITY_EXCEEDED",
			Message:    "queue is at capacity",
			HTTPStatus: http.StatusConflict,
			Err:        err,
		}
	case errors.Is(err, domain.ErrQueueClosed):
		return &DomainError{
			Code:       "QUEUE_CLOSED",
			Message:    "queue is not accepting new customers",
			HTTPStatus: http.StatusConflict,
			Err:        err,
		}
	case errors.Is(err, domain.ErrEntryNotFound):
		return &DomainError{
			Code:       "NOT_FOUND",
			Message:    "queue entry not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	case errors.Is(err, domain.ErrQueueNotFound):
		return &DomainError{
			Code:       "NOT_FOUND",
			Message:    "queue not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	case errors.Is(err, domain.ErrCodeGenerationExhausted):
		// Retryable: the caller should repeat the whole call operation.
		return &DomainError{
			Code:       "CODE_GENERATION_EXHAUSTED",
			Message:    "could not issue a unique verification code",
			HTTPStatus: http.StatusServiceUnavailable,
			Err:        err,
		}
	case errors.Is(err, pgx.ErrNoRows):
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}

	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
