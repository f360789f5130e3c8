package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/spec-kit/waitline/internal/domain"
)

func TestToDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrCapacityExceeded, "CAPACITY_EXCEEDED", http.StatusConflict},
		{domain.ErrQueueClosed, "QUEUE_CLOSED", http.StatusConflict},
		{domain.ErrEntryNotFound, "NOT_FOUND", http.StatusNotFound},
		{domain.ErrQueueNotFound, "NOT_FOUND", http.StatusNotFound},
		{domain.ErrCodeGenerationExhausted, "CODE_GENERATION_EXHAUSTED", http.StatusServiceUnavailable},
		{errors.New("anything else"), "INTERNAL_ERROR", http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", domain.ErrCapacityExceeded), "CAPACITY_EXCEEDED", http.StatusConflict},
	}

	for _, tt := range cases {
		got := ToDomainError(tt.err)
		if got.Code != tt.code || got.HTTPStatus != tt.status {
			t.Fatalf("ToDomainError(%v) = %s/%d, want %s/%d", tt.err, got.Code, got.HTTPStatus, tt.code, tt.status)
		}
	}
}

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewValidationError("bad payload", nil)
	got := ToDomainError(original)
	if got.Code != "VALIDATION_FAILED" || got.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("existing DomainError rewrapped: %+v", got)
	}
}
