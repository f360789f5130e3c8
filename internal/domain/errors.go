package domain

import "errors"

// Sentinel errors surfaced by queue aggregate operations. The HTTP layer maps
// them onto client-correctable responses via pkg/util/errorutil.
var (
	ErrCapacityExceeded        = errors.New("queue capacity exceeded")
	ErrQueueClosed             = errors.New("queue not accepting customers")
	ErrEntryNotFound           = errors.New("queue entry not found")
	ErrQueueNotFound           = errors.New("queue not found")
	ErrCodeGenerationExhausted = errors.New("verification code generation exhausted")
)
