// ABOUTME: Error taxonomy for calls to the structuring service.
// ABOUTME: Transient errors are retried; permanent errors degrade to fallback at once.

package inference

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured    = errors.New("inference service not configured")
	ErrRetriesExhausted = errors.New("inference retries exhausted")
	ErrEmptyResponse    = errors.New("no text returned from inference service")
)

// TransientError is a 429, a 5xx, or a transport failure.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("transient service error: %v", e.Err)
	}
	return fmt.Sprintf("transient service error: status %d", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a non-retryable rejection or a response that does not fit
// the schema. Status is zero for schema mismatches.
type PermanentError struct {
	Status int
	Body   string
	Err    error
}

func (e *PermanentError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("service error %d: %s", e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("invalid service response: %v", e.Err)
	default:
		return "invalid service response"
	}
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err would have been retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
