package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart blocks checkout of a cart with zero items. Recovered
	// locally by the caller; no submission is attempted.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNoPaymentMethod blocks checkout without a selected payment method.
	ErrNoPaymentMethod = errors.New("no payment method selected")

	// ErrSubmitInProgress rejects a re-entrant Submit while a previous
	// attempt is still in flight.
	ErrSubmitInProgress = errors.New("order submission already in progress")
)

// SubmissionError reports a failed order submission. Retryable is true for
// server-side (5xx) and transport failures, false for client (4xx) rejections.
// Timeout distinguishes a deadline expiry so the caller can offer "retry"
// rather than "review and resubmit".
type SubmissionError struct {
	StatusCode int
	Retryable  bool
	Timeout    bool
	Err        error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("order submission timed out: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("order submission rejected with status %d", e.StatusCode)
	default:
		return fmt.Sprintf("order submission failed: %v", e.Err)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
