package domain

import "fmt"

// GatewayError wraps a failed gateway call. Transient failures (network
// errors, timeouts, 5xx) are eligible for a client-driven retry with a
// fresh idempotency key; everything else is terminal.
type GatewayError struct {
	Op        string
	Status    int
	Transient bool
	Err       error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s: status %d", e.Op, e.Status)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type VerificationReason string

const (
	ReasonSignatureMismatch VerificationReason = "signature-mismatch"
	ReasonOrderIDMismatch   VerificationReason = "order-id-mismatch"
)

// VerificationError means the callback failed authentication. Its
// reason is for logs only and never reaches the shopper.
type VerificationError struct {
	Reason VerificationReason
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("callback verification failed: %s", e.Reason)
}

// PersistenceError wraps a failed order commit. AfterCapture marks the
// severe class: the gateway has already captured money, so the shopper
// must never be told the payment failed.
type PersistenceError struct {
	AfterCapture bool
	Err          error
}

func (e *PersistenceError) Error() string {
	if e.AfterCapture {
		return fmt.Sprintf("order persistence failed after capture: %v", e.Err)
	}
	return fmt.Sprintf("order persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
