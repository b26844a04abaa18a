package circuitbreaker

import (
	"errors"
	"fmt"
	"time"
)

// CircuitOpenError is returned when the breaker is open, or when a half-open
// trial is already in flight. Callers should treat it as an immediate,
// retryable-later failure.
type CircuitOpenError struct {
	Service string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for service %q", e.Service)
}

// OperationTimeoutError is returned when the wrapped operation did not finish
// within the configured operation timeout. The operation's context is
// cancelled, but an operation that ignores its context keeps running; the
// breaker cannot forcibly stop it.
type OperationTimeoutError struct {
	Service string
	Timeout time.Duration
}

func (e *OperationTimeoutError) Error() string {
	return fmt.Sprintf("operation for service %q timed out after %s", e.Service, e.Timeout)
}

// IsCircuitOpen reports whether err is a breaker rejection.
func IsCircuitOpen(err error) bool {
	var target *CircuitOpenError
	return errors.As(err, &target)
}

// IsOperationTimeout reports whether err is a breaker-enforced timeout.
func IsOperationTimeout(err error) bool {
	var target *OperationTimeoutError
	return errors.As(err, &target)
}
