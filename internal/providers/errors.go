package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout is returned when an inference request exceeds its timeout.
var ErrTimeout = errors.New("inference request timed out")

// TransportError reports a failed exchange with the inference endpoint:
// the connection could not be made or the endpoint answered non-2xx.
type TransportError struct {
	StatusCode int    // 0 when no response was received
	Message    string // Response body or connection error text
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a timeout or transport error, the two
// failure kinds worth one more attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te)
}

// IsTransportError checks if an error is a TransportError and returns it.
func IsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// classifyError maps a failed request onto the client error taxonomy.
// parent is the caller's context; a cancellation there is returned as-is
// so it is never mistaken for a transient failure.
func classifyError(parent, call context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return &TransportError{Message: err.Error(), Err: err}
}
