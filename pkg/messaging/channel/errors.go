package channel

import (
	"context"
	"errors"
	"fmt"
)

// Reason classifies a transport fault.
type Reason string

const (
	ReasonTimeout          Reason = "timeout"
	ReasonBrokerConnection Reason = "broker_connection"
	ReasonEntityNotFound   Reason = "entity_not_found"
	ReasonThrottled        Reason = "throttled"
	ReasonFatal            Reason = "fatal"
	ReasonOther            Reason = "other"
)

// TransportError is a fault of the broker connection, as opposed to a
// problem with a single message.
type TransportError struct {
	Reason   Reason
	Endpoint Endpoint
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s) on %s/%s: %v", e.Reason, e.Endpoint.Namespace, e.Endpoint.Entity, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same operation may succeed.
func (e *TransportError) Temporary() bool {
	switch e.Reason {
	case ReasonTimeout, ReasonBrokerConnection, ReasonEntityNotFound, ReasonThrottled:
		return true
	}
	return false
}

// AsTransportError wraps err in a *TransportError unless it already is one.
// Context errors are returned as they are.
func AsTransportError(err error, reason Reason, endpoint Endpoint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Reason: reason, Endpoint: endpoint, Err: err}
}
