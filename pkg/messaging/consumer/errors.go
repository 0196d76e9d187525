package consumer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEventType is returned by Dispatch for an eventType without a
	// handler. The message is acknowledged and dropped.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrMissingHandler is returned by NewDispatcher when an expected event
	// kind has no handler.
	ErrMissingHandler = errors.New("missing handler")
)

// PanicError is a panic recovered from a handler.
type PanicError struct {
	Panic any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Panic)
}
