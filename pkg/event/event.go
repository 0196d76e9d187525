// Package event defines the events published by the catalog write side and
// consumed by read-side projections.
package event

import "fmt"

// Kind is the declared kind of an event. Its string value travels as the
// envelope's eventType and is what consumers dispatch on, so the values
// below must never change.
type Kind string

const (
	KindProductCreated Kind = "ProductCreatedEvent"
	KindProductUpdated Kind = "ProductUpdatedEvent"
)

// Kinds lists every event kind produced by the catalog.
func Kinds() []Kind {
	return []Kind{KindProductCreated, KindProductUpdated}
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	return string(k)
}

// ParseKind resolves a wire name to a known kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind: %s", name)
}

// Event is implemented by every event that can be published.
type Event interface {
	// EventKind returns the declared kind used as the envelope eventType.
	EventKind() Kind
	// AggregateID identifies the entity the event belongs to.
	// Transports use it as the partition/session key.
	AggregateID() string
}
