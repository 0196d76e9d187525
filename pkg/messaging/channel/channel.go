// Package channel is the transport-neutral view of a message broker: senders
// that publish messages and receivers that hand out deliveries which must be
// completed or abandoned explicitly.
package channel

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed sender or receiver.
var ErrClosed = errors.New("channel closed")

// Message is what travels through a transport.
type Message struct {
	ID          string
	Key         string
	ContentType string
	Headers     map[string]string
	Body        []byte
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	c := m
	if m.Headers != nil {
		c.Headers = make(map[string]string, len(m.Headers))
		for k, v := range m.Headers {
			c.Headers[k] = v
		}
	}
	if m.Body != nil {
		c.Body = append([]byte(nil), m.Body...)
	}
	return c
}

// Delivery is a received message awaiting settlement. Exactly one of
// Complete or Abandon takes effect; later calls are ignored.
type Delivery interface {
	Message() Message
	// DeliveryCount is 1 on the first delivery and grows on every redelivery.
	DeliveryCount() int
	// Complete acknowledges the message; it will not be delivered again.
	Complete(ctx context.Context) error
	// Abandon releases the message for redelivery.
	Abandon(ctx context.Context, reason error) error
}

// Receiver hands out deliveries. Receive blocks until a message is
// available, ctx is done or the transport fails with a *TransportError.
type Receiver interface {
	Receive(ctx context.Context) (Delivery, error)
	Close() error
}

// Sender publishes messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

type ReceiverOptions struct {
	// PrefetchCount is the number of messages fetched ahead of Receive calls.
	PrefetchCount int
}

// Transport opens senders and receivers bound to one entity.
type Transport interface {
	OpenSender(ctx context.Context) (Sender, error)
	OpenReceiver(ctx context.Context, opts ReceiverOptions) (Receiver, error)
	Endpoint() Endpoint
}

// Endpoint identifies where a transport points: the broker namespace
// (Kafka bootstrap servers) and the entity (topic or queue).
type Endpoint struct {
	Namespace string
	Entity    string
}

// DeadLetter describes a message moved aside after exhausting its deliveries.
type DeadLetter struct {
	Message       Message
	Reason        string
	DeliveryCount int
	At            time.Time
}
