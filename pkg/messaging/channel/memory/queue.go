// Package memory is an in-process channel.Transport with at-least-once
// delivery, prefetch, delivery counting, delayed redelivery and a dead-letter
// list. It backs standalone mode and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
)

const (
	DefaultMaxDeliveryCount = 10
	namespace               = "memory"
)

type Option func(*Queue)

// WithMaxDeliveryCount sets how many deliveries a message gets before it is
// dead-lettered.
func WithMaxDeliveryCount(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxDeliveries = n
		}
	}
}

// WithRedeliveryDelay delays abandoned messages before they become
// receivable again.
func WithRedeliveryDelay(d time.Duration) Option {
	return func(q *Queue) { q.redeliveryDelay = d }
}

type entry struct {
	msg        channel.Message
	deliveries int
}

// Queue is a single entity. It implements channel.Transport.
type Queue struct {
	entity          string
	maxDeliveries   int
	redeliveryDelay time.Duration

	mu        sync.Mutex
	ready     []*entry
	inflight  int
	scheduled int
	dead      []channel.DeadLetter
	wake      chan struct{}
	closed    bool
}

func NewQueue(entity string, opts ...Option) *Queue {
	q := &Queue{
		entity:        entity,
		maxDeliveries: DefaultMaxDeliveryCount,
		wake:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) Endpoint() channel.Endpoint {
	return channel.Endpoint{Namespace: namespace, Entity: q.entity}
}

func (q *Queue) OpenSender(context.Context) (channel.Sender, error) {
	return &sender{q: q}, nil
}

func (q *Queue) OpenReceiver(_ context.Context, opts channel.ReceiverOptions) (channel.Receiver, error) {
	prefetch := opts.PrefetchCount
	if prefetch < 1 {
		prefetch = 1
	}
	return &receiver{q: q, prefetch: prefetch, done: make(chan struct{})}, nil
}

// Close stops the queue. Blocked receivers return channel.ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.broadcast()
	}
}

// DeadLetters returns the messages that exhausted their deliveries.
func (q *Queue) DeadLetters() []channel.DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]channel.DeadLetter(nil), q.dead...)
}

// Len returns the number of messages not yet completed or dead-lettered.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) + q.inflight + q.scheduled
}

// WaitIdle blocks until every message has been completed or dead-lettered.
func (q *Queue) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for q.Len() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("queue %s not idle (%d pending): %w", q.entity, q.Len(), ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

// broadcast wakes every waiting receiver. Callers hold q.mu.
func (q *Queue) broadcast() {
	close(q.wake)
	q.wake = make(chan struct{})
}

func (q *Queue) enqueue(msg channel.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return channel.ErrClosed
	}
	q.ready = append(q.ready, &entry{msg: msg.Clone()})
	q.broadcast()
	return nil
}

// lease moves up to n ready entries to the caller. When none are ready it
// returns the channel that is closed on the next state change.
func (q *Queue) lease(n int) ([]*entry, <-chan struct{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, nil, channel.ErrClosed
	}
	if len(q.ready) == 0 {
		return nil, q.wake, nil
	}
	if n > len(q.ready) {
		n = len(q.ready)
	}
	leased := append([]*entry(nil), q.ready[:n]...)
	q.ready = q.ready[n:]
	q.inflight += n
	return leased, nil, nil
}

// release returns leased but undelivered entries to the head of the queue.
func (q *Queue) release(entries []*entry) {
	if len(entries) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight -= len(entries)
	q.ready = append(append([]*entry(nil), entries...), q.ready...)
	q.broadcast()
}

func (q *Queue) complete() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
}

func (q *Queue) abandon(e *entry, reason error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--

	if e.deliveries >= q.maxDeliveries {
		dl := channel.DeadLetter{Message: e.msg, DeliveryCount: e.deliveries, At: time.Now()}
		if reason != nil {
			dl.Reason = reason.Error()
		}
		q.dead = append(q.dead, dl)
		return
	}

	if q.redeliveryDelay <= 0 {
		q.ready = append(q.ready, e)
		q.broadcast()
		return
	}

	q.scheduled++
	time.AfterFunc(q.redeliveryDelay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.scheduled--
		q.ready = append(q.ready, e)
		q.broadcast()
	})
}
