package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
)

type sender struct {
	q      *Queue
	closed atomic.Bool
}

func (s *sender) Send(ctx context.Context, msg channel.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return channel.ErrClosed
	}
	return s.q.enqueue(msg)
}

func (s *sender) Close() error {
	s.closed.Store(true)
	return nil
}

type receiver struct {
	q        *Queue
	prefetch int

	mu     sync.Mutex
	buffer []*entry
	closed bool
	done   chan struct{}
}

func (r *receiver) Receive(ctx context.Context) (channel.Delivery, error) {
	for {
		if d, ok, err := r.next(); err != nil || ok {
			return d, err
		}

		leased, wake, err := r.q.lease(r.prefetch)
		if err != nil {
			return nil, err
		}
		if len(leased) > 0 {
			if !r.fill(leased) {
				r.q.release(leased)
				return nil, channel.ErrClosed
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.done:
			return nil, channel.ErrClosed
		case <-wake:
		}
	}
}

func (r *receiver) next() (channel.Delivery, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, channel.ErrClosed
	}
	if len(r.buffer) == 0 {
		return nil, false, nil
	}
	e := r.buffer[0]
	r.buffer = r.buffer[1:]

	r.q.mu.Lock()
	e.deliveries++
	d := &delivery{q: r.q, e: e, msg: e.msg.Clone(), count: e.deliveries}
	r.q.mu.Unlock()
	return d, true, nil
}

func (r *receiver) fill(leased []*entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.buffer = append(r.buffer, leased...)
	return true
}

// Close returns prefetched but unreceived messages to the queue.
func (r *receiver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	buffered := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	r.q.release(buffered)
	return nil
}

type delivery struct {
	q       *Queue
	e       *entry
	msg     channel.Message
	count   int
	settled atomic.Bool
}

func (d *delivery) Message() channel.Message { return d.msg }

func (d *delivery) DeliveryCount() int { return d.count }

func (d *delivery) Complete(context.Context) error {
	if d.settled.CompareAndSwap(false, true) {
		d.q.complete()
	}
	return nil
}

func (d *delivery) Abandon(_ context.Context, reason error) error {
	if d.settled.CompareAndSwap(false, true) {
		d.q.abandon(d.e, reason)
	}
	return nil
}
