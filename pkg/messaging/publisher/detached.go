package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"go.uber.org/zap"
)

// Detached publishes in the background. Callers never see the outcome;
// failures are logged and not retried.
type Detached struct {
	publisher EventPublisher
	timeout   time.Duration
	log       *zap.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewDetached(publisher EventPublisher, timeout time.Duration, log *zap.Logger) *Detached {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Detached{
		publisher: publisher,
		timeout:   timeout,
		log:       log.With(zap.String("component", "detached-publisher")),
	}
}

// Go schedules e for publishing and returns immediately. The task keeps the
// values of ctx (trace context) but not its cancellation. Events scheduled
// after Wait has started are logged and dropped.
func (d *Detached) Go(ctx context.Context, e event.Event) {
	if e == nil {
		d.log.Error("refusing to publish nil event")
		return
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.log.Warn("detached publisher stopped, dropping event",
			zap.String("eventType", string(e.EventKind())),
			zap.String("aggregateId", e.AggregateID()),
		)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("detached publish panicked",
					zap.String("eventType", string(e.EventKind())),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.publisher.Publish(ctx, e); err != nil {
			d.log.Error("detached publish failed",
				zap.String("eventType", string(e.EventKind())),
				zap.String("aggregateId", e.AggregateID()),
				zap.Error(err),
			)
		}
	}()
}

// Wait stops accepting new tasks and blocks until every scheduled task has
// finished or ctx is done.
func (d *Detached) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.log.Warn("detached publishes still running at shutdown")
		return ctx.Err()
	}
}
