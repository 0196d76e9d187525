package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Listener runs the receive loop of one subscription.
type Listener struct {
	transport channel.Transport
	processor *processor
	errors    *TransportErrorHandler
	cfg       Config
	log       *zap.Logger
}

func NewListener(
	transport channel.Transport,
	dispatcher *Dispatcher,
	cfg Config,
	log *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := transport.Endpoint()
	log = log.With(
		zap.String("component", "consumer"),
		zap.String("namespace", endpoint.Namespace),
		zap.String("entity", endpoint.Entity),
	)

	results, err := newResultHandler(log, mp.Meter("productsync-consumer"))
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer metrics: %w", err)
	}

	return &Listener{
		transport: transport,
		processor: &processor{
			dispatcher: dispatcher,
			results:    results,
			tracer:     NewMessageTracer(tp, endpoint),
			timeout:    cfg.ProcessingTimeout,
			log:        log,
		},
		errors: NewTransportErrorHandler(endpoint, log, cfg),
		cfg:    cfg,
		log:    log,
	}, nil
}

// Run receives and processes messages until ctx is cancelled. Transport
// errors are logged and retried; they never end the loop. On return every
// in-flight message has been settled.
func (l *Listener) Run(ctx context.Context) error {
	l.log.Info("listener started",
		zap.Int("maxConcurrentCalls", l.cfg.MaxConcurrentCalls),
		zap.Int("prefetchCount", l.cfg.PrefetchCount),
	)
	defer l.log.Info("listener stopped")

	pause := l.newBackOff()
	sem := semaphore.NewWeighted(int64(l.cfg.MaxConcurrentCalls))
	var inflight sync.WaitGroup
	var receiver channel.Receiver
	defer func() {
		inflight.Wait()
		if receiver != nil {
			_ = receiver.Close()
		}
	}()

	for ctx.Err() == nil {
		if receiver == nil {
			r, err := l.transport.OpenReceiver(ctx, channel.ReceiverOptions{PrefetchCount: l.cfg.PrefetchCount})
			if err != nil {
				l.backOff(ctx, pause, err)
				continue
			}
			receiver = r
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return nil
		}

		d, err := receiver.Receive(ctx)
		if err != nil {
			sem.Release(1)
			if ctx.Err() != nil {
				return nil
			}
			if receiverBroken(err) {
				inflight.Wait()
				if !errors.Is(err, channel.ErrClosed) {
					if closeErr := receiver.Close(); closeErr != nil {
						l.log.Debug("failed to close broken receiver", zap.Error(closeErr))
					}
				}
				receiver = nil
			}
			l.backOff(ctx, pause, err)
			continue
		}
		pause.Reset()

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			defer sem.Release(1)
			l.processor.process(context.WithoutCancel(ctx), d)
		}()
	}
	return nil
}

// receiverBroken reports whether the receiver must be replaced before the
// next receive: it was closed, or it failed with a non-temporary fault.
func receiverBroken(err error) bool {
	if errors.Is(err, channel.ErrClosed) {
		return true
	}
	var te *channel.TransportError
	return errors.As(err, &te) && !te.Temporary()
}

func (l *Listener) backOff(ctx context.Context, b backoff.BackOff, err error) {
	l.errors.Handle(err)
	sleep(ctx, b.NextBackOff())
}

func (l *Listener) newBackOff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(l.cfg.ReceiveBackoff.Initial),
		backoff.WithMaxInterval(l.cfg.ReceiveBackoff.Max),
		backoff.WithMaxElapsedTime(0),
	)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
