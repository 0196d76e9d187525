package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Outcome is what applying an event did to the store.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeStale    Outcome = "stale"
)

// RetryConfig bounds the re-read and retry loop on write conflicts.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		MaxRetries:      5,
	}
}

// Projector applies product events to a Store. Applying the same event
// twice, or an older event after a newer one, leaves the record unchanged.
type Projector struct {
	store Store
	retry RetryConfig
	log   *zap.Logger
}

func NewProjector(store Store, retry RetryConfig, log *zap.Logger) *Projector {
	return &Projector{
		store: store,
		retry: retry,
		log:   log.With(zap.String("component", "projector")),
	}
}

// ApplyCreated inserts the product, or overwrites an existing record when the
// event carries a strictly newer version.
func (p *Projector) ApplyCreated(ctx context.Context, e event.ProductCreated) (Outcome, error) {
	rec := Record{ID: e.ID, Name: e.Name, Price: e.Price, VersionToken: e.VersionToken.Clone()}

	return p.withConflictRetry(ctx, rec, func() (Outcome, error) {
		current, err := p.store.FindByID(ctx, rec.ID)
		if errors.Is(err, ErrNotFound) {
			return p.insert(ctx, rec)
		}
		if err != nil {
			return "", backoff.Permanent(err)
		}
		return p.replaceIfNewer(ctx, current, rec)
	})
}

// ApplyUpdated replaces the record when the event is newer. A missing record
// yields ErrProjectionNotFound.
func (p *Projector) ApplyUpdated(ctx context.Context, e event.ProductUpdated) (Outcome, error) {
	rec := Record{ID: e.ID, Name: e.Name, Price: e.Price, VersionToken: e.VersionToken.Clone()}

	return p.withConflictRetry(ctx, rec, func() (Outcome, error) {
		current, err := p.store.FindByID(ctx, rec.ID)
		if errors.Is(err, ErrNotFound) {
			return "", backoff.Permanent(fmt.Errorf("%w: product %d", ErrProjectionNotFound, rec.ID))
		}
		if err != nil {
			return "", backoff.Permanent(err)
		}
		return p.replaceIfNewer(ctx, current, rec)
	})
}

func (p *Projector) insert(ctx context.Context, rec Record) (Outcome, error) {
	err := p.store.Insert(ctx, rec)
	switch {
	case err == nil:
		return OutcomeInserted, nil
	case errors.Is(err, ErrAlreadyExists):
		// a concurrent create won; re-read and compare versions
		return "", err
	default:
		return "", backoff.Permanent(err)
	}
}

func (p *Projector) replaceIfNewer(ctx context.Context, current, rec Record) (Outcome, error) {
	if !rec.VersionToken.Newer(current.VersionToken) {
		p.log.Debug("ignoring stale event",
			zap.Int("productId", rec.ID),
			zap.Stringer("incomingVersion", rec.VersionToken),
			zap.Stringer("storedVersion", current.VersionToken),
		)
		return OutcomeStale, nil
	}

	err := p.store.Update(ctx, rec, current.VersionToken)
	switch {
	case err == nil:
		return OutcomeUpdated, nil
	case errors.Is(err, ErrConcurrencyConflict), errors.Is(err, ErrNotFound):
		return "", err
	default:
		return "", backoff.Permanent(err)
	}
}

func (p *Projector) withConflictRetry(ctx context.Context, rec Record, op func() (Outcome, error)) (Outcome, error) {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.retry.InitialInterval),
		backoff.WithMaxInterval(p.retry.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	)

	return backoff.RetryNotifyWithData(op,
		backoff.WithContext(backoff.WithMaxRetries(b, p.retry.MaxRetries), ctx),
		func(err error, wait time.Duration) {
			p.log.Debug("write conflict, retrying",
				zap.Int("productId", rec.ID),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	)
}
