package publisher

import (
	"context"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewPublisherModule provides *Publisher, EventPublisher and *Detached.
// Detached tasks are drained when the application stops.
func NewPublisherModule() fx.Option {
	return fx.Options(
		fx.Provide(
			NewConfig,
			providePublisher,
			func(p *Publisher) EventPublisher { return p },
			provideDetached,
		),
	)
}

func providePublisher(cfg Config, transport channel.Transport, tp trace.TracerProvider, log *zap.Logger) (*Publisher, error) {
	codec, err := envelope.ForContentType(cfg.ContentType)
	if err != nil {
		return nil, err
	}
	return NewPublisher(transport, codec, tp, log), nil
}

func provideDetached(lc fx.Lifecycle, cfg Config, p EventPublisher, log *zap.Logger) *Detached {
	d := NewDetached(p, cfg.Timeout, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return d.Wait(ctx)
		},
	})
	return d
}
