package kafka

import (
	"context"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/health"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const componentName = "kafka"

// NewKafkaModule provides Config, *Transport and channel.Transport. On start
// it waits for the topic; a missing topic fails startup only when
// kafka.fail-on-topic-error is set.
func NewKafkaModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			provideTransport,
			func(t *Transport) channel.Transport { return t },
		),
	)
}

func provideTransport(lc fx.Lifecycle, cfg Config, log *zap.Logger, readiness health.ComponentManager) *Transport {
	t := NewTransport(cfg, log)
	markReady := readiness.AddComponent(componentName)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := t.checkTopic(ctx); err != nil {
				if cfg.FailOnTopicError {
					return err
				}
				t.log.Warn("topic verification failed, continuing anyway", zap.Error(err))
			}
			markReady()
			return nil
		},
	})
	return t
}

func (t *Transport) checkTopic(ctx context.Context) error {
	if t.cfg.ReadinessTimeout <= 0 {
		return nil
	}
	p, err := confluent.NewProducer(t.producerConfig())
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(ctx, t.cfg.ReadinessTimeout)
	defer cancel()
	return waitForTopic(ctx, p, t.cfg.Topic, t.log)
}
