// Package app composes the product synchronisation applications from the
// pkg modules.
package app

import (
	"errors"
	"fmt"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel/memory"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/consumer"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/kafka"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/publisher"
	"github.com/Sokol111/ecommerce-product-sync/pkg/observability"
	persistencemongo "github.com/Sokol111/ecommerce-product-sync/pkg/persistence/mongo"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection/mongostore"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const listenerName = "product-listener"

// ErrProcessLocal is returned when a one-shot command is configured with an
// in-memory transport or store that no other process can see.
var ErrProcessLocal = errors.New("in-memory backend is local to this process")

// Serve is the consumer application: the listener applying product events
// to the projection. Publishers share the transport, so a write side running
// in the same process can announce through *publisher.Detached.
func Serve(v *viper.Viper, opts ...core.Option) (fx.Option, error) {
	coreModule := base(v, opts)
	s, err := LoadSettings(v)
	if err != nil {
		return nil, err
	}
	return fx.Options(
		coreModule,
		transportModule(s),
		publisher.NewPublisherModule(),
		storeModule(s),
		fx.Provide(
			func(store projection.Store, log *zap.Logger) *projection.Projector {
				return projection.NewProjector(store, s.Retry, log)
			},
			NewDispatcher,
		),
		consumer.NewConsumerModule(listenerName),
	), nil
}

// Publishing provides publisher.EventPublisher over the configured transport.
// The in-memory transport is rejected: a one-shot process would drop every
// event it publishes on exit.
func Publishing(v *viper.Viper, opts ...core.Option) (fx.Option, error) {
	coreModule := base(v, opts)
	s, err := LoadSettings(v)
	if err != nil {
		return nil, err
	}
	if s.Transport == TransportMemory {
		return nil, fmt.Errorf("publishing needs a broker transport: %w", ErrProcessLocal)
	}
	return fx.Options(
		coreModule,
		transportModule(s),
		publisher.NewPublisherModule(),
	), nil
}

// Querying provides projection.Reader over the configured store. The
// in-memory store is rejected: a fresh process would always see it empty.
func Querying(v *viper.Viper, opts ...core.Option) (fx.Option, error) {
	coreModule := base(v, opts)
	s, err := LoadSettings(v)
	if err != nil {
		return nil, err
	}
	if s.Store == StoreMemory {
		return nil, fmt.Errorf("querying needs a persistent projection store: %w", ErrProcessLocal)
	}
	return fx.Options(
		coreModule,
		storeModule(s),
	), nil
}

// base must be built before settings are read: building the core module
// loads .env into the environment viper reads from.
func base(v *viper.Viper, opts []core.Option) fx.Option {
	opts = append(append([]core.Option(nil), opts...), core.WithViper(v))
	return fx.Options(
		core.NewCoreModule(opts...),
		observability.NewObservabilityModule(),
	)
}

func transportModule(s Settings) fx.Option {
	if s.Transport == TransportKafka {
		return kafka.NewKafkaModule()
	}
	return fx.Provide(
		func(lc fx.Lifecycle, log *zap.Logger) *memory.Queue {
			q := memory.NewQueue(s.Memory.Entity,
				memory.WithMaxDeliveryCount(s.Memory.MaxDeliveryCount),
				memory.WithRedeliveryDelay(s.Memory.RedeliveryDelay),
			)
			log.Info("using in-memory transport", zap.String("entity", s.Memory.Entity))
			lc.Append(fx.StopHook(q.Close))
			return q
		},
		func(q *memory.Queue) channel.Transport { return q },
	)
}

func storeModule(s Settings) fx.Option {
	if s.Store == StoreMongo {
		return fx.Options(
			persistencemongo.NewMongoModule(nil),
			fx.Provide(
				func(lc fx.Lifecycle, m persistencemongo.Mongo) *mongostore.Store {
					store := mongostore.New(m.Collection(s.Collection))
					lc.Append(fx.Hook{OnStart: store.EnsureIndexes})
					return store
				},
				func(st *mongostore.Store) projection.Store { return st },
				func(st *mongostore.Store) projection.Reader { return st },
			),
		)
	}
	return fx.Provide(
		projection.NewMemoryStore,
		func(st *projection.MemoryStore) projection.Store { return st },
		func(st *projection.MemoryStore) projection.Reader { return st },
	)
}

