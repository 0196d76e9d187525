package consumer

import (
	"github.com/Sokol111/ecommerce-product-sync/pkg/core/worker"
	"go.uber.org/fx"
)

// NewConsumerModule provides a *Listener for the channel.Transport and
// *Dispatcher in the graph and runs it as a worker once the application is
// ready.
func NewConsumerModule(name string) fx.Option {
	return fx.Module("consumer",
		fx.Provide(
			NewConfig,
			NewListener,
		),
		fx.Invoke(worker.Register[*Listener](name, worker.WithReady())),
	)
}
