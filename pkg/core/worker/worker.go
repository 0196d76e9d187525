// Package worker runs long-lived background loops inside the fx lifecycle.
package worker

import (
	"context"
	"sync"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Runnable is a blocking loop that returns when ctx is cancelled.
type Runnable interface {
	Run(ctx context.Context) error
}

type options struct {
	waitReady  bool
	shutdownOn bool
}

type Option func(*options)

// WithReady delays Run until every registered component is ready.
func WithReady() Option {
	return func(o *options) { o.waitReady = true }
}

// WithShutdown stops the application when Run returns an error.
func WithShutdown() Option {
	return func(o *options) { o.shutdownOn = true }
}

// Worker runs one Runnable. Its context is cancelled by Stop.
type Worker struct {
	name       string
	run        func(ctx context.Context) error
	log        *zap.Logger
	readiness  health.ReadinessWaiter
	shutdowner fx.Shutdowner
	opts       options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (w *Worker) Start() {
	w.log.Info("starting worker")
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

func (w *Worker) loop(ctx context.Context) {
	if w.opts.waitReady {
		if err := w.readiness.WaitReady(ctx); err != nil {
			w.log.Info("worker cancelled while waiting for readiness")
			return
		}
	}

	err := w.run(ctx)
	if err == nil {
		w.log.Info("worker stopped")
		return
	}

	if w.opts.shutdownOn {
		w.log.Error("worker failed, initiating shutdown", zap.Error(err))
		if shutdownErr := w.shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
			w.log.Error("failed to initiate shutdown", zap.Error(shutdownErr))
		}
		return
	}
	w.log.Error("worker stopped with error", zap.Error(err))
}

// Stop cancels the worker context and waits for Run to return.
func (w *Worker) Stop() {
	w.log.Info("stopping worker")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Register returns an fx constructor that binds a Worker to the lifecycle
// for the dependency of type T.
//
//	fx.Invoke(worker.Register[*consumer.Listener]("product-listener", worker.WithShutdown()))
func Register[T Runnable](name string, opts ...Option) any {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return func(lc fx.Lifecycle, log *zap.Logger, shutdowner fx.Shutdowner, readiness health.ReadinessWaiter, dep T) {
		w := &Worker{
			name:       name,
			run:        dep.Run,
			log:        log.With(zap.String("worker", name)),
			readiness:  readiness,
			shutdowner: shutdowner,
			opts:       o,
		}
		lc.Append(fx.StartStopHook(w.Start, w.Stop))
	}
}
