package health

import (
	"context"

	"go.uber.org/fx"
)

// NewReadinessModule provides the readiness tracker. It is sealed once every
// OnStart hook registered before it has run.
func NewReadinessModule() fx.Option {
	return fx.Options(
		fx.Provide(
			NewReadiness,
			func(r *Readiness) ComponentManager { return r },
			func(r *Readiness) ReadinessWaiter { return r },
			func(r *Readiness) ReadinessChecker { return r },
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Readiness) {
			lc.Append(fx.Hook{OnStart: func(context.Context) error {
				r.Seal()
				return nil
			}})
		}),
	)
}
