package app

import (
	"context"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/logger"
	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/consumer"
	"github.com/Sokol111/ecommerce-product-sync/pkg/projection"
	"go.uber.org/zap"
)

// productHandlers apply catalog events to the projection.
type productHandlers struct {
	projector *projection.Projector
}

// NewDispatcher routes every product event kind to the projector.
func NewDispatcher(projector *projection.Projector) (*consumer.Dispatcher, error) {
	h := &productHandlers{projector: projector}
	return consumer.NewDispatcher(map[event.Kind]consumer.HandlerFunc{
		event.KindProductCreated: consumer.Handle(h.created),
		event.KindProductUpdated: consumer.Handle(h.updated),
	}, event.Kinds()...)
}

func (h *productHandlers) created(ctx context.Context, e event.ProductCreated) error {
	outcome, err := h.projector.ApplyCreated(ctx, e)
	if err != nil {
		return err
	}
	logApplied(ctx, e.ID, e.VersionToken, outcome)
	return nil
}

func (h *productHandlers) updated(ctx context.Context, e event.ProductUpdated) error {
	outcome, err := h.projector.ApplyUpdated(ctx, e)
	if err != nil {
		return err
	}
	logApplied(ctx, e.ID, e.VersionToken, outcome)
	return nil
}

func logApplied(ctx context.Context, id int, version event.VersionToken, outcome projection.Outcome) {
	logger.Get(ctx).Info("projection applied",
		zap.Int("productId", id),
		zap.Stringer("version", version),
		zap.String("outcome", string(outcome)),
	)
}
