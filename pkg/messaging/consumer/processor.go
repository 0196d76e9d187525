package consumer

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/logger"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	"go.uber.org/zap"
)

// processor takes one delivery from decode to settlement.
type processor struct {
	dispatcher *Dispatcher
	results    *resultHandler
	tracer     MessageTracer
	timeout    time.Duration
	log        *zap.Logger
}

// process never returns an error: every outcome ends in Complete or Abandon.
func (p *processor) process(ctx context.Context, d channel.Delivery) Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := d.Message()
	ctx = p.tracer.ExtractContext(ctx, msg)
	ctx, span := p.tracer.StartConsumerSpan(ctx, msg, d.DeliveryCount())
	defer span.End()

	eventType, err := p.handle(ctx, msg)
	return p.results.handle(ctx, d, eventType, err, span)
}

func (p *processor) handle(ctx context.Context, msg channel.Message) (eventType string, err error) {
	env, err := envelope.Decode(msg.ContentType, msg.Body)
	if err != nil {
		return "", err
	}

	eventType = env.EventType
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Panic: rec, Stack: debug.Stack()}
		}
	}()

	log := p.log.With(
		zap.String("messageId", msg.ID),
		zap.String("eventType", eventType),
	)
	log.Debug("dispatching event")
	return eventType, p.dispatcher.Dispatch(logger.With(ctx, log), env)
}
