package consumer

import (
	"context"
	"errors"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Outcome labels how a delivery was settled.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeUnknownType Outcome = "unknown_type"
	OutcomeBinding     Outcome = "binding_failed"
	OutcomeAbandoned   Outcome = "abandoned"
	OutcomePanic       Outcome = "panic"
)

// classify maps a handling error to the settlement outcome. Only successful
// applies and deliberate drops complete the message.
func classify(err error) Outcome {
	var panicErr *PanicError
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, envelope.ErrMalformedEnvelope):
		return OutcomeMalformed
	case errors.Is(err, ErrUnknownEventType):
		return OutcomeUnknownType
	case errors.Is(err, envelope.ErrPayloadBinding):
		return OutcomeBinding
	case errors.As(err, &panicErr):
		return OutcomePanic
	default:
		return OutcomeAbandoned
	}
}

func (o Outcome) completes() bool {
	switch o {
	case OutcomeCompleted, OutcomeMalformed, OutcomeUnknownType, OutcomeBinding:
		return true
	}
	return false
}

type resultHandler struct {
	log      *zap.Logger
	messages metric.Int64Counter
}

func newResultHandler(log *zap.Logger, meter metric.Meter) (*resultHandler, error) {
	counter, err := meter.Int64Counter("productsync.messages",
		metric.WithDescription("Messages settled by the consumer, by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}
	return &resultHandler{log: log, messages: counter}, nil
}

func (h *resultHandler) handle(ctx context.Context, d channel.Delivery, eventType string, err error, span trace.Span) Outcome {
	outcome := classify(err)
	msg := d.Message()
	fields := h.messageFields(d, eventType)

	switch outcome {
	case OutcomeCompleted:
		span.SetStatus(codes.Ok, "")

	case OutcomeMalformed:
		span.SetStatus(codes.Ok, "malformed envelope dropped")
		h.log.Warn("dropping malformed envelope", append(fields, zap.Error(err))...)

	case OutcomeUnknownType:
		span.SetStatus(codes.Ok, "unknown event type skipped")
		h.log.Info("skipping event with unknown type", fields...)

	case OutcomeBinding:
		span.RecordError(err)
		span.SetStatus(codes.Error, "payload binding failed")
		h.log.Error("dropping event with invalid payload",
			append(fields, zap.ByteString("body", msg.Body), zap.Error(err))...)

	case OutcomePanic:
		var panicErr *PanicError
		errors.As(err, &panicErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler panicked")
		h.log.Error("handler panicked, abandoning message",
			append(fields, zap.Any("panic", panicErr.Panic), zap.ByteString("stack", panicErr.Stack))...)

	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing failed")
		h.log.Warn("processing failed, abandoning message", append(fields, zap.Error(err))...)
	}

	h.settle(ctx, d, outcome, err, fields)
	h.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	return outcome
}

// settle runs on a context detached from processing so an expired processing
// timeout still lets the delivery be settled.
func (h *resultHandler) settle(ctx context.Context, d channel.Delivery, outcome Outcome, cause error, fields []zap.Field) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultSettleTimeout)
	defer cancel()

	if outcome.completes() {
		if err := d.Complete(ctx); err != nil {
			h.log.Error("failed to complete message", append(fields, zap.Error(err))...)
		}
		return
	}
	if err := d.Abandon(ctx, cause); err != nil {
		h.log.Error("failed to abandon message", append(fields, zap.Error(err))...)
	}
}

func (h *resultHandler) messageFields(d channel.Delivery, eventType string) []zap.Field {
	msg := d.Message()
	return []zap.Field{
		zap.String("messageId", msg.ID),
		zap.String("key", msg.Key),
		zap.String("eventType", eventType),
		zap.Int("deliveryCount", d.DeliveryCount()),
	}
}
