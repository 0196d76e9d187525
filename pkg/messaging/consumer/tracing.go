package consumer

import (
	"context"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// MessageTracer creates consumer spans linked to the producer's trace.
type MessageTracer interface {
	ExtractContext(ctx context.Context, msg channel.Message) context.Context
	StartConsumerSpan(ctx context.Context, msg channel.Message, deliveryCount int) (context.Context, trace.Span)
}

type messageTracer struct {
	tracer   trace.Tracer
	endpoint channel.Endpoint
}

func NewMessageTracer(tp trace.TracerProvider, endpoint channel.Endpoint) MessageTracer {
	return &messageTracer{tracer: tp.Tracer("productsync-consumer"), endpoint: endpoint}
}

func (t *messageTracer) ExtractContext(ctx context.Context, msg channel.Message) context.Context {
	if len(msg.Headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Headers))
}

func (t *messageTracer) StartConsumerSpan(ctx context.Context, msg channel.Message, deliveryCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "productsync.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("server.address", t.endpoint.Namespace),
			attribute.String("messaging.destination", t.endpoint.Entity),
			attribute.String("messaging.message.id", msg.ID),
			attribute.String("messaging.message.key", msg.Key),
			attribute.Int("messaging.delivery_count", deliveryCount),
		),
	)
}
