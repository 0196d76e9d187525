// Package publisher wraps events in envelopes and sends them over a channel.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HeaderEventType duplicates the envelope's eventType so brokers and tools
// can filter without decoding the body.
const HeaderEventType = "event-type"

var ErrNilEvent = errors.New("nil event")

// EventPublisher is implemented by *Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, e event.Event) error
}

type Publisher struct {
	transport channel.Transport
	codec     envelope.Codec
	tracer    trace.Tracer
	log       *zap.Logger
}

func NewPublisher(transport channel.Transport, codec envelope.Codec, tp trace.TracerProvider, log *zap.Logger) *Publisher {
	return &Publisher{
		transport: transport,
		codec:     codec,
		tracer:    tp.Tracer("productsync-publisher"),
		log:       log.With(zap.String("component", "publisher")),
	}
}

// Publish sends e on a sender opened for this call only.
func (p *Publisher) Publish(ctx context.Context, e event.Event) (err error) {
	if e == nil {
		return ErrNilEvent
	}
	kind := e.EventKind()

	body, err := p.codec.Encode(string(kind), e)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	msg := channel.Message{
		ID:          uuid.NewString(),
		Key:         e.AggregateID(),
		ContentType: p.codec.ContentType(),
		Headers:     map[string]string{HeaderEventType: string(kind)},
		Body:        body,
	}

	endpoint := p.transport.Endpoint()
	ctx, span := p.tracer.Start(ctx, "productsync.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("server.address", endpoint.Namespace),
			attribute.String("messaging.destination", endpoint.Entity),
			attribute.String("messaging.message.id", msg.ID),
			attribute.String("event.type", string(kind)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
		}
		span.End()
	}()
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Headers))

	sender, err := p.transport.OpenSender(ctx)
	if err != nil {
		return fmt.Errorf("failed to open sender: %w", err)
	}
	defer func() {
		if cerr := sender.Close(); cerr != nil {
			p.log.Warn("failed to close sender", zap.Error(cerr))
		}
	}()

	if err := sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s for %s: %w", kind, msg.Key, err)
	}

	p.log.Debug("event published",
		zap.String("eventType", string(kind)),
		zap.String("messageId", msg.ID),
		zap.String("key", msg.Key),
	)
	return nil
}
