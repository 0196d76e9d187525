package publisher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel/memory"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// countingTransport counts senders and can fail on open or send.
type countingTransport struct {
	*memory.Queue
	opened  atomic.Int32
	closed  atomic.Int32
	openErr error
	sendErr error
}

func (c *countingTransport) OpenSender(ctx context.Context) (channel.Sender, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.opened.Add(1)
	s, err := c.Queue.OpenSender(ctx)
	if err != nil {
		return nil, err
	}
	return &countingSender{Sender: s, parent: c}, nil
}

type countingSender struct {
	channel.Sender
	parent *countingTransport
}

func (s *countingSender) Send(ctx context.Context, msg channel.Message) error {
	if s.parent.sendErr != nil {
		return s.parent.sendErr
	}
	return s.Sender.Send(ctx, msg)
}

func (s *countingSender) Close() error {
	s.parent.closed.Add(1)
	return s.Sender.Close()
}

func widgetCreated() *event.ProductCreated {
	return &event.ProductCreated{
		ID:           42,
		Name:         "Widget",
		Price:        decimal.RequireFromString("9.99"),
		VersionToken: event.NewVersionToken(2001),
	}
}

func receiveOne(t *testing.T, q *memory.Queue) channel.Delivery {
	t.Helper()
	r, err := q.OpenReceiver(t.Context(), channel.ReceiverOptions{PrefetchCount: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	d, err := r.Receive(ctx)
	require.NoError(t, err)
	return d
}

func TestPublisher_Publish(t *testing.T) {
	transport := &countingTransport{Queue: memory.NewQueue("products")}
	p := NewPublisher(transport, envelope.JSON, noop.NewTracerProvider(), zap.NewNop())

	require.NoError(t, p.Publish(t.Context(), widgetCreated()))

	d := receiveOne(t, transport.Queue)
	msg := d.Message()
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "42", msg.Key)
	assert.Equal(t, envelope.ContentTypeJSON, msg.ContentType)
	assert.Equal(t, "ProductCreatedEvent", msg.Headers[HeaderEventType])

	env, err := envelope.Decode(msg.ContentType, msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "ProductCreatedEvent", env.EventType)

	bound, err := envelope.Bind[event.ProductCreated](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, 42, bound.ID)
	assert.True(t, bound.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 0, bound.VersionToken.Compare(event.NewVersionToken(2001)))
}

func TestPublisher_FreshSenderPerCall(t *testing.T) {
	transport := &countingTransport{Queue: memory.NewQueue("products")}
	p := NewPublisher(transport, envelope.JSON, noop.NewTracerProvider(), zap.NewNop())

	for range 3 {
		require.NoError(t, p.Publish(t.Context(), widgetCreated()))
	}

	assert.Equal(t, int32(3), transport.opened.Load())
	assert.Equal(t, int32(3), transport.closed.Load())
	assert.Equal(t, 3, transport.Len())
}

func TestPublisher_UniqueMessageIDs(t *testing.T) {
	q := memory.NewQueue("products")
	p := NewPublisher(q, envelope.JSON, noop.NewTracerProvider(), zap.NewNop())

	require.NoError(t, p.Publish(t.Context(), widgetCreated()))
	require.NoError(t, p.Publish(t.Context(), widgetCreated()))

	first := receiveOne(t, q)
	require.NoError(t, first.Complete(t.Context()))
	second := receiveOne(t, q)
	assert.NotEqual(t, first.Message().ID, second.Message().ID)
}

func TestPublisher_Errors(t *testing.T) {
	t.Run("nil event", func(t *testing.T) {
		p := NewPublisher(memory.NewQueue("products"), envelope.JSON, noop.NewTracerProvider(), zap.NewNop())
		assert.ErrorIs(t, p.Publish(t.Context(), nil), ErrNilEvent)
	})

	t.Run("open sender fails", func(t *testing.T) {
		openErr := errors.New("broker down")
		transport := &countingTransport{Queue: memory.NewQueue("products"), openErr: openErr}
		p := NewPublisher(transport, envelope.JSON, noop.NewTracerProvider(), zap.NewNop())

		assert.ErrorIs(t, p.Publish(t.Context(), widgetCreated()), openErr)
	})

	t.Run("send fails and sender is still closed", func(t *testing.T) {
		sendErr := errors.New("message too large")
		transport := &countingTransport{Queue: memory.NewQueue("products"), sendErr: sendErr}
		p := NewPublisher(transport, envelope.JSON, noop.NewTracerProvider(), zap.NewNop())

		assert.ErrorIs(t, p.Publish(t.Context(), widgetCreated()), sendErr)
		assert.Equal(t, int32(1), transport.closed.Load())
	})
}

func TestPublisher_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	q := memory.NewQueue("products")
	p := NewPublisher(q, envelope.JSON, tp, zap.NewNop())

	ctx, parent := tp.Tracer("test").Start(t.Context(), "create product")
	require.NoError(t, p.Publish(ctx, widgetCreated()))
	parent.End()

	msg := receiveOne(t, q).Message()
	require.Contains(t, msg.Headers, "traceparent")
	assert.Contains(t, msg.Headers["traceparent"], parent.SpanContext().TraceID().String())
}

func TestPublisher_AvroCodec(t *testing.T) {
	q := memory.NewQueue("products")
	p := NewPublisher(q, envelope.Avro, noop.NewTracerProvider(), zap.NewNop())

	require.NoError(t, p.Publish(t.Context(), &event.ProductUpdated{
		ID:           7,
		Name:         "Gadget",
		Price:        decimal.RequireFromString("12.50"),
		VersionToken: event.NewVersionToken(9),
	}))

	msg := receiveOne(t, q).Message()
	assert.Equal(t, envelope.ContentTypeAvro, msg.ContentType)
	env, err := envelope.Decode(msg.ContentType, msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "ProductUpdatedEvent", env.EventType)
}
