package consumer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// mockDelivery records how it was settled.
type mockDelivery struct {
	msg       channel.Message
	count     int
	completed atomic.Int32
	abandoned atomic.Int32

	mu     sync.Mutex
	reason error
}

func (d *mockDelivery) Message() channel.Message { return d.msg }
func (d *mockDelivery) DeliveryCount() int       { return d.count }

func (d *mockDelivery) Complete(context.Context) error {
	d.completed.Add(1)
	return nil
}

func (d *mockDelivery) Abandon(_ context.Context, reason error) error {
	d.abandoned.Add(1)
	d.mu.Lock()
	d.reason = reason
	d.mu.Unlock()
	return nil
}

func jsonMessage(id, eventType, payload string) channel.Message {
	body := `{"eventType":"` + eventType + `","payload":` + payload + `}`
	return channel.Message{ID: id, ContentType: envelope.ContentTypeJSON, Body: []byte(body)}
}

func newTestProcessor(d *Dispatcher) *processor {
	results, err := newResultHandler(zap.NewNop(), metricnoop.NewMeterProvider().Meter("test"))
	if err != nil {
		panic(err)
	}
	return &processor{
		dispatcher: d,
		results:    results,
		tracer:     NewMessageTracer(tracenoop.NewTracerProvider(), channel.Endpoint{Namespace: "memory", Entity: "products"}),
		timeout:    DefaultProcessingTimeout,
		log:        zap.NewNop(),
	}
}
