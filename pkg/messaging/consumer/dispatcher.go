// Package consumer receives envelopes from a channel, routes them by event
// kind and settles every delivery according to the handling result.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Sokol111/ecommerce-product-sync/pkg/event"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/envelope"
	"github.com/samber/lo"
)

// HandlerFunc handles the raw payload of one event kind.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Handle adapts a typed handler. The payload is bound to E first; binding
// failures are returned as envelope.ErrPayloadBinding without calling fn.
func Handle[E any](fn func(ctx context.Context, e E) error) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		e, err := envelope.Bind[E](payload)
		if err != nil {
			return err
		}
		return fn(ctx, e)
	}
}

// Dispatcher routes envelopes to handlers by event kind.
type Dispatcher struct {
	routes map[event.Kind]HandlerFunc
}

// NewDispatcher builds a dispatch table. Every kind in expected must have a
// non-nil handler.
func NewDispatcher(routes map[event.Kind]HandlerFunc, expected ...event.Kind) (*Dispatcher, error) {
	table := make(map[event.Kind]HandlerFunc, len(routes))
	for kind, h := range routes {
		if h == nil {
			return nil, fmt.Errorf("%w: nil handler for %s", ErrMissingHandler, kind)
		}
		table[kind] = h
	}

	missing := lo.Filter(expected, func(k event.Kind, _ int) bool {
		_, ok := table[k]
		return !ok
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingHandler, missing)
	}
	return &Dispatcher{routes: table}, nil
}

// Dispatch runs the handler registered for env.EventType.
func (d *Dispatcher) Dispatch(ctx context.Context, env envelope.Envelope) error {
	h, ok := d.routes[event.Kind(env.EventType)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, env.EventType)
	}
	return h(ctx, env.Payload)
}

// Kinds lists the routed kinds in lexical order.
func (d *Dispatcher) Kinds() []event.Kind {
	kinds := lo.Keys(d.routes)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
