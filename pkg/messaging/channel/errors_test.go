package channel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError_Temporary(t *testing.T) {
	for reason, want := range map[Reason]bool{
		ReasonTimeout:          true,
		ReasonBrokerConnection: true,
		ReasonEntityNotFound:   true,
		ReasonThrottled:        true,
		ReasonFatal:            false,
		ReasonOther:            false,
	} {
		err := &TransportError{Reason: reason, Err: errors.New("x")}
		assert.Equal(t, want, err.Temporary(), reason)
	}
}

func TestAsTransportError(t *testing.T) {
	endpoint := Endpoint{Namespace: "broker:9092", Entity: "products"}
	cause := errors.New("connection refused")

	err := AsTransportError(cause, ReasonBrokerConnection, endpoint)

	var te *TransportError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, endpoint, te.Endpoint)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "broker:9092/products")

	assert.Same(t, err, AsTransportError(err, ReasonOther, Endpoint{}))
	assert.Nil(t, AsTransportError(nil, ReasonOther, endpoint))

	wrappedCancel := fmt.Errorf("receive: %w", context.Canceled)
	assert.Equal(t, wrappedCancel, AsTransportError(wrappedCancel, ReasonOther, endpoint))
}

func TestMessage_Clone(t *testing.T) {
	m := Message{ID: "1", Headers: map[string]string{"a": "b"}, Body: []byte("x")}
	c := m.Clone()
	c.Headers["a"] = "changed"
	c.Body[0] = 'y'

	assert.Equal(t, "b", m.Headers["a"])
	assert.Equal(t, []byte("x"), m.Body)
}
