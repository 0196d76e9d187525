// Package envelope wraps events for transport as {eventType, payload} and
// binds payloads back to concrete event types.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedEnvelope means the outer structure could not be read. It is
	// never returned for an eventType that is merely unknown.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrPayloadBinding means the payload does not have the shape of the
	// type it was bound to.
	ErrPayloadBinding = errors.New("payload binding failed")
)

// Envelope is a decoded message: the declared event type plus the still
// undecoded payload.
type Envelope struct {
	EventType string
	Payload   json.RawMessage
}

// Codec converts envelopes to and from message bodies.
type Codec interface {
	// ContentType is set on outgoing messages and used to pick the codec
	// on the receiving side.
	ContentType() string
	Encode(eventType string, payload any) ([]byte, error)
	Decode(data []byte) (Envelope, error)
}

// ForContentType returns the codec for a message content type. An empty
// content type selects JSON.
func ForContentType(contentType string) (Codec, error) {
	switch contentType {
	case "", ContentTypeJSON:
		return JSON, nil
	case ContentTypeAvro:
		return Avro, nil
	}
	return nil, fmt.Errorf("%w: unsupported content type %q", ErrMalformedEnvelope, contentType)
}

// Decode picks the codec for contentType and decodes data with it.
func Decode(contentType string, data []byte) (Envelope, error) {
	codec, err := ForContentType(contentType)
	if err != nil {
		return Envelope{}, err
	}
	return codec.Decode(data)
}

type validator interface {
	Validate() error
}

// Bind decodes raw into E. Unknown fields, trailing data and a failing
// Validate method on *E are reported as ErrPayloadBinding.
func Bind[E any](raw json.RawMessage) (E, error) {
	var e E

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return e, fmt.Errorf("%w: %T: %v", ErrPayloadBinding, e, err)
	}
	if dec.More() {
		return e, fmt.Errorf("%w: %T: trailing data after payload", ErrPayloadBinding, e)
	}

	if v, ok := any(&e).(validator); ok {
		if err := v.Validate(); err != nil {
			return e, fmt.Errorf("%w: %T: %v", ErrPayloadBinding, e, err)
		}
	}
	return e, nil
}

func isAbsent(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
