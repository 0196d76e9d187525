package envelope

import (
	"encoding/json"
	"fmt"
)

const ContentTypeJSON = "application/json"

// JSON is the default codec: {"eventType":"...","payload":{...}}.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

type jsonEnvelope struct {
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

func (jsonCodec) ContentType() string { return ContentTypeJSON }

func (jsonCodec) Encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return json.Marshal(jsonEnvelope{EventType: eventType, Payload: raw})
}

func (jsonCodec) Decode(data []byte) (Envelope, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.EventType == "" {
		return Envelope{}, fmt.Errorf("%w: eventType is missing", ErrMalformedEnvelope)
	}
	if isAbsent(env.Payload) {
		return Envelope{}, fmt.Errorf("%w: payload is missing", ErrMalformedEnvelope)
	}
	return Envelope{EventType: env.EventType, Payload: env.Payload}, nil
}
