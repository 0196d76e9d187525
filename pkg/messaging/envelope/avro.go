package envelope

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/hamba/avro/v2"
)

const ContentTypeAvro = "avro/binary"

// Avro frames the envelope as [0x00][schema id, 4 bytes big-endian][avro
// record]. The payload field carries the JSON encoded event so that Bind
// works the same for both codecs.
var Avro Codec = newAvroCodec()

const (
	avroMagicByte    = 0x00
	avroHeaderSize   = 5
	envelopeSchemaID = 1
)

const envelopeSchema = `{
  "type": "record",
  "name": "Envelope",
  "namespace": "com.ecommerce.events",
  "fields": [
    {"name": "eventType", "type": "string"},
    {"name": "payload", "type": "bytes"}
  ]
}`

type avroEnvelope struct {
	EventType string `avro:"eventType"`
	Payload   []byte `avro:"payload"`
}

type avroCodec struct {
	schema avro.Schema
}

func newAvroCodec() avroCodec {
	return avroCodec{schema: avro.MustParse(envelopeSchema)}
}

func (avroCodec) ContentType() string { return ContentTypeAvro }

func (c avroCodec) Encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	body, err := avro.Marshal(c.schema, avroEnvelope{EventType: eventType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to encode avro envelope: %w", err)
	}

	out := make([]byte, avroHeaderSize, avroHeaderSize+len(body))
	out[0] = avroMagicByte
	binary.BigEndian.PutUint32(out[1:avroHeaderSize], envelopeSchemaID)
	return append(out, body...), nil
}

func (c avroCodec) Decode(data []byte) (Envelope, error) {
	if len(data) < avroHeaderSize {
		return Envelope{}, fmt.Errorf("%w: data too short: %d bytes", ErrMalformedEnvelope, len(data))
	}
	if data[0] != avroMagicByte {
		return Envelope{}, fmt.Errorf("%w: invalid magic byte 0x%02x", ErrMalformedEnvelope, data[0])
	}
	if id := binary.BigEndian.Uint32(data[1:avroHeaderSize]); id != envelopeSchemaID {
		return Envelope{}, fmt.Errorf("%w: unknown schema id %d", ErrMalformedEnvelope, id)
	}

	var env avroEnvelope
	if err := avro.Unmarshal(c.schema, data[avroHeaderSize:], &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.EventType == "" {
		return Envelope{}, fmt.Errorf("%w: eventType is missing", ErrMalformedEnvelope)
	}
	if isAbsent(env.Payload) {
		return Envelope{}, fmt.Errorf("%w: payload is missing", ErrMalformedEnvelope)
	}
	return Envelope{EventType: env.EventType, Payload: json.RawMessage(env.Payload)}, nil
}
