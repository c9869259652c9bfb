package webhook

import (
	"encoding/json"
	"time"
)

// Envelope is the wire format delivered to subscribers. Field order is
// fixed by the struct declaration, so marshaling the same event twice
// yields the same bytes - the signature is computed over exactly the bytes
// that go on the wire.
type Envelope struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// NewEnvelope wraps event data for delivery. The data is marshaled once
// here; every subscriber of the event receives the identical byte
// sequence.
func NewEnvelope(event string, data interface{}) (Envelope, []byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, nil, err
	}

	env := Envelope{
		Event:     event,
		Data:      raw,
		Timestamp: time.Now().Unix(),
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, err
	}

	return env, payload, nil
}
