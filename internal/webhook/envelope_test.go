package webhook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeWrapsData(t *testing.T) {
	env, payload, err := NewEnvelope("orders.created", map[string]int{"total": 4200})
	require.NoError(t, err)

	assert.Equal(t, "orders.created", env.Event)
	assert.NotZero(t, env.Timestamp)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, env.Event, decoded.Event)
	assert.JSONEq(t, `{"total":4200}`, string(decoded.Data))
}

func TestNewEnvelopeNilData(t *testing.T) {
	_, payload, err := NewEnvelope("orders.deleted", nil)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "null", string(decoded.Data))
}

func TestNewEnvelopeUnmarshalableData(t *testing.T) {
	_, _, err := NewEnvelope("orders.created", make(chan int))
	assert.Error(t, err)
}
