package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"event":"orders.created","data":{},"timestamp":1756600000}`)

	first := Sign("whsec_test", payload)
	second := Sign("whsec_test", payload)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "hex encoded SHA-256 output")
}

func TestSignVariesWithSecretAndPayload(t *testing.T) {
	payload := []byte(`{"event":"orders.created"}`)

	assert.NotEqual(t, Sign("secret-a", payload), Sign("secret-b", payload))
	assert.NotEqual(t, Sign("secret-a", payload), Sign("secret-a", []byte(`{"event":"orders.updated"}`)))
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"event":"orders.created"}`)
	signature := Sign("whsec_test", payload)

	assert.True(t, Verify("whsec_test", payload, signature))
	assert.False(t, Verify("wrong-secret", payload, signature))
	assert.False(t, Verify("whsec_test", []byte("tampered"), signature))
	assert.False(t, Verify("whsec_test", payload, "not-a-signature"))
}
