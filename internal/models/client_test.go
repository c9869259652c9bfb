package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientUsable(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name   string
		client Client
		want   bool
	}{
		{"active without expiry", Client{IsActive: true}, true},
		{"active before expiry", Client{IsActive: true, ExpiresAt: &future}, true},
		{"active past expiry", Client{IsActive: true, ExpiresAt: &past}, false},
		{"deactivated", Client{IsActive: false}, false},
		{"deactivated and expired", Client{IsActive: false, ExpiresAt: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.client.Usable(now))
		})
	}
}

func TestSubscriptionSubscribes(t *testing.T) {
	sub := WebhookSubscription{Events: []string{"orders.created", "orders.deleted"}}

	assert.True(t, sub.Subscribes("orders.created"))
	assert.False(t, sub.Subscribes("orders.updated"))
	assert.False(t, sub.Subscribes(""))

	empty := WebhookSubscription{}
	assert.False(t, empty.Subscribes("orders.created"))
}
