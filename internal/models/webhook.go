package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// A delivery target registered for a workspace. The secret signs every
// payload sent to the URL; receivers verify before trusting the body.
type WebhookSubscription struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	WorkspaceID    string    `gorm:"index;not null" json:"workspace_id"`
	URL            string    `gorm:"not null" json:"url"`
	Events         []string  `gorm:"serializer:json" json:"events"`
	Secret         string    `gorm:"not null" json:"-"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	NeedsAttention bool      `gorm:"default:false" json:"needs_attention"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s *WebhookSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Reports whether the subscription wants the named event
func (s *WebhookSubscription) Subscribes(event string) bool {
	for _, e := range s.Events {
		if e == event {
			return true
		}
	}
	return false
}

func (WebhookSubscription) TableName() string {
	return "webhook_subscriptions"
}

// One row appended per delivery attempt, retries included. Never updated.
type DeliveryAttempt struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID uuid.UUID `gorm:"index" json:"subscription_id"`
	EventID        string    `gorm:"index" json:"event_id"`
	EventName      string    `json:"event_name"`
	AttemptNumber  int       `json:"attempt_number"`
	StatusCode     int       `json:"status_code,omitempty"`
	Success        bool      `json:"success"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
}

func (DeliveryAttempt) TableName() string {
	return "delivery_attempts"
}
