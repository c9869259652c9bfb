package models

import (
	"time"

	"github.com/google/uuid"
)

// Immutable fact recorded once per admitted request
type UsageRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ClientID   uuid.UUID `gorm:"index" json:"client_id"`
	Endpoint   string    `gorm:"index" json:"endpoint"`
	Method     string    `json:"method"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
