package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Represents an API consumer. The raw key is never stored, only its hash.
type Client struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	KeyHash           string     `gorm:"uniqueIndex;not null" json:"-"`
	Name              string     `gorm:"not null" json:"name"`
	WorkspaceID       string     `gorm:"index;not null" json:"workspace_id"`
	RequestsPerWindow int        `gorm:"default:60" json:"requests_per_window"`
	Scopes            []string   `gorm:"serializer:json" json:"scopes"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Reports whether the client may authenticate at all, independent of quota
func (c *Client) Usable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}

func (Client) TableName() string {
	return "clients"
}
