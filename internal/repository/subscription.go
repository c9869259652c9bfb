package repository

import (
	"context"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *storage.Postgres
}

func NewSubscriptionRepository(db *storage.Postgres) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.WebhookSubscription) error {
	return r.db.DB.WithContext(ctx).Create(sub).Error
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*models.WebhookSubscription, error) {
	var sub models.WebhookSubscription
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&sub).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &sub, err
}

// Returns the active subscriptions of a workspace that include the named
// event. Event filtering happens in memory: the events column is a JSON
// blob and the candidate set per workspace is small.
func (r *SubscriptionRepository) FindActive(ctx context.Context, workspaceID, event string) ([]models.WebhookSubscription, error) {
	var subs []models.WebhookSubscription
	err := r.db.DB.WithContext(ctx).
		Where("workspace_id = ? AND is_active = ?", workspaceID, true).
		Find(&subs).Error

	if err != nil {
		return nil, err
	}

	matched := subs[:0]
	for _, sub := range subs {
		if sub.Subscribes(event) {
			matched = append(matched, sub)
		}
	}

	return matched, nil
}

func (r *SubscriptionRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.WebhookSubscription, error) {
	var subs []models.WebhookSubscription
	err := r.db.DB.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&subs).Error

	return subs, err
}

func (r *SubscriptionRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.WebhookSubscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Flags a subscription whose deliveries keep failing. It is not disabled;
// an operator decides what to do with it.
func (r *SubscriptionRepository) MarkNeedsAttention(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.WebhookSubscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"needs_attention": true,
			"last_error":      reason,
			"updated_at":      time.Now(),
		}).Error
}
