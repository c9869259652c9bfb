package repository

import (
	"context"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/google/uuid"
)

type DeliveryAttemptRepository struct {
	db *storage.Postgres
}

func NewDeliveryAttemptRepository(db *storage.Postgres) *DeliveryAttemptRepository {
	return &DeliveryAttemptRepository{db: db}
}

// Appends one attempt record. Rows are never updated afterwards.
func (r *DeliveryAttemptRepository) Append(ctx context.Context, attempt *models.DeliveryAttempt) error {
	return r.db.DB.WithContext(ctx).Create(attempt).Error
}

func (r *DeliveryAttemptRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]models.DeliveryAttempt, error) {
	var attempts []models.DeliveryAttempt
	err := r.db.DB.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error

	return attempts, err
}

func (r *DeliveryAttemptRepository) ListByEvent(ctx context.Context, eventID string) ([]models.DeliveryAttempt, error) {
	var attempts []models.DeliveryAttempt
	err := r.db.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("attempt_number ASC").
		Find(&attempts).Error

	return attempts, err
}
