package repository

import (
	"context"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/google/uuid"
)

type UsageRecordRepository struct {
	db *storage.Postgres
}

func NewUsageRecordRepository(db *storage.Postgres) *UsageRecordRepository {
	return &UsageRecordRepository{db: db}
}

// Inserts a batch of usage records in one statement
func (r *UsageRecordRepository) CreateBatch(ctx context.Context, records []models.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.DB.WithContext(ctx).Create(&records).Error
}

func (r *UsageRecordRepository) FindByClient(ctx context.Context, clientID uuid.UUID, from, to time.Time, limit, offset int) ([]models.UsageRecord, error) {
	var records []models.UsageRecord
	err := r.db.DB.WithContext(ctx).
		Where("client_id = ? AND timestamp BETWEEN ? AND ?", clientID, from, to).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error

	return records, err
}

func (r *UsageRecordRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

// Returns the most frequently hit endpoints in the range
func (r *UsageRecordRepository) TopEndpoints(ctx context.Context, from, to time.Time, limit int) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	rows, err := r.db.DB.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Select("endpoint, COUNT(*) as count").
		Where("timestamp BETWEEN ? AND ?", from, to).
		Group("endpoint").
		Order("count DESC").
		Limit(limit).
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var endpoint string
		var count int64

		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, err
		}

		results = append(results, map[string]interface{}{
			"endpoint": endpoint,
			"count":    count,
		})
	}

	return results, nil
}

func (r *UsageRecordRepository) CountByStatusRange(ctx context.Context, minStatus, maxStatus int, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("status_code BETWEEN ? AND ? AND timestamp BETWEEN ? AND ?", minStatus, maxStatus, from, to).
		Count(&count).Error

	return count, err
}
