package repository

import (
	"context"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *storage.Postgres
}

func NewClientRepository(db *storage.Postgres) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.DB.WithContext(ctx).Create(client).Error
}

// Looks up a client by the sha256 hash of its raw key. Returns (nil, nil)
// when no client carries the hash; active/expiry checks belong to the caller
// so an inactive client is distinguishable from an unknown one internally.
func (r *ClientRepository) FindByHash(ctx context.Context, hash string) (*models.Client, error) {
	var client models.Client
	err := r.db.DB.WithContext(ctx).
		Where("key_hash = ?", hash).
		First(&client).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &client, err
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&client).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &client, err
}

func (r *ClientRepository) List(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&clients).Error

	return clients, err
}

func (r *ClientRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Clients are never deleted, only deactivated, so usage records keep a
// valid owner.
func (r *ClientRepository) Deactivate(ctx context.Context, id string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *ClientRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Update("last_used_at", time.Now()).Error
}
