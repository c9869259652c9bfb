package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/google/uuid"
)

const clientCacheTTL = 5 * time.Minute

// ClientStore is the persistence surface the service needs; satisfied by
// repository.ClientRepository.
type ClientStore interface {
	Create(ctx context.Context, client *models.Client) error
	FindByHash(ctx context.Context, hash string) (*models.Client, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Deactivate(ctx context.Context, id string) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
}

// ClientService owns API consumer credentials: key generation, hashed
// lookup with a Redis cache in front of the database, and mutations that
// keep the cache honest.
type ClientService struct {
	repository ClientStore
	redis      *storage.RedisClient
}

func NewClientService(repo ClientStore, redis *storage.RedisClient) *ClientService {
	return &ClientService{
		repository: repo,
		redis:      redis,
	}
}

// Create generates a fresh API key and stores only its hash. The raw key
// is returned exactly once and cannot be recovered afterwards.
func (s *ClientService) Create(ctx context.Context, name, workspaceID string, limit int, scopes []string, expiresAt *time.Time) (string, *models.Client, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate key material: %w", err)
	}

	rawKey := "gw_" + base64.URLEncoding.EncodeToString(keyBytes)

	client := models.Client{
		KeyHash:           HashKey(rawKey),
		Name:              name,
		WorkspaceID:       workspaceID,
		RequestsPerWindow: limit,
		Scopes:            scopes,
		IsActive:          true,
		ExpiresAt:         expiresAt,
	}

	if err := s.repository.Create(ctx, &client); err != nil {
		return "", nil, fmt.Errorf("failed to create client: %w", err)
	}

	return rawKey, &client, nil
}

// Validate resolves a raw key to its client record, or (nil, nil) when no
// client carries the key. Cache misses and cache errors both fall through
// to the database, so a Redis outage degrades to slower lookups rather
// than failed ones.
func (s *ClientService) Validate(ctx context.Context, rawKey string) (*models.Client, error) {
	hash := HashKey(rawKey)

	cacheKey := clientCacheKey(hash)
	if cached, err := s.redis.Get(ctx, cacheKey); err == nil && cached != "" {
		var client models.Client
		if err := json.Unmarshal([]byte(cached), &client); err == nil {
			return &client, nil
		}
	}

	client, err := s.repository.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	if client == nil {
		return nil, nil
	}

	if data, err := json.Marshal(client); err == nil {
		_ = s.redis.Set(ctx, cacheKey, data, clientCacheTTL)
	}

	return client, nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *ClientService) List(ctx context.Context) ([]models.Client, error) {
	return s.repository.List(ctx)
}

// Update applies admin changes. The cache entry is dropped after the row
// is written: invalidating first would leave a window where a concurrent
// lookup re-caches the old record for the full TTL.
func (s *ClientService) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if err := s.repository.Update(ctx, id, updates); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	return nil
}

// Deactivate turns the client off immediately; the record itself is kept.
func (s *ClientService) Deactivate(ctx context.Context, id string) error {
	if err := s.repository.Deactivate(ctx, id); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	return nil
}

func (s *ClientService) UpdateLastUsed(ctx context.Context, id uuid.UUID) {
	_ = s.repository.UpdateLastUsed(ctx, id)
}

func (s *ClientService) invalidateCache(ctx context.Context, id string) {
	client, err := s.repository.FindByID(ctx, id)
	if err != nil || client == nil {
		return
	}

	_ = s.redis.Del(ctx, clientCacheKey(client.KeyHash))
}

// HashKey is the fixed one-way function applied to raw keys before any
// lookup or storage.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

func clientCacheKey(hash string) string {
	return fmt.Sprintf("client:cache:%s", hash)
}
