package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryClientStore struct {
	mu           sync.Mutex
	clients      map[uuid.UUID]*models.Client
	hashLookups  int
	onDeactivate func()
}

func newMemoryClientStore() *memoryClientStore {
	return &memoryClientStore{clients: make(map[uuid.UUID]*models.Client)}
}

func (s *memoryClientStore) Create(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	copied := *client
	s.clients[client.ID] = &copied
	return nil
}

func (s *memoryClientStore) FindByHash(ctx context.Context, hash string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashLookups++
	for _, client := range s.clients {
		if client.KeyHash == hash {
			copied := *client
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memoryClientStore) FindByID(ctx context.Context, id string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	client, ok := s.clients[parsed]
	if !ok {
		return nil, nil
	}
	copied := *client
	return &copied, nil
}

func (s *memoryClientStore) List(ctx context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Client
	for _, client := range s.clients {
		out = append(out, *client)
	}
	return out, nil
}

func (s *memoryClientStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	client, ok := s.clients[parsed]
	if !ok {
		return nil
	}
	if v, ok := updates["requests_per_window"]; ok {
		client.RequestsPerWindow = v.(int)
	}
	if v, ok := updates["is_active"]; ok {
		client.IsActive = v.(bool)
	}
	return nil
}

func (s *memoryClientStore) Deactivate(ctx context.Context, id string) error {
	if s.onDeactivate != nil {
		s.onDeactivate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	if client, ok := s.clients[parsed]; ok {
		client.IsActive = false
	}
	return nil
}

func (s *memoryClientStore) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *memoryClientStore) lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hashLookups
}

func newClientServiceForTest(t *testing.T) (*memoryClientStore, *ClientService) {
	t.Helper()

	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemoryClientStore()
	return store, NewClientService(store, storage.NewRedisWithClient(client))
}

func TestClientServiceCreateReturnsRawKeyOnce(t *testing.T) {
	store, svc := newClientServiceForTest(t)
	ctx := context.Background()

	rawKey, created, err := svc.Create(ctx, "test client", "ws-1", 10, []string{"orders"}, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "gw_"))
	assert.Equal(t, HashKey(rawKey), created.KeyHash)
	assert.True(t, created.IsActive)

	stored, err := store.FindByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.KeyHash, stored.KeyHash, "only the hash is persisted")
}

func TestClientServiceValidateCachesLookups(t *testing.T) {
	store, svc := newClientServiceForTest(t)
	ctx := context.Background()

	rawKey, _, err := svc.Create(ctx, "test client", "ws-1", 10, nil, nil)
	require.NoError(t, err)

	first, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.lookups(), "second lookup served from cache")
}

func TestClientServiceValidateUnknownKey(t *testing.T) {
	_, svc := newClientServiceForTest(t)

	client, err := svc.Validate(context.Background(), "gw_unknown")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestClientServiceDeactivateTakesEffectImmediately(t *testing.T) {
	_, svc := newClientServiceForTest(t)
	ctx := context.Background()

	rawKey, created, err := svc.Create(ctx, "test client", "ws-1", 10, nil, nil)
	require.NoError(t, err)

	cached, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.True(t, cached.IsActive)

	require.NoError(t, svc.Deactivate(ctx, created.ID.String()))

	after, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.False(t, after.IsActive, "cached active record must not outlive deactivation")
}

func TestClientServiceDeactivateBeatsConcurrentLookup(t *testing.T) {
	store, svc := newClientServiceForTest(t)
	ctx := context.Background()

	rawKey, created, err := svc.Create(ctx, "test client", "ws-1", 10, nil, nil)
	require.NoError(t, err)

	// A lookup racing the deactivation re-caches the still-active row
	// before the write lands; the invalidation that follows the write has
	// to clear it.
	store.onDeactivate = func() {
		_, _ = svc.Validate(ctx, rawKey)
	}

	require.NoError(t, svc.Deactivate(ctx, created.ID.String()))

	after, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.False(t, after.IsActive)
}

func TestClientServiceUpdateLimitVisibleImmediately(t *testing.T) {
	_, svc := newClientServiceForTest(t)
	ctx := context.Background()

	rawKey, created, err := svc.Create(ctx, "test client", "ws-1", 10, nil, nil)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, rawKey)
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, created.ID.String(), map[string]interface{}{"requests_per_window": 3}))

	after, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	assert.Equal(t, 3, after.RequestsPerWindow)
}

func TestHashKeyIsStable(t *testing.T) {
	first := HashKey("gw_example")
	second := HashKey("gw_example")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, HashKey("gw_other"))
}

func TestHashKeyMatchesSHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("gw_example"))
	assert.Equal(t, hex.EncodeToString(sum[:]), HashKey("gw_example"))
}

func TestClientCacheKeyNamespace(t *testing.T) {
	assert.Equal(t, "client:cache:abc", clientCacheKey("abc"))
}
