package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Unknownuser10132/shiptivitas-2/domain"
)

type backend interface {
	FetchClients(ctx context.Context, userID string) ([]domain.Client, error)
	InsertClient(ctx context.Context, userID string, c domain.Client) error
	UpdatePlacements(ctx context.Context, userID string, changes []domain.Placement) error
	DeleteClient(ctx context.Context, userID string, id int) error
	EnqueueEvents(ctx context.Context, userID string, evs []domain.Event) error
}

// Cache wraps a Storage instance with Redis-backed caching for board reads.
// Every write evicts the user's cached board so the next read observes the
// committed placements.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchClients(ctx context.Context, userID string) ([]domain.Client, error) {
	if clients, ok := c.loadClientsFromCache(ctx, userID); ok {
		return clients, nil
	}

	clients, err := c.base.FetchClients(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.storeClients(ctx, userID, clients)
	return clients, nil
}

func (c *Cache) InsertClient(ctx context.Context, userID string, cl domain.Client) error {
	if err := c.base.InsertClient(ctx, userID, cl); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) UpdatePlacements(ctx context.Context, userID string, changes []domain.Placement) error {
	if err := c.base.UpdatePlacements(ctx, userID, changes); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) DeleteClient(ctx context.Context, userID string, id int) error {
	if err := c.base.DeleteClient(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) EnqueueEvents(ctx context.Context, userID string, evs []domain.Event) error {
	return c.base.EnqueueEvents(ctx, userID, evs)
}

func (c *Cache) loadClientsFromCache(ctx context.Context, userID string) ([]domain.Client, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, clientsCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, clientsCacheKey(userID)).Err()
		}
		return nil, false
	}
	var clients []domain.Client
	if err := json.Unmarshal(data, &clients); err != nil {
		_ = c.redis.Del(ctx, clientsCacheKey(userID)).Err()
		return nil, false
	}
	return clients, true
}

func (c *Cache) storeClients(ctx context.Context, userID string, clients []domain.Client) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(clients)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, clientsCacheKey(userID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, clientsCacheKey(userID)).Result()
}

func clientsCacheKey(userID string) string {
	return "clients:" + userID
}
