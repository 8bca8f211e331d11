package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eduforum/internal/model"
)

// RoomCache mirrors room metadata in Redis so lookups and existence checks
// never touch the live registry.
type RoomCache interface {
	SetMeta(ctx context.Context, roomID string, meta *model.RoomMeta) error
	GetMeta(ctx context.Context, roomID string) (*model.RoomMeta, error)
	SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error
	Delete(ctx context.Context, roomID string) error
	Exists(ctx context.Context, roomID string) (bool, error)
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a new room cache.
func NewRoomCache(client *redis.Client) RoomCache {
	return &roomCache{
		client: client,
		ttl:    24 * time.Hour, // Rooms expire after 24h
	}
}

func (c *roomCache) key(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

func (c *roomCache) SetMeta(ctx context.Context, roomID string, meta *model.RoomMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(roomID), data, c.ttl).Err()
}

func (c *roomCache) GetMeta(ctx context.Context, roomID string) (*model.RoomMeta, error) {
	data, err := c.client.Get(ctx, c.key(roomID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.RoomMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *roomCache) SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error {
	meta, err := c.GetMeta(ctx, roomID)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("room %s not found", roomID)
	}
	meta.Status = status
	return c.SetMeta(ctx, roomID, meta)
}

func (c *roomCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}

func (c *roomCache) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(roomID)).Result()
	return n > 0, err
}
