package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/league-buysell/models"
)

const (
	lockerRoom13Key = "lockerroom13:view"
	DefaultTTL      = 30 * time.Second
)

// NewRedisClient connects using a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.PoolSize = 100
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// LockerRoom13Cache keeps the serialized LockerRoom13 view under one key.
type LockerRoom13Cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewLockerRoom13Cache(rdb redis.Cmdable, ttl time.Duration) *LockerRoom13Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LockerRoom13Cache{rdb: rdb, ttl: ttl}
}

func (c *LockerRoom13Cache) Get(ctx context.Context) ([]models.LockerRoom13Session, bool, error) {
	val, err := c.rdb.Get(ctx, lockerRoom13Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", lockerRoom13Key, err)
	}
	var view []models.LockerRoom13Session
	if err := json.Unmarshal(val, &view); err != nil {
		// Drop what we cannot read so the next call rebuilds it.
		_ = c.rdb.Del(ctx, lockerRoom13Key).Err()
		return nil, false, fmt.Errorf("decode cached LockerRoom13 view: %w", err)
	}
	return view, true, nil
}

func (c *LockerRoom13Cache) Set(ctx context.Context, view []models.LockerRoom13Session) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, lockerRoom13Key, data, c.ttl).Err()
}

func (c *LockerRoom13Cache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, lockerRoom13Key).Err()
}
