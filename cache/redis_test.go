package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/league-buysell/models"
)

// memoryRedis implements the handful of commands the cache uses.
type memoryRedis struct {
	redis.Cmdable
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestLockerRoom13CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newMemoryRedis()
	c := NewLockerRoom13Cache(rdb, time.Minute)

	if _, ok, err := c.Get(ctx); ok || err != nil {
		t.Fatalf("empty cache Get = %v, %v", ok, err)
	}

	view := []models.LockerRoom13Session{{
		Session: models.Session{ID: 3, BuyDayMinimum: 6},
		Players: []models.LockerRoom13Player{{UserID: 9, LastName: "Locker", Status: "Regular"}},
	}}
	if err := c.Set(ctx, view); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if rdb.ttl[lockerRoom13Key] != time.Minute {
		t.Fatalf("ttl = %s, want 1m", rdb.ttl[lockerRoom13Key])
	}

	got, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if len(got) != 1 || got[0].Session.ID != 3 || got[0].Players[0].UserID != 9 {
		t.Fatalf("Get = %+v", got)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx); ok {
		t.Fatal("view survived invalidation")
	}
}

func TestLockerRoom13CacheDropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	rdb := newMemoryRedis()
	rdb.data[lockerRoom13Key] = "{not json"
	c := NewLockerRoom13Cache(rdb, 0)

	if c.ttl != DefaultTTL {
		t.Fatalf("ttl = %s, want default %s", c.ttl, DefaultTTL)
	}
	if _, ok, err := c.Get(ctx); ok || err == nil {
		t.Fatalf("corrupt entry Get = %v, %v; want miss with error", ok, err)
	}
	if _, present := rdb.data[lockerRoom13Key]; present {
		t.Fatal("corrupt entry was not deleted")
	}
}
