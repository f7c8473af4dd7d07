// Package sessioncache はセッションごとに直近の生成結果（カリキュラム本文）を1件だけ保持します。
// クッキーには本文が入りきらないため、セッションにはスロットIDだけを置き、本文はこのストアに置きます。
package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "curriculum:"

// Store はスロットID単位で本文を保存するストアです。
// 存在しないスロットの Get は空文字と nil を返します。
type Store interface {
	Put(ctx context.Context, slot, text string) error
	Get(ctx context.Context, slot string) (string, error)
}

// RedisStore は Redis に本文を保存します。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore は RedisStore を作成します。ttl はセッションの最大寿命と同じ値を渡します。
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Put はスロットの本文を上書きします。
func (s *RedisStore) Put(ctx context.Context, slot, text string) error {
	if slot == "" {
		return fmt.Errorf("slot is required")
	}
	if err := s.rdb.Set(ctx, keyPrefix+slot, text, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store curriculum: %w", err)
	}
	return nil
}

// Get はスロットの本文を返します。
func (s *RedisStore) Get(ctx context.Context, slot string) (string, error) {
	if slot == "" {
		return "", nil
	}
	text, err := s.rdb.Get(ctx, keyPrefix+slot).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load curriculum: %w", err)
	}
	return text, nil
}

// MemoryStore はプロセス内に本文を保持します（REDIS_URL 未設定時）。
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(ttl, ttl/2)}
}

// Put はスロットの本文を上書きします。
func (s *MemoryStore) Put(_ context.Context, slot, text string) error {
	if slot == "" {
		return fmt.Errorf("slot is required")
	}
	s.c.SetDefault(slot, text)
	return nil
}

// Get はスロットの本文を返します。
func (s *MemoryStore) Get(_ context.Context, slot string) (string, error) {
	v, ok := s.c.Get(slot)
	if !ok {
		return "", nil
	}
	text, _ := v.(string)
	return text, nil
}
