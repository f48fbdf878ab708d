// Package cache 基于 redis 的 JSON 缓存；client 为 nil 时所有操作都是 no-op
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Cache redis JSON 缓存
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// New 创建缓存，rdb 可为 nil
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, prefix: "pms:"}
}

// Enabled 是否连接了 redis
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get 读取并反序列化，未命中返回 ErrMiss
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return ErrMiss
	}
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal(raw, dest)
}

// Set 序列化写入
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

// Delete 删除若干 key
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}

// ActorKey 用户授权信息缓存 key
func ActorKey(userID uint64) string {
	return fmt.Sprintf("actor:%d", userID)
}

// UnreadKey 未读通知数缓存 key
func UnreadKey(userID uint64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}
