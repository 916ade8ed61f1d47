package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisReportCache 基于 Redis 的报表缓存，值为 JSON
type RedisReportCache struct {
	client redis.UniversalClient
}

// NewRedisReportCache 创建 Redis 报表缓存
func NewRedisReportCache(client redis.UniversalClient) *RedisReportCache {
	return &RedisReportCache{client: client}
}

// Get 读取缓存
func (c *RedisReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	start := time.Now()
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		recordLookup(false, start)
		return false, nil
	}
	if err != nil {
		recordLookup(false, start)
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := decode(data, dst); err != nil {
		recordLookup(false, start)
		return false, err
	}
	recordLookup(true, start)
	return true, nil
}

// Set 写入缓存
func (c *RedisReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	start := time.Now()
	defer recordStore(start)

	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete 删除缓存
func (c *RedisReportCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// InvalidateTenant 删除租户下全部看板缓存，返回删除数量
func (c *RedisReportCache) InvalidateTenant(ctx context.Context, tenantID string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	pattern := TenantPattern(tenantID)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis del: %w", err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
