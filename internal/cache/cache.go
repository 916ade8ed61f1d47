// Package cache 报表结果缓存：规范化的缓存键、Redis 实现与进程内实现
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"worktrack/internal/metrics"
)

// ReportCache 报表结果缓存
type ReportCache interface {
	// Get 读取并反序列化到 dst，未命中时返回 false
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set 序列化并写入，ttl<=0 时不写入
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete 删除指定键
	Delete(ctx context.Context, keys ...string) error
}

// ErrCacheClosed 缓存已关闭
var ErrCacheClosed = errors.New("report cache closed")

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return data, nil
}

func decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode cache value: %w", err)
	}
	return nil
}

// recordLookup 记录命中率与耗时
func recordLookup(hit bool, start time.Time) {
	if hit {
		metrics.ReportCacheHits.Inc()
	} else {
		metrics.ReportCacheMisses.Inc()
	}
	metrics.CacheOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
}

func recordStore(start time.Time) {
	metrics.CacheOperationDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
}
