package infra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"worktrack/internal/config"
	"worktrack/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisModeStandalone = "standalone"
	redisModeSentinel   = "sentinel"
	redisModeCluster    = "cluster"
)

var globalRedis redis.UniversalClient

// InitRedis 初始化 Redis 连接（报表缓存、令牌吊销、预热队列共用）
// 支持三种模式: standalone(单节点), sentinel(哨兵), cluster(集群)
func InitRedis(cfg *config.RedisConfig) (redis.UniversalClient, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = redisModeStandalone
	}

	rdb, fields, err := newRedisClient(mode, cfg)
	if err != nil {
		return nil, err
	}
	rdb.AddHook(&RedisLogHook{ZapLogger: logger.Get().Named("redis"), SlowThreshold: cfg.SlowThreshold})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", append(fields, zap.String("mode", mode))...)
	globalRedis = rdb
	return rdb, nil
}

func newRedisClient(mode string, cfg *config.RedisConfig) (redis.UniversalClient, []zap.Field, error) {
	switch mode {
	case redisModeStandalone:
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Addr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
		})
		return rdb, []zap.Field{zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB)}, nil

	case redisModeSentinel:
		if cfg.MasterName == "" || len(cfg.SentinelAddrs) == 0 {
			return nil, nil, fmt.Errorf("哨兵模式需要配置 master_name 和 sentinel_addrs")
		}
		rdb := redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.MasterName,
			SentinelAddrs:    cfg.SentinelAddrs,
			SentinelPassword: cfg.SentinelPassword,
			Password:         cfg.Password,
			DB:               cfg.DB,
			PoolSize:         cfg.PoolSize,
			MinIdleConns:     cfg.MinIdleConns,
		})
		return rdb, []zap.Field{zap.String("master", cfg.MasterName), zap.Strings("sentinels", cfg.SentinelAddrs)}, nil

	case redisModeCluster:
		if len(cfg.ClusterAddrs) == 0 {
			return nil, nil, fmt.Errorf("集群模式需要配置 cluster_addrs")
		}
		rdb := redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
		})
		return rdb, []zap.Field{zap.Strings("addrs", cfg.ClusterAddrs)}, nil
	}
	return nil, nil, fmt.Errorf("不支持的 Redis 模式: %s (可选: standalone, sentinel, cluster)", mode)
}

// CloseRedis 关闭 Redis 连接
func CloseRedis() error {
	if globalRedis == nil {
		return nil
	}
	err := globalRedis.Close()
	globalRedis = nil
	return err
}

// RedisLogHook 按请求上下文记录 Redis 命令错误和慢命令
//
// redis.Nil 是缓存未命中，不记录。
type RedisLogHook struct {
	ZapLogger     *zap.Logger
	SlowThreshold time.Duration
}

// DialHook 建连失败时记录地址
func (h *RedisLogHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.with(ctx).Warn("Redis 建连失败", zap.String("addr", addr), zap.Error(err))
		}
		return conn, err
	}
}

// ProcessHook 单条命令
func (h *RedisLogHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		begin := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd.Name(), 1, time.Since(begin), err)
		return err
	}
}

// ProcessPipelineHook 管道命令按整体记录
func (h *RedisLogHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		begin := time.Now()
		err := next(ctx, cmds)
		name := "pipeline"
		if len(cmds) > 0 {
			name = "pipeline:" + cmds[0].Name()
		}
		h.observe(ctx, name, len(cmds), time.Since(begin), err)
		return err
	}
}

func (h *RedisLogHook) observe(ctx context.Context, name string, size int, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("cmd", name),
		zap.Int("size", size),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.with(ctx).Warn("Redis 命令被取消", append(fields, zap.Error(err))...)
			return
		}
		h.with(ctx).Error("Redis 命令错误", append(fields, zap.Error(err))...)
		return
	}
	if h.SlowThreshold > 0 && elapsed > h.SlowThreshold {
		h.with(ctx).Warn("Redis 慢命令", fields...)
	}
}

func (h *RedisLogHook) with(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, h.ZapLogger)
}
