package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"worktrack/internal/config"
	"worktrack/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// ErrAlreadyQueued 相同的预热任务已在队列中
var ErrAlreadyQueued = errors.New("warmup already queued")

// Client 任务队列客户端接口
type Client interface {
	EnqueueWarmDashboard(ctx context.Context, payload tasks.WarmDashboardPayload) (string, error)
	Close() error
}

type asynqClient struct {
	client *asynq.Client
}

// RedisOpt 由配置构造 asynq 的 Redis 连接参数
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewClient 创建任务队列客户端
func NewClient(cfg config.RedisConfig) Client {
	return &asynqClient{client: asynq.NewClient(RedisOpt(cfg))}
}

// EnqueueWarmDashboard 入队看板预热任务，返回任务 ID
//
// 相同租户、部门、参考日与时区的任务在队列中只保留一个，重复入队返回 ErrAlreadyQueued。
func (c *asynqClient) EnqueueWarmDashboard(ctx context.Context, payload tasks.WarmDashboardPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(tasks.TypeWarmDashboard, data)
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(tasks.QueueReport),
		asynq.MaxRetry(2),
		asynq.Timeout(2*time.Minute),
		asynq.TaskID(payload.TaskID()),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return payload.TaskID(), ErrAlreadyQueued
		}
		return "", fmt.Errorf("enqueue task failed: %w", err)
	}
	return info.ID, nil
}

func (c *asynqClient) Close() error {
	return c.client.Close()
}
