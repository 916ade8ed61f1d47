package queue

import (
	"errors"
	"fmt"
	"time"

	"worktrack/internal/config"
	"worktrack/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// QueueStats 队列概况
type QueueStats struct {
	Queue     string    `json:"queue"`
	Size      int       `json:"size"`
	Pending   int       `json:"pending"`
	Active    int       `json:"active"`
	Scheduled int       `json:"scheduled"`
	Retry     int       `json:"retry"`
	Archived  int       `json:"archived"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Paused    bool      `json:"paused"`
	Timestamp time.Time `json:"timestamp"`
}

// Inspector 报表队列检查器
type Inspector struct {
	inspector *asynq.Inspector
}

// NewInspector 创建队列检查器
func NewInspector(cfg config.RedisConfig) *Inspector {
	return &Inspector{inspector: asynq.NewInspector(RedisOpt(cfg))}
}

// ReportQueueStats 报表预热队列的当前统计；队列尚未创建时返回零值
func (i *Inspector) ReportQueueStats() (*QueueStats, error) {
	info, err := i.inspector.GetQueueInfo(tasks.QueueReport)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return &QueueStats{Queue: tasks.QueueReport, Timestamp: time.Now()}, nil
		}
		return nil, fmt.Errorf("get queue info: %w", err)
	}
	return toQueueStats(info), nil
}

// CancelWarmup 删除尚未执行的预热任务
func (i *Inspector) CancelWarmup(payload tasks.WarmDashboardPayload) error {
	err := i.inspector.DeleteTask(tasks.QueueReport, payload.TaskID())
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Close 关闭连接
func (i *Inspector) Close() error {
	return i.inspector.Close()
}

func toQueueStats(info *asynq.QueueInfo) *QueueStats {
	return &QueueStats{
		Queue:     info.Queue,
		Size:      info.Size,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Processed: info.Processed,
		Failed:    info.Failed,
		Paused:    info.Paused,
		Timestamp: info.Timestamp,
	}
}
