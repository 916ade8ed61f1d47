package metrics

import (
	"context"
	"database/sql"
	"time"
)

// DBStatsCollector 定期把连接池状态写入 DBConnections
type DBStatsCollector struct {
	db       *sql.DB
	interval time.Duration
}

// NewDBStatsCollector 创建连接池指标收集器
func NewDBStatsCollector(db *sql.DB, interval time.Duration) *DBStatsCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DBStatsCollector{db: db, interval: interval}
}

// Run 阻塞收集直到 ctx 结束
func (c *DBStatsCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.CollectOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CollectOnce()
		}
	}
}

// CollectOnce 收集一次连接池统计
func (c *DBStatsCollector) CollectOnce() {
	if c.db == nil {
		return
	}
	stats := c.db.Stats()
	DBConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	DBConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	DBConnections.WithLabelValues("idle").Set(float64(stats.Idle))
}
