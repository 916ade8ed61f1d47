package worker

import (
	"context"

	"worktrack/internal/config"
	"worktrack/internal/infra/queue"
	"worktrack/internal/worker/handlers"
	"worktrack/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewServer(
	redisCfg config.RedisConfig,
	workerCfg config.WorkerConfig,
	warmer handlers.DashboardWarmer,
	defaultTimezone string,
	logger *zap.Logger,
) *Server {
	concurrency := workerCfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	srv := asynq.NewServer(
		queue.RedisOpt(redisCfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueReport: 6,
				"default":         1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error("任务执行失败",
					zap.String("type", task.Type()),
					zap.Int("retried", retried),
					zap.Int("max_retry", maxRetry),
					zap.Error(err),
				)
			}),
		},
	)

	return &Server{
		server: srv,
		mux:    NewMux(warmer, defaultTimezone, logger),
		logger: logger,
	}
}

// NewMux 注册任务处理器
func NewMux(warmer handlers.DashboardWarmer, defaultTimezone string, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	reportHandler := handlers.NewReportHandler(warmer, defaultTimezone, logger)
	mux.HandleFunc(tasks.TypeWarmDashboard, reportHandler.HandleWarmDashboard)
	return mux
}

// Run 启动 Worker 服务器
func (s *Server) Run() error {
	s.logger.Info("Worker 服务器启动中...")
	return s.server.Run(s.mux)
}

// Start 非阻塞启动
func (s *Server) Start() error {
	s.logger.Info("Worker 服务器启动中 (后台)...")
	return s.server.Start(s.mux)
}

// Shutdown 停止 Worker 服务器
func (s *Server) Shutdown() {
	s.logger.Info("Worker 服务器停止中...")
	s.server.Shutdown()
}
