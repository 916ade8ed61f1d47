package api

import (
	"context"
	"fmt"
	"os"
	"strings"

	"worktrack/api/handlers/report"
	"worktrack/internal/auth"
	"worktrack/internal/cache"
	"worktrack/internal/config"
	"worktrack/internal/dashboard"
	"worktrack/internal/infra"
	"worktrack/internal/infra/queue"
	"worktrack/internal/logger"
	"worktrack/internal/middleware"
	"worktrack/internal/store"
	"worktrack/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppContainer 应用依赖容器
type AppContainer struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  redis.UniversalClient

	JWTService  *auth.JWTService
	ReportCache cache.ReportCache
	Dashboard   *dashboard.Service
	RateLimiter *middleware.RateLimiter

	// 以下在 Redis 未启用时为 nil
	QueueClient    queue.Client
	QueueInspector *queue.Inspector
	Worker         *worker.Server

	Logger *zap.Logger
}

// InitContainer 按配置装配依赖
func InitContainer(db *gorm.DB, cfg *config.Config) (*AppContainer, error) {
	c := &AppContainer{
		Config: cfg,
		DB:     db,
		Logger: logger.Get(),
	}

	if cfg.Database.AutoMigrate {
		if err := infra.AutoMigrate(db, store.Models()...); err != nil {
			return nil, err
		}
	}

	c.initRedis()
	if err := c.initAuth(); err != nil {
		return nil, err
	}
	c.initReporting()
	c.initQueue()

	c.RateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Server.RateLimitRPS,
		BurstSize:         cfg.Server.RateLimitBurst,
	})
	return c, nil
}

// InitHandlers 构建 HTTP Handler
func (c *AppContainer) InitHandlers() *Handlers {
	var inspector report.QueueStatsProvider
	if c.QueueInspector != nil {
		inspector = c.QueueInspector
	}
	return &Handlers{
		Report: report.NewHandler(c.Dashboard, c.QueueClient, inspector, report.Config{
			DefaultTimezone: c.Config.Report.Timezone,
			DefaultWeights:  c.Config.Report.Weights,
		}, c.Logger.Named("report")),
	}
}

// Handlers HTTP Handler 集合
type Handlers struct {
	Report *report.Handler
}

func (c *AppContainer) initRedis() {
	if !c.Config.Redis.Enabled {
		logger.Info("Redis 未启用，报表缓存使用进程内实现，后台预热关闭")
		return
	}
	c.Config.Redis = normalizeRedisConfig(c.Config.Redis)

	client, err := infra.InitRedis(&c.Config.Redis)
	if err != nil {
		logger.Warn("Redis 不可用，报表缓存退回进程内实现", zap.Error(err))
		return
	}
	c.Redis = client
}

func (c *AppContainer) initAuth() error {
	secret := strings.TrimSpace(c.Config.Auth.JWTSecret)
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("JWT_SECRET_KEY"))
	}
	if secret == "" {
		// 生产模式必须显式配置密钥
		if strings.EqualFold(c.Config.Server.Mode, "release") {
			return fmt.Errorf("auth.jwt_secret 未配置，生产环境禁止使用默认密钥")
		}
		secret = "dev_jwt_secret_change_in_production"
		logger.Warn("JWT 密钥未配置，已回退为开发默认值")
	}
	c.JWTService = auth.NewJWTService(secret, c.Config.Auth.Issuer, c.Config.Auth.AccessTokenTTL, c.Redis)
	return nil
}

func (c *AppContainer) initReporting() {
	if c.Redis != nil {
		c.ReportCache = cache.NewRedisReportCache(c.Redis)
	} else {
		c.ReportCache = cache.NewMemoryReportCache(c.Config.Report.MemoryCacheSize)
	}

	deps := store.New(c.DB).Deps()
	deps.Cache = c.ReportCache

	rc := c.Config.Report
	c.Dashboard = dashboard.NewService(deps, dashboard.Options{
		Timezone:         rc.Timezone,
		Weights:          rc.Weights,
		LeaderboardLimit: rc.LeaderboardLimit,
		BranchTimeout:    rc.BranchTimeout,
		CacheEnabled:     rc.CacheEnabled,
		CacheTTL:         rc.CacheTTL,
	}, c.Logger.Named("dashboard"))
}

func (c *AppContainer) initQueue() {
	if c.Redis == nil {
		return
	}
	c.QueueClient = queue.NewClient(c.Config.Redis)
	c.QueueInspector = queue.NewInspector(c.Config.Redis)
	if c.Config.Worker.Enabled {
		c.Worker = worker.NewServer(c.Config.Redis, c.Config.Worker, c.Dashboard, c.Config.Report.Timezone, c.Logger.Named("worker"))
	}
}

// Close 释放容器持有的连接
func (c *AppContainer) Close(ctx context.Context) {
	if c.Worker != nil {
		c.Worker.Shutdown()
	}
	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warn("关闭队列客户端失败", zap.Error(err))
		}
	}
	if c.QueueInspector != nil {
		if err := c.QueueInspector.Close(); err != nil {
			logger.Warn("关闭队列检查器失败", zap.Error(err))
		}
	}
	if c.Redis != nil {
		if err := infra.CloseRedis(); err != nil {
			logger.Warn("关闭 Redis 失败", zap.Error(err))
		}
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("资源释放超时", zap.Error(err))
	}
}
