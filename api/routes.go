package api

import (
	"worktrack/api/handlers/report"
	"worktrack/internal/auth"
	"worktrack/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册所有 API 路由
func RegisterRoutes(router *gin.Engine, container *AppContainer, handlers *Handlers) {
	// 公开端点（不需要认证）
	var queueStats QueueStatsReader
	if container.QueueInspector != nil {
		queueStats = container.QueueInspector
	}
	router.GET("/health", HealthCheck())
	router.GET("/ready", ReadinessCheck(container.DB, container.Redis, queueStats))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	apiV1.Use(
		auth.AuthMiddleware(container.JWTService),
		middleware.RateLimitByTenant(container.RateLimiter),
	)
	registerReportRoutes(apiV1, container, handlers)
}

// registerReportRoutes 注册报表路由
func registerReportRoutes(apiGroup *gin.RouterGroup, c *AppContainer, h *Handlers) {
	report.RegisterRoutes(apiGroup.Group("/reports"), h.Report, c.Logger.Named("scope"))
}
