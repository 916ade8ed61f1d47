package api

import (
	"worktrack/internal/metrics"
	"worktrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置并返回 Gin 路由
func SetupRouter(container *AppContainer) *gin.Engine {
	if mode := container.Config.Server.Mode; mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(RequestLogger())
	router.Use(CORS())

	// Prometheus 指标收集中间件
	router.Use(metrics.PrometheusMiddleware())

	RegisterRoutes(router, container, container.InitHandlers())
	return router
}
