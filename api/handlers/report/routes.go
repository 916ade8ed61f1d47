package report

import (
	"worktrack/internal/middleware"
	"worktrack/internal/reporting"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes 注册报表路由，group 之前需已完成认证
func RegisterRoutes(group *gin.RouterGroup, h *Handler, log *zap.Logger) {
	departments := group.Group("/departments/:departmentId", middleware.DepartmentScope("departmentId", log))
	{
		departments.GET("/task-statistics", h.GetTaskStatistics)
		departments.GET("/six-months", h.GetSixMonths)
		departments.GET("/performance", h.GetPerformance)
		departments.GET("/leaderboard", h.GetLeaderboard)
		departments.GET("/dashboard", h.GetDashboard)
		departments.POST("/dashboard/warm",
			middleware.RequireRole(reporting.RoleManager, reporting.RoleAdmin, reporting.RoleSuperAdmin),
			h.WarmDashboard,
		)
	}

	users := group.Group("/users/:userId", middleware.UserScope("userId"))
	{
		users.GET("/stats", h.GetUserStats)
		users.GET("/rating", h.GetUserRating)
	}

	group.GET("/queue", middleware.RequireRole(reporting.RoleAdmin, reporting.RoleSuperAdmin), h.GetQueueStats)
}
