package middleware

import (
	"strings"

	"worktrack/internal/common"
	"worktrack/internal/reporting"
	tenantctx "worktrack/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DepartmentScope 校验路径中的部门是否在调用者可读范围内
// 仅当上游已经通过 AuthMiddleware 注入 TenantContext 后使用。
func DepartmentScope(param string, logger *zap.Logger) gin.HandlerFunc {
	log := logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		tc, ok := tenantctx.FromContext(c.Request.Context())
		if !ok {
			log.Warn("missing tenant context before department scope", zap.String("path", c.FullPath()))
			common.AbortWithError(c, common.CodeUnauthorized, "")
			return
		}

		departmentID := strings.TrimSpace(c.Param(param))
		if departmentID == "" {
			common.AbortWithError(c, common.CodeInvalidRequest, "缺少部门")
			return
		}
		if !tc.CanReadDepartment(departmentID) {
			log.Warn("department access denied",
				zap.String("tenant_id", tc.TenantID),
				zap.String("user_id", tc.UserID),
				zap.String("department_id", departmentID),
			)
			common.AbortWithError(c, common.CodeForbidden, "无权访问该部门的报表")
			return
		}

		c.Set("department_id", departmentID)
		c.Next()
	}
}

// UserScope 校验路径中的用户是否在调用者可读范围内
func UserScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, ok := tenantctx.FromContext(c.Request.Context())
		if !ok {
			common.AbortWithError(c, common.CodeUnauthorized, "")
			return
		}
		if !tc.CanReadUser(strings.TrimSpace(c.Param(param))) {
			common.AbortWithError(c, common.CodeForbidden, "只能查看自己的统计")
			return
		}
		c.Next()
	}
}

// RequireRole 要求调用者具备指定角色之一
func RequireRole(roles ...reporting.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, ok := tenantctx.FromContext(c.Request.Context())
		if !ok {
			common.AbortWithError(c, common.CodeUnauthorized, "")
			return
		}
		if !lo.Contains(roles, tc.Role) {
			common.AbortWithError(c, common.CodeForbidden, "角色权限不足")
			return
		}
		c.Next()
	}
}
