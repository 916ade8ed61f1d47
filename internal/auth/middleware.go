package auth

import (
	"errors"

	"worktrack/internal/common"
	"worktrack/internal/reporting"
	"worktrack/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextKey 上下文键类型
type ContextKey string

// UserContextKey 用户上下文键
const UserContextKey ContextKey = "user"

// UserContext 用户上下文
type UserContext struct {
	UserID       string
	TenantID     string
	DepartmentID string
	Role         reporting.Role
}

// AuthMiddleware JWT 认证中间件
//
// 验证通过后用户信息写入 gin 上下文，同时以 tenant.TenantContext 注入请求的 context.Context。
func AuthMiddleware(jwtService *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.AbortWithError(c, common.CodeUnauthorized, "缺少认证令牌")
			return
		}

		token := ExtractTokenFromBearer(authHeader)
		if token == "" {
			common.AbortWithError(c, common.CodeUnauthorized, "无效的令牌格式")
			return
		}

		claims, err := jwtService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			msg := "令牌验证失败"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "令牌已过期"
			case errors.Is(err, ErrTokenRevoked):
				msg = "令牌已失效"
			}
			common.AbortWithError(c, common.CodeUnauthorized, msg)
			return
		}

		userCtx := &UserContext{
			UserID:       claims.UserID,
			TenantID:     claims.TenantID,
			DepartmentID: claims.DepartmentID,
			Role:         claims.Role,
		}
		c.Set(string(UserContextKey), userCtx)
		c.Set("tenant_id", userCtx.TenantID)
		c.Set("user_id", userCtx.UserID)

		ctx := tenant.WithTenantContext(c.Request.Context(), userCtx.TenantContext())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole 角色检查中间件
func RequireRole(roles ...reporting.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			common.AbortWithError(c, common.CodeUnauthorized, "")
			return
		}
		for _, r := range roles {
			if userCtx.Role == r {
				c.Next()
				return
			}
		}
		common.AbortWithError(c, common.CodeForbidden, "角色权限不足")
	}
}

// TenantContext 转换为租户上下文
func (u *UserContext) TenantContext() tenant.TenantContext {
	return tenant.TenantContext{
		TenantID:     u.TenantID,
		DepartmentID: u.DepartmentID,
		UserID:       u.UserID,
		Role:         u.Role,
	}
}

// GetUserContext 从 Gin Context 获取用户上下文
func GetUserContext(c *gin.Context) (*UserContext, bool) {
	userCtx, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil, false
	}
	ctx, ok := userCtx.(*UserContext)
	return ctx, ok
}
