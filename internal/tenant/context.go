// Package tenant 请求级的租户身份
package tenant

import (
	"context"

	"worktrack/internal/reporting"
)

// TenantContext carries tenant and user identity information through the request lifecycle.
// It is populated once at the HTTP boundary from the verified token.
type TenantContext struct {
	TenantID     string
	DepartmentID string
	UserID       string
	Role         reporting.Role
}

// Elevated 是否为管理类角色
func (tc TenantContext) Elevated() bool {
	return tc.Role.Elevated()
}

// CanReadUser 普通用户只能读取自己的统计，管理类角色可读取租户内任意用户
func (tc TenantContext) CanReadUser(userID string) bool {
	return tc.Elevated() || tc.UserID == userID
}

// CanReadDepartment 普通用户与经理只能读取自己所在部门，管理员不受限
func (tc TenantContext) CanReadDepartment(departmentID string) bool {
	switch tc.Role {
	case reporting.RoleAdmin, reporting.RoleSuperAdmin:
		return true
	}
	return tc.DepartmentID == departmentID
}

type tenantContextKey struct{}

// WithTenantContext attaches the given TenantContext to the provided context and returns
// a derived context.
func WithTenantContext(ctx context.Context, tc TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tc)
}

// FromContext attempts to retrieve a TenantContext from the given context. The second
// return value indicates whether a TenantContext was present.
func FromContext(ctx context.Context) (TenantContext, bool) {
	tc, ok := ctx.Value(tenantContextKey{}).(TenantContext)
	return tc, ok
}

// MustTenantContext retrieves the TenantContext from the given context and panics if it
// is missing. Its absence after the auth middleware indicates a programming error.
func MustTenantContext(ctx context.Context) TenantContext {
	tc, ok := FromContext(ctx)
	if !ok {
		panic("tenant: TenantContext missing from context")
	}
	return tc
}
