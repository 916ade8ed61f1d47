// Package dashboard 报表编排：从存储取数、调用 reporting 计算、并发组合看板
package dashboard

import (
	"context"
	"errors"

	"worktrack/internal/common"
	"worktrack/internal/reporting"
)

var (
	// ErrUserNotFound 用户不存在或不属于该租户
	ErrUserNotFound = errors.New("user not found")
	// ErrAllBranchesFailed 看板的所有分支都失败
	ErrAllBranchesFailed = errors.New("all dashboard branches failed")
	// ErrInvalidQuery 查询缺少租户或部门
	ErrInvalidQuery = errors.New("invalid report query")
	// ErrWarmupIncomplete 预热时存在降级分支，结果未写入缓存
	ErrWarmupIncomplete = errors.New("dashboard warmup incomplete")
)

// WorkItemFilter 任务查询条件，零值字段不过滤
type WorkItemFilter struct {
	Kinds      []reporting.Kind
	Statuses   []reporting.Status
	AssigneeID string
	CreatedBy  string
}

// RoutineLogFilter 例行记录查询条件
type RoutineLogFilter struct {
	PerformedBy string
}

// ActivityFilter 活动记录查询条件
type ActivityFilter struct {
	UserID string
}

// WorkItemStore 任务存储（Assigned / Project），时间范围作用于 created_at
type WorkItemStore interface {
	Query(ctx context.Context, tenantID, departmentID string, r common.DateRange, f WorkItemFilter) ([]reporting.WorkItem, error)
}

// RoutineLogStore 例行记录存储，时间范围作用于记录日期
type RoutineLogStore interface {
	Query(ctx context.Context, tenantID, departmentID string, r common.DateRange, f RoutineLogFilter) ([]reporting.RoutineLogEntry, error)
}

// UserDirectory 用户目录
type UserDirectory interface {
	ListActive(ctx context.Context, tenantID, departmentID string) ([]reporting.UserRef, error)
	Get(ctx context.Context, tenantID, userID string) (reporting.UserRef, error)
}

// ActivityStore 任务活动存储
type ActivityStore interface {
	Query(ctx context.Context, tenantID string, r common.DateRange, f ActivityFilter) ([]reporting.Activity, error)
}

// IsInputError 是否为调用方输入错误
func IsInputError(err error) bool {
	return reporting.IsInputError(err) || errors.Is(err, ErrInvalidQuery)
}
