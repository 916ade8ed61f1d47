package dashboard

import (
	"fmt"
	"strings"
	"time"

	"worktrack/internal/cache"
	"worktrack/internal/common"
	"worktrack/internal/reporting"
)

// Options 报表服务配置
type Options struct {
	Timezone         string
	Weights          reporting.Weights
	LeaderboardLimit int
	BranchTimeout    time.Duration
	CacheEnabled     bool
	CacheTTL         time.Duration
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{
		Timezone:         "UTC",
		Weights:          reporting.DefaultWeights(),
		LeaderboardLimit: 10,
		BranchTimeout:    5 * time.Second,
		CacheEnabled:     true,
		CacheTTL:         10 * time.Minute,
	}
}

// Query 一次报表请求的参数
type Query struct {
	TenantID      string
	DepartmentID  string
	ReferenceDate string
	// Timezone 为空时使用服务默认时区
	Timezone string
	// Weights 为空时使用服务默认权重
	Weights *reporting.Weights
	// Limit <=0 时使用服务默认排行长度
	Limit int
	// UserID 非空时看板附带该用户的个人统计
	UserID string
	Role   reporting.Role
	// Refresh 跳过缓存读取，重新计算并回写
	Refresh bool
}

// resolved 补全默认值并计算窗口后的查询
type resolved struct {
	Query
	timezone string
	window   reporting.Window
	weights  reporting.Weights
	limit    int
}

func (s *Service) resolve(q Query, needDepartment bool) (resolved, error) {
	q.TenantID = strings.TrimSpace(q.TenantID)
	q.DepartmentID = strings.TrimSpace(q.DepartmentID)
	if q.TenantID == "" {
		return resolved{}, fmt.Errorf("%w: tenant is required", ErrInvalidQuery)
	}
	if needDepartment && q.DepartmentID == "" {
		return resolved{}, fmt.Errorf("%w: department is required", ErrInvalidQuery)
	}

	r := resolved{Query: q, timezone: q.Timezone, weights: s.opts.Weights, limit: q.Limit}
	if strings.TrimSpace(r.timezone) == "" {
		r.timezone = s.opts.Timezone
	}
	if q.Weights != nil {
		r.weights = *q.Weights
	}
	if err := r.weights.Validate(); err != nil {
		return resolved{}, err
	}
	if r.limit <= 0 {
		r.limit = s.opts.LeaderboardLimit
	}
	if r.Role == "" {
		r.Role = reporting.RoleUser
	}

	w, err := reporting.ComputeWindow(q.ReferenceDate, r.timezone)
	if err != nil {
		return resolved{}, err
	}
	r.window = w
	return r, nil
}

func (r resolved) referenceDay() string {
	return r.window.DayKey(r.window.Reference)
}

func (r resolved) current() common.DateRange {
	return common.DateRange{Start: r.window.CurrentStart, End: r.window.CurrentEnd}
}

// comparison 当前与上一窗口
func (r resolved) comparison() common.DateRange {
	return common.DateRange{Start: r.window.PreviousStart, End: r.window.CurrentEnd}
}

func (r resolved) sixMonths() common.DateRange {
	return common.DateRange{Start: r.window.SixMonthStart, End: r.window.CurrentEnd}
}

func (r resolved) cacheKey() string {
	return cache.DashboardKey(cache.DashboardKeyParams{
		TenantID:         r.TenantID,
		DepartmentID:     r.DepartmentID,
		ReferenceDay:     r.referenceDay(),
		Timezone:         r.window.Location.String(),
		Weights:          r.weights,
		LeaderboardLimit: r.limit,
		UserID:           r.UserID,
		Role:             r.Role,
	})
}
