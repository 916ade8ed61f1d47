package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"worktrack/internal/reporting"
)

// DepartmentDashboard 部门看板：四个分支结果，以及可选的个人统计
type DepartmentDashboard struct {
	TenantID       string                          `json:"tenantId"`
	DepartmentID   string                          `json:"departmentId"`
	ReferenceDate  string                          `json:"referenceDate"`
	Timezone       string                          `json:"timezone"`
	Interval       reporting.Interval              `json:"interval"`
	TaskStatistics []reporting.TaskStatisticsRow   `json:"taskStatistics"`
	SixMonths      reporting.SixMonthSeries        `json:"sixMonths"`
	Performance    reporting.DepartmentPerformance `json:"performance"`
	Leaderboard    []reporting.LeaderboardEntry    `json:"leaderboard"`
	UserStats      *reporting.UserStats            `json:"userStats,omitempty"`
	// Degraded 失败并以零值替代的分支
	Degraded []string `json:"degraded"`
	Cached   bool     `json:"cached"`
}

// IsDegraded 是否存在降级分支
func (d *DepartmentDashboard) IsDegraded() bool {
	return len(d.Degraded) > 0
}

// Dashboard 并发计算部门看板
//
// 各分支独立超时，单个分支失败时以零值形状替代并记入 Degraded，
// 全部分支失败时返回 ErrAllBranchesFailed。只有完整结果会写入缓存。
func (s *Service) Dashboard(ctx context.Context, q Query) (*DepartmentDashboard, error) {
	r, err := s.resolve(q, true)
	if err != nil {
		return nil, err
	}
	log := s.withRequestLogger(ctx).With(
		zap.String("tenant_id", r.TenantID),
		zap.String("department_id", r.DepartmentID),
		zap.String("reference_day", r.referenceDay()),
	)

	key := r.cacheKey()
	if s.cacheEnabled() && !r.Refresh {
		var cached DepartmentDashboard
		hit, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			log.Warn("读取看板缓存失败", zap.Error(err))
		case hit:
			cached.Cached = true
			return &cached, nil
		}
	}

	d := &DepartmentDashboard{
		TenantID:       r.TenantID,
		DepartmentID:   r.DepartmentID,
		ReferenceDate:  r.referenceDay(),
		Timezone:       r.window.Location.String(),
		Interval:       r.window.CurrentInterval(),
		TaskStatistics: reporting.EmptyTaskStatistics(r.window),
		SixMonths:      reporting.EmptySixMonthSeries(r.window),
		Performance:    reporting.EmptyDepartmentPerformance(r.window, r.weights),
		Leaderboard:    []reporting.LeaderboardEntry{},
		Degraded:       []string{},
	}

	branches := []struct {
		name string
		run  func(context.Context) error
	}{
		{BranchTaskStatistics, func(ctx context.Context) error {
			rows, err := runBranch(ctx, s, BranchTaskStatistics, r, s.taskStatistics)
			if err == nil {
				d.TaskStatistics = rows
			}
			return err
		}},
		{BranchSixMonths, func(ctx context.Context) error {
			series, err := runBranch(ctx, s, BranchSixMonths, r, s.sixMonths)
			if err == nil {
				d.SixMonths = series
			}
			return err
		}},
		{BranchPerformance, func(ctx context.Context) error {
			perf, err := runBranch(ctx, s, BranchPerformance, r, s.performance)
			if err == nil {
				d.Performance = perf
			}
			return err
		}},
		{BranchLeaderboard, func(ctx context.Context) error {
			board, err := runBranch(ctx, s, BranchLeaderboard, r, s.leaderboard)
			if err == nil {
				d.Leaderboard = board
			}
			return err
		}},
	}
	if r.UserID != "" {
		empty := reporting.EmptyUserStats(reporting.UserRef{ID: r.UserID}, r.Role)
		d.UserStats = &empty
		branches = append(branches, struct {
			name string
			run  func(context.Context) error
		}{BranchUserStats, func(ctx context.Context) error {
			stats, err := runBranch(ctx, s, BranchUserStats, r, s.userStats)
			if err == nil {
				d.UserStats = &stats
			}
			return err
		}})
	}

	// 分支之间互不取消：使用不带 ctx 的 errgroup.Group，错误逐个收集
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs = make([]error, len(branches))
	)
	for i, b := range branches {
		g.Go(func() error {
			err := b.run(ctx)
			mu.Lock()
			errs[i] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		d.Degraded = append(d.Degraded, branches[i].name)
		failures = append(failures, err)
		log.Warn("看板分支降级", zap.String("branch", branches[i].name), zap.Error(err))
	}

	if len(failures) == len(branches) {
		return nil, fmt.Errorf("%w: %s: %w", ErrAllBranchesFailed, strings.Join(d.Degraded, ","), errors.Join(failures...))
	}

	if s.cacheEnabled() && !d.IsDegraded() {
		if err := s.cache.Set(ctx, key, d, s.opts.CacheTTL); err != nil {
			log.Warn("写入看板缓存失败", zap.Error(err))
		}
	}
	return d, nil
}

// Warm 重新计算看板并写入缓存，存在降级分支时返回 ErrWarmupIncomplete
func (s *Service) Warm(ctx context.Context, q Query) error {
	q.Refresh = true
	d, err := s.Dashboard(ctx, q)
	if err != nil {
		return err
	}
	if d.IsDegraded() {
		return fmt.Errorf("%w: %s", ErrWarmupIncomplete, strings.Join(d.Degraded, ","))
	}
	return nil
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.opts.CacheEnabled && s.opts.CacheTTL > 0
}
