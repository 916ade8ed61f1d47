package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"worktrack/internal/cache"
	"worktrack/internal/common"
	"worktrack/internal/logger"
	"worktrack/internal/metrics"
	"worktrack/internal/reporting"
)

// 看板分支名，同时用作指标标签与降级列表
const (
	BranchTaskStatistics = "task_statistics"
	BranchSixMonths      = "six_months"
	BranchPerformance    = "performance"
	BranchLeaderboard    = "leaderboard"
	BranchUserStats      = "user_stats"
	BranchUserRating     = "user_rating"
)

// Deps 报表服务依赖
type Deps struct {
	Items      WorkItemStore
	Routines   RoutineLogStore
	Users      UserDirectory
	Activities ActivityStore
	// Cache 为空时不使用缓存
	Cache cache.ReportCache
}

// Service 报表服务
type Service struct {
	items      WorkItemStore
	routines   RoutineLogStore
	users      UserDirectory
	activities ActivityStore
	cache      cache.ReportCache
	opts       Options
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewService 创建报表服务
func NewService(deps Deps, opts Options, log *zap.Logger) *Service {
	defaults := DefaultOptions()
	if opts.Timezone == "" {
		opts.Timezone = defaults.Timezone
	}
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = defaults.LeaderboardLimit
	}
	if opts.BranchTimeout <= 0 {
		opts.BranchTimeout = defaults.BranchTimeout
	}
	if opts.Weights == (reporting.Weights{}) {
		opts.Weights = defaults.Weights
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		items:      deps.Items,
		routines:   deps.Routines,
		users:      deps.Users,
		activities: deps.Activities,
		cache:      deps.Cache,
		opts:       opts,
		logger:     log,
		tracer:     otel.Tracer("worktrack/dashboard"),
	}
}

// TaskStatistics 近 30 天按状态的日序列与环比
func (s *Service) TaskStatistics(ctx context.Context, q Query) ([]reporting.TaskStatisticsRow, error) {
	r, err := s.resolve(q, true)
	if err != nil {
		return nil, err
	}
	return runBranch(ctx, s, BranchTaskStatistics, r, s.taskStatistics)
}

// SixMonths 近六个月按状态的月序列
func (s *Service) SixMonths(ctx context.Context, q Query) (reporting.SixMonthSeries, error) {
	r, err := s.resolve(q, true)
	if err != nil {
		return reporting.SixMonthSeries{}, err
	}
	return runBranch(ctx, s, BranchSixMonths, r, s.sixMonths)
}

// Performance 部门加权完成率
func (s *Service) Performance(ctx context.Context, q Query) (reporting.DepartmentPerformance, error) {
	r, err := s.resolve(q, true)
	if err != nil {
		return reporting.DepartmentPerformance{}, err
	}
	return runBranch(ctx, s, BranchPerformance, r, s.performance)
}

// Leaderboard 部门排行榜
func (s *Service) Leaderboard(ctx context.Context, q Query) ([]reporting.LeaderboardEntry, error) {
	r, err := s.resolve(q, true)
	if err != nil {
		return nil, err
	}
	return runBranch(ctx, s, BranchLeaderboard, r, s.leaderboard)
}

// UserStats 单个用户的个人统计，DepartmentID 为空时统计整个租户
func (s *Service) UserStats(ctx context.Context, q Query) (reporting.UserStats, error) {
	r, err := s.resolve(q, false)
	if err != nil {
		return reporting.UserStats{}, err
	}
	if r.UserID == "" {
		return reporting.UserStats{}, fmt.Errorf("%w: user is required", ErrInvalidQuery)
	}
	return runBranch(ctx, s, BranchUserStats, r, s.userStats)
}

// UserRating 单个用户的排行评分，未完成任何任务时评分为 0
func (s *Service) UserRating(ctx context.Context, q Query) (reporting.LeaderboardEntry, error) {
	r, err := s.resolve(q, false)
	if err != nil {
		return reporting.LeaderboardEntry{}, err
	}
	if r.UserID == "" {
		return reporting.LeaderboardEntry{}, fmt.Errorf("%w: user is required", ErrInvalidQuery)
	}
	return runBranch(ctx, s, BranchUserRating, r, s.userRating)
}

// runBranch 在独立超时内执行一个报表分支，记录耗时、失败与 span
//
// 分支函数在单独的 goroutine 中运行，超时后立即返回，不等待忽略 ctx 的存储实现。
func runBranch[T any](ctx context.Context, s *Service, name string, r resolved, fn func(context.Context, resolved) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "report."+name, trace.WithAttributes(
		attribute.String("tenant_id", r.TenantID),
		attribute.String("department_id", r.DepartmentID),
		attribute.String("reference_day", r.referenceDay()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opts.BranchTimeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	start := time.Now()

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("branch %s panic: %v", name, p)}
			}
		}()
		v, err := fn(ctx, r)
		done <- result{value: v, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: fmt.Errorf("branch %s: %w", name, ctx.Err())}
	}

	metrics.ReportBranchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if res.err != nil {
		metrics.ReportBranchFailures.WithLabelValues(name).Inc()
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
		var zero T
		return zero, res.err
	}
	span.SetStatus(codes.Ok, "")
	return res.value, nil
}

// fetchWork 并发读取任务与例行记录
func (s *Service) fetchWork(ctx context.Context, r resolved, rng rangeFn, itemFilter WorkItemFilter, logFilter RoutineLogFilter) ([]reporting.WorkItem, []reporting.RoutineLogEntry, error) {
	var (
		items   []reporting.WorkItem
		entries []reporting.RoutineLogEntry
	)
	dr := rng(r)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.items.Query(gctx, r.TenantID, r.DepartmentID, dr, itemFilter)
		if err != nil {
			return fmt.Errorf("query work items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.routines.Query(gctx, r.TenantID, r.DepartmentID, dr, logFilter)
		if err != nil {
			return fmt.Errorf("query routine logs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return items, entries, nil
}

func (s *Service) taskStatistics(ctx context.Context, r resolved) ([]reporting.TaskStatisticsRow, error) {
	items, entries, err := s.fetchWork(ctx, r, resolved.comparison, WorkItemFilter{}, RoutineLogFilter{})
	if err != nil {
		return nil, err
	}
	return reporting.BuildTaskStatistics(items, entries, r.window), nil
}

func (s *Service) sixMonths(ctx context.Context, r resolved) (reporting.SixMonthSeries, error) {
	items, entries, err := s.fetchWork(ctx, r, resolved.sixMonths, WorkItemFilter{}, RoutineLogFilter{})
	if err != nil {
		return reporting.SixMonthSeries{}, err
	}
	return reporting.BuildSixMonthSeries(items, entries, r.window), nil
}

func (s *Service) performance(ctx context.Context, r resolved) (reporting.DepartmentPerformance, error) {
	items, entries, err := s.fetchWork(ctx, r, resolved.current, WorkItemFilter{}, RoutineLogFilter{})
	if err != nil {
		return reporting.DepartmentPerformance{}, err
	}
	res, err := reporting.ScorePerformance(items, entries, r.window, r.weights)
	if err != nil {
		return reporting.DepartmentPerformance{}, err
	}
	return reporting.NewDepartmentPerformance(res, r.window), nil
}

func (s *Service) leaderboard(ctx context.Context, r resolved) ([]reporting.LeaderboardEntry, error) {
	var users []reporting.UserRef
	var items []reporting.WorkItem
	var entries []reporting.RoutineLogEntry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.ListActive(gctx, r.TenantID, r.DepartmentID)
		if err != nil {
			return fmt.Errorf("list active users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, entries, err = s.fetchWork(gctx, r, resolved.current, WorkItemFilter{
			Kinds:    []reporting.Kind{reporting.KindAssigned},
			Statuses: []reporting.Status{reporting.StatusCompleted},
		}, RoutineLogFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board := reporting.Rank(users, items, entries, r.window, reporting.RankOptions{Limit: r.limit})
	if board == nil {
		board = []reporting.LeaderboardEntry{}
	}
	return board, nil
}

// lookupUser 查询用户，目录中不存在时返回 ErrUserNotFound
func (s *Service) lookupUser(ctx context.Context, r resolved) (reporting.UserRef, error) {
	user, err := s.users.Get(ctx, r.TenantID, r.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return reporting.UserRef{}, err
		}
		return reporting.UserRef{}, fmt.Errorf("get user %s: %w", r.UserID, err)
	}
	return user, nil
}

func (s *Service) userStats(ctx context.Context, r resolved) (reporting.UserStats, error) {
	var (
		user       reporting.UserRef
		assigned   []reporting.WorkItem
		projects   []reporting.WorkItem
		entries    []reporting.RoutineLogEntry
		activities []reporting.Activity
	)
	current := r.current()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.lookupUser(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		assigned, err = s.items.Query(gctx, r.TenantID, r.DepartmentID, current, WorkItemFilter{
			Kinds:      []reporting.Kind{reporting.KindAssigned},
			AssigneeID: r.UserID,
		})
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.items.Query(gctx, r.TenantID, r.DepartmentID, current, WorkItemFilter{
			Kinds:     []reporting.Kind{reporting.KindProject},
			CreatedBy: r.UserID,
		})
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.routines.Query(gctx, r.TenantID, r.DepartmentID, current, RoutineLogFilter{PerformedBy: r.UserID})
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.activities.Query(gctx, r.TenantID, current, ActivityFilter{UserID: r.UserID})
		return err
	})
	if err := g.Wait(); err != nil {
		return reporting.UserStats{}, err
	}

	// 项目任务是否计入取决于被统计用户的角色，目录未记录时退回到请求方角色
	role := r.Role
	if user.Role != "" {
		role = user.Role
	}

	items := make([]reporting.WorkItem, 0, len(assigned)+len(projects))
	items = append(items, assigned...)
	items = append(items, projects...)

	return reporting.AggregateUserStats(reporting.UserStatsInput{
		User:       user,
		Role:       role,
		Items:      items,
		Entries:    entries,
		Activities: activities,
	}, r.window), nil
}

func (s *Service) userRating(ctx context.Context, r resolved) (reporting.LeaderboardEntry, error) {
	user, err := s.lookupUser(ctx, r)
	if err != nil {
		return reporting.LeaderboardEntry{}, err
	}

	items, entries, err := s.fetchWork(ctx, r, resolved.current, WorkItemFilter{
		Kinds:      []reporting.Kind{reporting.KindAssigned},
		Statuses:   []reporting.Status{reporting.StatusCompleted},
		AssigneeID: r.UserID,
	}, RoutineLogFilter{PerformedBy: r.UserID})
	if err != nil {
		return reporting.LeaderboardEntry{}, err
	}

	board := reporting.Rank([]reporting.UserRef{user}, items, entries, r.window, reporting.RankOptions{SingleUserID: r.UserID})
	if len(board) == 0 {
		return reporting.LeaderboardEntry{User: user}, nil
	}
	return board[0], nil
}

// rangeFn 从查询中选取取数的时间范围
type rangeFn func(resolved) common.DateRange

// withRequestLogger 带 trace/request id 的日志
func (s *Service) withRequestLogger(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}
