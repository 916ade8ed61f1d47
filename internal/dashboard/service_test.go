package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"worktrack/internal/cache"
	"worktrack/internal/reporting"
)

func testQuery() Query {
	return Query{TenantID: "T1", DepartmentID: "D1", ReferenceDate: "2024-03-15"}
}

func mustWindow(t *testing.T) reporting.Window {
	t.Helper()
	w, err := reporting.ComputeWindow("2024-03-15", "UTC")
	require.NoError(t, err)
	return w
}

func TestServiceTaskStatistics(t *testing.T) {
	f := newFixture()
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))

	rows, err := svc.TaskStatistics(context.Background(), testQuery())
	require.NoError(t, err)

	want := reporting.BuildTaskStatistics(f.allItems(), f.routines.entries, mustWindow(t))
	assert.Equal(t, want, rows)

	completed := rows[0]
	assert.Equal(t, reporting.StatusCompleted, completed.Status)
	assert.Equal(t, 3, completed.CurrentCount, "a1 与两个已完成的清单项")
	assert.Equal(t, 1, completed.PreviousCount)
}

func TestServicePerformanceAndSixMonths(t *testing.T) {
	f := newFixture()
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))
	w := mustWindow(t)

	perf, err := svc.Performance(context.Background(), testQuery())
	require.NoError(t, err)
	res, err := reporting.ScorePerformance(f.allItems(), f.routines.entries, w, reporting.DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, reporting.NewDepartmentPerformance(res, w), perf)

	series, err := svc.SixMonths(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, reporting.BuildSixMonthSeries(f.allItems(), f.routines.entries, w), series)
	assert.Equal(t, 1, series.Completed[1], "2023-11 的项目任务")
}

func TestServicePerformanceCustomWeights(t *testing.T) {
	f := newFixture()
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))

	q := testQuery()
	q.Weights = &reporting.Weights{Assigned: -1, Project: 1, Routine: 1}
	_, err := svc.Performance(context.Background(), q)
	require.ErrorIs(t, err, reporting.ErrInvalidWeights)
	assert.True(t, IsInputError(err))

	q.Weights = &reporting.Weights{Assigned: 1, Project: 1, Routine: 1}
	perf, err := svc.Performance(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1.0, perf.Breakdown[1].Weight)
}

func TestServiceLeaderboard(t *testing.T) {
	f := newFixture()
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))

	board, err := svc.Leaderboard(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u1"}, lo.Map(board, func(e reporting.LeaderboardEntry, _ int) string { return e.User.ID }))
	assert.InDelta(t, 2.2, board[0].Rating, 1e-9)
	assert.Equal(t, 2, board[0].RoutineTaskCount)
	assert.InDelta(t, 0.9, board[1].Rating, 1e-9)

	q := testQuery()
	q.Limit = 1
	board, err = svc.Leaderboard(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "u2", board[0].User.ID)
}

func TestServiceLeaderboardEmpty(t *testing.T) {
	f := newFixture()
	f.items.items = nil
	f.routines.entries = nil
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))

	board, err := svc.Leaderboard(context.Background(), testQuery())
	require.NoError(t, err)
	assert.NotNil(t, board)
	assert.Empty(t, board)
}

func TestServiceUserStats(t *testing.T) {
	f := newFixture()
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))

	t.Run("按目录中的角色计入项目任务", func(t *testing.T) {
		q := testQuery()
		q.UserID = "m1"
		q.Role = reporting.RoleUser
		stats, err := svc.UserStats(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, reporting.RoleManager, stats.Role)
		assert.Equal(t, 1, stats.ProjectCount)
		assert.Equal(t, 1, stats.PendingCount)
		assert.Equal(t, 2, stats.ActivityCount)
		assert.Equal(t, "Mallory", stats.User.Name)
	})

	t.Run("普通用户", func(t *testing.T) {
		q := testQuery()
		q.UserID = "u1"
		stats, err := svc.UserStats(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.AssignedCount)
		assert.Equal(t, 0, stats.RoutineCount, "窗口外的例行记录不计入")
		assert.Equal(t, 1, stats.CompletedCount)
		assert.Equal(t, reporting.PriorityBreakdown{High: 1, Low: 1}, stats.PriorityBreakdown)
	})

	t.Run("用户不存在", func(t *testing.T) {
		q := testQuery()
		q.UserID = "ghost"
		_, err := svc.UserStats(context.Background(), q)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("缺少用户", func(t *testing.T) {
		_, err := svc.UserStats(context.Background(), testQuery())
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestServiceUserRating(t *testing.T) {
	f := newFixture()
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))

	q := testQuery()
	q.UserID = "u2"
	entry, err := svc.UserRating(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "Bob", entry.User.Name)
	assert.Equal(t, 3, entry.TotalCompleted)
	assert.InDelta(t, 2.2, entry.Rating, 1e-9)

	q.UserID = "m1"
	entry, err = svc.UserRating(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 0.0, entry.Rating, "未完成任何任务时评分为 0")

	q.UserID = "ghost"
	_, err = svc.UserRating(context.Background(), q)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestServiceInvalidQuery(t *testing.T) {
	f := newFixture()
	svc := NewService(f.deps(), DefaultOptions(), zap.NewNop())

	tests := []struct {
		name   string
		mutate func(q *Query)
		target error
	}{
		{"非法日期", func(q *Query) { q.ReferenceDate = "2024-13-45" }, reporting.ErrInvalidDate},
		{"非法时区", func(q *Query) { q.Timezone = "Mars/Olympus" }, reporting.ErrInvalidTimezone},
		{"缺少租户", func(q *Query) { q.TenantID = " " }, ErrInvalidQuery},
		{"缺少部门", func(q *Query) { q.DepartmentID = "" }, ErrInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := testQuery()
			tt.mutate(&q)
			_, err := svc.TaskStatistics(context.Background(), q)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, IsInputError(err))
		})
	}
	assert.Zero(t, f.items.calls.Load(), "输入错误时不访问存储")
}

func TestServiceStoreErrorPropagates(t *testing.T) {
	f := newFixture()
	f.items.err = errStoreDown
	svc := NewService(f.deps(), DefaultOptions(), zaptest.NewLogger(t))

	_, err := svc.Performance(context.Background(), testQuery())
	assert.ErrorIs(t, err, errStoreDown)
	assert.False(t, IsInputError(err))
}

func TestServiceBranchTimeout(t *testing.T) {
	f := newFixture()
	f.users.block = true
	opts := DefaultOptions()
	opts.BranchTimeout = 50 * time.Millisecond
	svc := NewService(f.deps(), opts, zaptest.NewLogger(t))

	start := time.Now()
	_, err := svc.Leaderboard(context.Background(), testQuery())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(Deps{Cache: cache.NewMemoryReportCache(4)}, Options{}, nil)
	assert.Equal(t, "UTC", svc.opts.Timezone)
	assert.Equal(t, reporting.DefaultWeights(), svc.opts.Weights)
	assert.Equal(t, 10, svc.opts.LeaderboardLimit)
	assert.Equal(t, 5*time.Second, svc.opts.BranchTimeout)
	assert.False(t, svc.cacheEnabled(), "CacheTTL 为 0 时不使用缓存")
}

func observedService(t *testing.T, f *fixture, c cache.ReportCache, opts Options) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	deps := f.deps()
	deps.Cache = c
	return NewService(deps, opts, zap.New(core)), logs
}
