package reporting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userStatsFixture(t *testing.T, role Role) (UserStatsInput, Window) {
	w := mustWindow(t, "2024-03-15")
	in := UserStatsInput{
		User: UserRef{ID: "u1", Name: "Alice"},
		Role: role,
		Items: []WorkItem{
			{ID: "a1", Kind: KindAssigned, Status: StatusCompleted, Priority: PriorityHigh, CreatedAt: day(2024, 3, 1, 0), Assignees: []string{"u1", "u2"}},
			{ID: "a2", Kind: KindAssigned, Status: StatusToDo, Priority: PriorityLow, CreatedAt: day(2024, 3, 2, 0), Assignees: []string{"u1"}},
			{ID: "a3", Kind: KindAssigned, Status: StatusCompleted, Priority: PriorityHigh, CreatedAt: day(2024, 3, 2, 0), Assignees: []string{"u2"}},
			{ID: "p1", Kind: KindProject, Status: StatusCompleted, Priority: PriorityMedium, CreatedAt: day(2024, 3, 3, 0), CreatedBy: "u1"},
			{ID: "p2", Kind: KindProject, Status: StatusCompleted, Priority: PriorityMedium, CreatedAt: day(2024, 1, 3, 0), CreatedBy: "u1"},
		},
		Entries: []RoutineLogEntry{
			{PerformedBy: "u1", Date: day(2024, 3, 4, 0), Items: []ChecklistItem{{IsCompleted: true}, {IsCompleted: true}, {IsCompleted: false}}},
			{PerformedBy: "u2", Date: day(2024, 3, 4, 0), Items: []ChecklistItem{{IsCompleted: true}}},
		},
		Activities: []Activity{
			{UserID: "u1", At: day(2024, 3, 1, 1)},
			{UserID: "u1", At: day(2024, 3, 2, 1)},
			{UserID: "u1", At: day(2024, 3, 3, 1)},
			{UserID: "u1", At: day(2024, 3, 4, 1)},
			{UserID: "u1", At: day(2024, 1, 4, 1)},
			{UserID: "u2", At: day(2024, 3, 4, 1)},
		},
	}
	return in, w
}

func TestAggregateUserStatsOrdinaryUser(t *testing.T) {
	in, w := userStatsFixture(t, RoleUser)

	stats := AggregateUserStats(in, w)
	assert.Equal(t, 2, stats.AssignedCount)
	assert.Equal(t, 0, stats.ProjectCount, "普通用户不计项目任务")
	assert.Equal(t, 3, stats.RoutineCount)
	assert.Equal(t, 3, stats.CompletedCount)
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, 5, stats.TotalTaskCount)
	assert.Equal(t, 4, stats.ActivityCount)
	assert.Equal(t, PriorityBreakdown{High: 1, Low: 1}, stats.PriorityBreakdown)

	assert.InDelta(t, 0.5, stats.CompletionScore, 1e-9)
	assert.InDelta(t, 0.4, stats.ActivityScore, 1e-9)
	assert.InDelta(t, 0.25, stats.VolumeScore, 1e-9)
	assert.InDelta(t, 2.7, stats.Rating, 1e-9)
}

func TestAggregateUserStatsManager(t *testing.T) {
	in, w := userStatsFixture(t, RoleManager)

	stats := AggregateUserStats(in, w)
	assert.Equal(t, 1, stats.ProjectCount)
	assert.Equal(t, 4, stats.CompletedCount)
	assert.Equal(t, 6, stats.TotalTaskCount)
	assert.Equal(t, PriorityBreakdown{High: 1, Medium: 1, Low: 1}, stats.PriorityBreakdown)
	assert.InDelta(t, 2.0/3.0, stats.CompletionScore, 1e-9)
	assert.InDelta(t, 2.9, stats.Rating, 1e-9)
}

func TestAggregateUserStatsBounds(t *testing.T) {
	w := mustWindow(t, "2024-03-15")

	empty := AggregateUserStats(UserStatsInput{User: UserRef{ID: "nobody"}, Role: RoleUser}, w)
	assert.Equal(t, 1.0, empty.Rating)
	assert.Equal(t, 0.0, empty.CompletionScore)
	assert.Equal(t, 0.0, empty.ActivityScore)

	in := UserStatsInput{User: UserRef{ID: "u1"}, Role: RoleAdmin}
	for i := 0; i < 25; i++ {
		in.Items = append(in.Items, WorkItem{Kind: KindAssigned, Status: StatusCompleted, Priority: "Urgent", CreatedAt: day(2024, 3, 10, 0), Assignees: []string{"u1"}})
	}
	for i := 0; i < 200; i++ {
		in.Activities = append(in.Activities, Activity{UserID: "u1", At: day(2024, 3, 11, 0)})
	}
	full := AggregateUserStats(in, w)
	assert.Equal(t, 5.0, full.Rating)
	assert.Equal(t, 1.0, full.ActivityScore)
	assert.Equal(t, 1.0, full.VolumeScore)
	assert.Equal(t, PriorityBreakdown{}, full.PriorityBreakdown, "未知优先级不计入分布")
}

// 相同输入两次计算的序列化结果完全一致
func TestReportingIdempotent(t *testing.T) {
	in, w := userStatsFixture(t, RoleManager)

	encode := func() []byte {
		perf, err := ScorePerformance(in.Items, in.Entries, w, DefaultWeights())
		require.NoError(t, err)
		out, err := json.Marshal(map[string]any{
			"stats":     AggregateUserStats(in, w),
			"board":     Rank([]UserRef{in.User, {ID: "u2"}}, in.Items, in.Entries, w, RankOptions{Limit: 10}),
			"perf":      NewDepartmentPerformance(perf, w),
			"rows":      BuildTaskStatistics(in.Items, in.Entries, w),
			"sixMonths": BuildSixMonthSeries(in.Items, in.Entries, w),
		})
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, string(encode()), string(encode()))
}
