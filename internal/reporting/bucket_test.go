package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func mustWindow(t *testing.T, date string) Window {
	t.Helper()
	w, err := ComputeWindow(date, "UTC")
	require.NoError(t, err)
	return w
}

func TestBucketDaily(t *testing.T) {
	w := mustWindow(t, "2024-03-15")
	items := []WorkItem{
		{ID: "t1", Kind: KindAssigned, Status: StatusCompleted, CreatedAt: day(2024, 2, 15, 0)},
		{ID: "t2", Kind: KindAssigned, Status: StatusCompleted, CreatedAt: day(2024, 3, 15, 23)},
		{ID: "t3", Kind: KindProject, Status: StatusPending, CreatedAt: day(2024, 3, 1, 9)},
		{ID: "t4", Kind: KindAssigned, Status: StatusCompleted, CreatedAt: day(2024, 2, 14, 23)}, // 上一窗口
		{ID: "t5", Kind: KindAssigned, Status: StatusCompleted, CreatedAt: day(2024, 3, 16, 0)},  // 参考日之后
	}
	entries := []RoutineLogEntry{{
		ID:          "r1",
		PerformedBy: "u1",
		Date:        day(2024, 3, 1, 12),
		Items:       []ChecklistItem{{IsCompleted: true}, {IsCompleted: false}, {IsCompleted: true}},
	}}

	set := Bucket(AllUnits(items, entries), w, Daily, ByStatus)

	completed := set.Series(string(StatusCompleted))
	require.Len(t, completed.Data, WindowDays)
	assert.Equal(t, 4, completed.Total)
	assert.Equal(t, 1, completed.Data[0])
	assert.Equal(t, 2, completed.Data[15]) // 2024-03-01 的两个已完成清单项
	assert.Equal(t, 1, completed.Data[29])

	todo := set.Series(string(StatusToDo))
	assert.Equal(t, 1, todo.Total)
	assert.Equal(t, 1, todo.Data[15])

	pending := set.Series(string(StatusPending))
	assert.Equal(t, 1, pending.Data[15])

	inProgress := set.Series(string(StatusInProgress))
	assert.Equal(t, 0, inProgress.Total)
	assert.Equal(t, make([]int, WindowDays), inProgress.Data)

	assert.Equal(t, []string{"Completed", "Pending", "To Do"}, set.Categories())
}

func TestBucketMonthly(t *testing.T) {
	w := mustWindow(t, "2024-03-15")
	items := []WorkItem{
		{Kind: KindAssigned, Status: StatusInProgress, CreatedAt: day(2023, 10, 1, 0)},
		{Kind: KindAssigned, Status: StatusInProgress, CreatedAt: day(2023, 9, 30, 23)}, // 六个月之前
		{Kind: KindProject, Status: StatusInProgress, CreatedAt: day(2024, 1, 20, 8)},
		{Kind: KindProject, Status: StatusInProgress, CreatedAt: day(2024, 3, 15, 8)},
	}

	set := Bucket(AllUnits(items, nil), w, Monthly, ByStatus)
	series := set.Series(string(StatusInProgress))
	assert.Equal(t, []int{1, 0, 0, 1, 0, 1}, series.Data)
	assert.Equal(t, 3, series.Total)
}

func TestBucketByKind(t *testing.T) {
	w := mustWindow(t, "2024-03-15")
	items := []WorkItem{
		{Kind: KindAssigned, Status: StatusToDo, CreatedAt: day(2024, 3, 10, 0)},
		{Kind: KindProject, Status: StatusToDo, CreatedAt: day(2024, 3, 10, 0)},
	}
	entries := []RoutineLogEntry{{Date: day(2024, 3, 10, 0), Items: []ChecklistItem{{}, {}}}}

	set := Bucket(AllUnits(items, entries), w, Daily, ByKind)
	assert.Equal(t, 1, set.Series(string(KindAssigned)).Total)
	assert.Equal(t, 1, set.Series(string(KindProject)).Total)
	assert.Equal(t, 2, set.Series(string(KindRoutine)).Total)
}

// 每个类别的序列之和都等于窗口内该类别的总数
func TestBucketSumMatchesTotal(t *testing.T) {
	w := mustWindow(t, "2024-01-10")
	statuses := []Status{StatusCompleted, StatusInProgress, StatusPending, StatusToDo}

	var items []WorkItem
	start := day(2023, 6, 1, 5)
	for i := 0; i < 400; i++ {
		items = append(items, WorkItem{
			Kind:      KindAssigned,
			Status:    statuses[i%len(statuses)],
			CreatedAt: start.Add(time.Duration(i) * 13 * time.Hour),
		})
	}
	units := AllUnits(items, nil)

	for _, g := range []Granularity{Daily, Monthly} {
		set := Bucket(units, w, g, ByStatus)
		inRange := w.InCurrent
		if g == Monthly {
			inRange = w.InSixMonths
		}
		counts := Count(units, inRange, ByStatus)
		for _, status := range statuses {
			series := set.Series(string(status))
			sum := 0
			for _, v := range series.Data {
				sum += v
			}
			assert.Equal(t, series.Total, sum, "%s/%s", g, status)
			assert.Equal(t, counts[string(status)], series.Total, "%s/%s", g, status)
		}
	}
}

func TestSeriesReturnsCopy(t *testing.T) {
	w := mustWindow(t, "2024-03-15")
	items := []WorkItem{{Kind: KindAssigned, Status: StatusCompleted, CreatedAt: day(2024, 3, 15, 0)}}
	set := Bucket(AllUnits(items, nil), w, Daily, nil)

	s := set.Series(string(StatusCompleted))
	s.Data[29] = 100
	assert.Equal(t, 1, set.Series(string(StatusCompleted)).Data[29])
}

func TestRoutineUnits(t *testing.T) {
	entries := []RoutineLogEntry{
		{PerformedBy: "u1", Date: day(2024, 3, 1, 0), Items: []ChecklistItem{{IsCompleted: true}, {IsCompleted: false}}},
		{PerformedBy: "u2", Date: day(2024, 3, 2, 0)},
	}
	units := RoutineUnits(entries)
	require.Len(t, units, 2)
	assert.Equal(t, Unit{Kind: KindRoutine, Status: StatusCompleted, At: day(2024, 3, 1, 0), Owner: "u1"}, units[0])
	assert.Equal(t, StatusToDo, units[1].Status)
}
