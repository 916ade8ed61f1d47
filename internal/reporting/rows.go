package reporting

// Interval 结果覆盖的日期范围（窗口时区下的日历日，含两端）
type Interval struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CurrentInterval 当前 30 天窗口
func (w Window) CurrentInterval() Interval {
	return Interval{From: w.DayKey(w.CurrentStart), To: w.DayKey(w.CurrentEnd)}
}

// PreviousInterval 上一个 30 天窗口
func (w Window) PreviousInterval() Interval {
	return Interval{From: w.DayKey(w.PreviousStart), To: w.DayKey(w.PreviousEnd)}
}

// SixMonthInterval 六个月范围
func (w Window) SixMonthInterval() Interval {
	return Interval{From: w.DayKey(w.SixMonthStart), To: w.DayKey(w.CurrentEnd)}
}

// TaskStatisticsRow 单个状态的 30 天统计行
type TaskStatisticsRow struct {
	Status        Status   `json:"status"`
	CurrentCount  int      `json:"current30DaysCount"`
	PreviousCount int      `json:"previous30DaysCount"`
	Interval      Interval `json:"interval"`
	Trend         Trend    `json:"trend"`
	TrendChange   float64  `json:"trendChange"`
	Data          []int    `json:"data"`
	Labels        []string `json:"labels"`
}

// BuildTaskStatistics 按固定状态顺序生成 30 天统计行
//
// 任务按自身状态计数，例行清单项按合成状态计数；没有记录的状态输出全零行。
func BuildTaskStatistics(items []WorkItem, entries []RoutineLogEntry, w Window) []TaskStatisticsRow {
	units := AllUnits(items, entries)
	set := Bucket(units, w, Daily, ByStatus)
	previous := Count(units, w.InPrevious, ByStatus)

	labels := displayLabels(w.DailyLabels)
	rows := make([]TaskStatisticsRow, 0, len(StatusVocabulary))
	for _, status := range StatusVocabulary {
		series := set.Series(string(status))
		trend := AnalyzeTrend(string(status), series.Total, previous[string(status)])
		rows = append(rows, TaskStatisticsRow{
			Status:        status,
			CurrentCount:  trend.CurrentCount,
			PreviousCount: trend.PreviousCount,
			Interval:      w.CurrentInterval(),
			Trend:         trend.Trend,
			TrendChange:   trend.PercentChange,
			Data:          series.Data,
			Labels:        labels,
		})
	}
	return rows
}

// EmptyTaskStatistics 无数据时的统计行
func EmptyTaskStatistics(w Window) []TaskStatisticsRow {
	return BuildTaskStatistics(nil, nil, w)
}

// SixMonthSeries 最近六个月按状态的月度序列
type SixMonthSeries struct {
	Completed     []int    `json:"Completed"`
	InProgress    []int    `json:"In Progress"`
	Pending       []int    `json:"Pending"`
	ToDo          []int    `json:"To Do"`
	LastSixMonths []string `json:"lastSixMonths"`
	MonthKeys     []string `json:"monthKeys"`
	Interval      Interval `json:"interval"`
}

// BuildSixMonthSeries 生成最近六个月的状态序列
func BuildSixMonthSeries(items []WorkItem, entries []RoutineLogEntry, w Window) SixMonthSeries {
	set := Bucket(AllUnits(items, entries), w, Monthly, ByStatus)
	return SixMonthSeries{
		Completed:     set.Series(string(StatusCompleted)).Data,
		InProgress:    set.Series(string(StatusInProgress)).Data,
		Pending:       set.Series(string(StatusPending)).Data,
		ToDo:          set.Series(string(StatusToDo)).Data,
		LastSixMonths: displayLabels(w.MonthlyLabels),
		MonthKeys:     w.MonthKeys(),
		Interval:      w.SixMonthInterval(),
	}
}

// EmptySixMonthSeries 无数据时的月度序列
func EmptySixMonthSeries(w Window) SixMonthSeries {
	return BuildSixMonthSeries(nil, nil, w)
}

// DepartmentPerformance 部门绩效输出
type DepartmentPerformance struct {
	TotalTasks       int                 `json:"totalTasks"`
	CompletedTasks   int                 `json:"completedTasks"`
	IncompleteTasks  int                 `json:"incompleteTasks"`
	PerformanceScore float64             `json:"performanceScore"`
	Breakdown        []CategoryBreakdown `json:"breakdown"`
	Alert            Alert               `json:"alert"`
	Interval         Interval            `json:"interval"`
}

// NewDepartmentPerformance 由评分结果生成部门绩效输出
func NewDepartmentPerformance(res PerformanceResult, w Window) DepartmentPerformance {
	return DepartmentPerformance{
		TotalTasks:       res.TotalItems,
		CompletedTasks:   res.CompletedItems,
		IncompleteTasks:  res.IncompleteItems,
		PerformanceScore: res.WeightedScore,
		Breakdown:        res.Breakdown,
		Alert:            res.Alert,
		Interval:         w.CurrentInterval(),
	}
}

// EmptyDepartmentPerformance 无数据时的部门绩效
func EmptyDepartmentPerformance(w Window, weights Weights) DepartmentPerformance {
	return NewDepartmentPerformance(EmptyPerformance(weights), w)
}

func displayLabels(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Label
	}
	return out
}
