package reporting

import "math"

const (
	// ActivityPerTaskBenchmark 每个非例行任务预期的活动次数
	ActivityPerTaskBenchmark = 5
	// TotalTaskVolumeBenchmark 满分工作量基准
	TotalTaskVolumeBenchmark = 20

	minUserRating = 1.0
	maxUserRating = 5.0
)

// PriorityBreakdown 按优先级统计的任务数
type PriorityBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func (p *PriorityBreakdown) add(priority Priority) {
	switch priority {
	case PriorityHigh:
		p.High++
	case PriorityMedium:
		p.Medium++
	case PriorityLow:
		p.Low++
	}
}

// UserStats 用户在当前窗口内的综合统计
type UserStats struct {
	User              UserRef           `json:"user"`
	Role              Role              `json:"role"`
	AssignedCount     int               `json:"assignedCount"`
	ProjectCount      int               `json:"projectCount"`
	RoutineCount      int               `json:"routineCount"`
	CompletedCount    int               `json:"completedCount"`
	PendingCount      int               `json:"pendingCount"`
	TotalTaskCount    int               `json:"totalTaskCount"`
	ActivityCount     int               `json:"activityCount"`
	PriorityBreakdown PriorityBreakdown `json:"priorityBreakdown"`
	CompletionScore   float64           `json:"completionScore"`
	ActivityScore     float64           `json:"activityScore"`
	VolumeScore       float64           `json:"volumeScore"`
	Rating            float64           `json:"rating"`
}

// EmptyUserStats 无数据时的结果形状
func EmptyUserStats(user UserRef, role Role) UserStats {
	return UserStats{User: user, Role: role, Rating: minUserRating}
}

// UserStatsInput 用户统计的输入快照
type UserStatsInput struct {
	User       UserRef
	Role       Role
	Items      []WorkItem
	Entries    []RoutineLogEntry
	Activities []Activity
}

// AggregateUserStats 计算用户在当前窗口内的完成情况、活跃度和评分
//
// 普通用户（Role=User）不计项目任务；输入中窗口以外的记录会被忽略。
func AggregateUserStats(in UserStatsInput, w Window) UserStats {
	stats := EmptyUserStats(in.User, in.Role)
	uid := in.User.ID

	var completedNonRoutine int
	for _, it := range in.Items {
		if !w.InCurrent(it.CreatedAt) {
			continue
		}
		switch {
		case it.Kind == KindAssigned && it.AssignedTo(uid):
			stats.AssignedCount++
		case it.Kind == KindProject && it.CreatedBy == uid && in.Role.Elevated():
			stats.ProjectCount++
		default:
			continue
		}
		stats.PriorityBreakdown.add(it.Priority)
		if it.Completed() {
			completedNonRoutine++
			stats.CompletedCount++
		} else {
			stats.PendingCount++
		}
	}

	for _, e := range in.Entries {
		if e.PerformedBy != uid || !w.InCurrent(e.Date) {
			continue
		}
		for _, item := range e.Items {
			stats.RoutineCount++
			if item.IsCompleted {
				stats.CompletedCount++
			} else {
				stats.PendingCount++
			}
		}
	}

	for _, a := range in.Activities {
		if a.UserID == uid && w.InCurrent(a.At) {
			stats.ActivityCount++
		}
	}

	nonRoutineTotal := stats.AssignedCount + stats.ProjectCount
	stats.TotalTaskCount = nonRoutineTotal + stats.RoutineCount

	stats.CompletionScore = ratio(float64(completedNonRoutine), float64(nonRoutineTotal))
	expectedMaxActivity := float64(nonRoutineTotal * ActivityPerTaskBenchmark)
	stats.ActivityScore = math.Min(1, ratio(float64(stats.ActivityCount), expectedMaxActivity))
	stats.VolumeScore = math.Min(1, float64(stats.TotalTaskCount)/TotalTaskVolumeBenchmark)

	raw := 0.5*stats.CompletionScore + 0.3*stats.ActivityScore + 0.2*stats.VolumeScore
	stats.Rating = clamp(round1(1+raw*4), minUserRating, maxUserRating)
	return stats
}
