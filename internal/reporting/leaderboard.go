package reporting

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

// LeaderboardEntry 用户完成量与评分
type LeaderboardEntry struct {
	User              UserRef `json:"user"`
	AssignedTaskCount int     `json:"assignedTaskCount"`
	RoutineTaskCount  int     `json:"routineTaskCount"`
	TotalCompleted    int     `json:"totalCompleted"`
	Rating            float64 `json:"rating"`
}

// RankOptions 排行选项
type RankOptions struct {
	// Limit 多用户排行的截断长度，<=0 表示不截断
	Limit int
	// SingleUserID 非空时只返回该用户的条目，不过滤也不排序
	SingleUserID string
}

const maxLeaderboardRating = 5.0

// LeaderboardRating 由指派完成数与例行完成数计算 0-5 评分
func LeaderboardRating(assigned, routine int) float64 {
	total := float64(assigned + routine)
	assignedBonus := 1.5 * math.Min(5, float64(assigned)/2)
	routineBonus := 1.0 * math.Min(5, float64(routine)/3)
	raw := math.Min(maxLeaderboardRating, (total+assignedBonus+routineBonus)/2)
	return clamp(round1(raw), 0, maxLeaderboardRating)
}

// Rank 计算当前窗口内的用户完成量排行
//
// 指派任务按指派人展开：N 个指派人的已完成任务为每个指派人各计 1 次；
// 例行记录按清单项计数，归属于记录执行人。
func Rank(users []UserRef, items []WorkItem, entries []RoutineLogEntry, w Window, opts RankOptions) []LeaderboardEntry {
	assigned := make(map[string]int)
	for _, it := range items {
		if it.Kind != KindAssigned || !it.Completed() || !w.InCurrent(it.CreatedAt) {
			continue
		}
		for _, uid := range lo.Uniq(it.Assignees) {
			assigned[uid]++
		}
	}

	routine := make(map[string]int)
	for _, u := range RoutineUnits(entries) {
		if u.Status == StatusCompleted && w.InCurrent(u.At) {
			routine[u.Owner]++
		}
	}

	entryFor := func(user UserRef) LeaderboardEntry {
		a, r := assigned[user.ID], routine[user.ID]
		return LeaderboardEntry{
			User:              user,
			AssignedTaskCount: a,
			RoutineTaskCount:  r,
			TotalCompleted:    a + r,
			Rating:            LeaderboardRating(a, r),
		}
	}

	if opts.SingleUserID != "" {
		user, ok := lo.Find(users, func(u UserRef) bool { return u.ID == opts.SingleUserID })
		if !ok {
			user = UserRef{ID: opts.SingleUserID}
		}
		return []LeaderboardEntry{entryFor(user)}
	}

	board := lo.FilterMap(lo.UniqBy(users, func(u UserRef) string { return u.ID }), func(u UserRef, _ int) (LeaderboardEntry, bool) {
		e := entryFor(u)
		return e, e.Rating > 0
	})

	sort.SliceStable(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.TotalCompleted != b.TotalCompleted {
			return a.TotalCompleted > b.TotalCompleted
		}
		return a.User.ID < b.User.ID
	})

	if opts.Limit > 0 && len(board) > opts.Limit {
		board = board[:opts.Limit]
	}
	return board
}
