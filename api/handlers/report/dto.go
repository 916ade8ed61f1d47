package report

import (
	"strings"

	"worktrack/internal/reporting"
)

// ReportQuery 报表通用查询参数
type ReportQuery struct {
	Date     string `form:"date"`
	Timezone string `form:"tz"`
	Refresh  bool   `form:"refresh"`

	// IncludeUser 看板附带调用者个人统计；附带后不与后台预热共享缓存
	IncludeUser bool `form:"includeUser"`
}

// WeightsQuery 绩效权重覆盖，未提供的类别沿用默认权重
type WeightsQuery struct {
	Assigned *float64 `form:"assignedWeight"`
	Project  *float64 `form:"projectWeight"`
	Routine  *float64 `form:"routineWeight"`
}

// LeaderboardQuery 排行榜查询参数
type LeaderboardQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// WarmRequest 看板预热请求
type WarmRequest struct {
	Date     string `json:"date"`
	Timezone string `json:"tz"`
}

// WarmResponse 看板预热响应
type WarmResponse struct {
	TaskID        string `json:"taskId"`
	AlreadyQueued bool   `json:"alreadyQueued"`
}

// Resolve 合并默认权重；没有任何覆盖时返回 nil
func (w WeightsQuery) Resolve(defaults reporting.Weights) *reporting.Weights {
	if w.Assigned == nil && w.Project == nil && w.Routine == nil {
		return nil
	}
	out := defaults
	if w.Assigned != nil {
		out.Assigned = *w.Assigned
	}
	if w.Project != nil {
		out.Project = *w.Project
	}
	if w.Routine != nil {
		out.Routine = *w.Routine
	}
	return &out
}

func (q ReportQuery) timezone(fallback string) string {
	if tz := strings.TrimSpace(q.Timezone); tz != "" {
		return tz
	}
	return fallback
}
