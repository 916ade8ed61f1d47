package tasks

import (
	"fmt"
	"strings"
)

// Task Types
const (
	TypeWarmDashboard = "report:warm_dashboard"
)

// QueueReport 报表预热队列
const QueueReport = "report"

// WarmDashboardPayload 看板预热任务载荷
type WarmDashboardPayload struct {
	TenantID     string `json:"tenant_id"`
	DepartmentID string `json:"department_id"`
	// ReferenceDate 为空时按执行时刻的当天计算
	ReferenceDate string `json:"reference_date,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
}

// Validate 校验载荷
func (p WarmDashboardPayload) Validate() error {
	if strings.TrimSpace(p.TenantID) == "" || strings.TrimSpace(p.DepartmentID) == "" {
		return fmt.Errorf("warm dashboard payload requires tenant_id and department_id")
	}
	return nil
}

// TaskID 同一看板同一参考日的预热任务共用一个 ID，重复入队会被队列拒绝
func (p WarmDashboardPayload) TaskID() string {
	return strings.Join([]string{
		"warm",
		strings.TrimSpace(p.TenantID),
		strings.TrimSpace(p.DepartmentID),
		strings.TrimSpace(p.ReferenceDate),
		strings.TrimSpace(p.Timezone),
	}, ":")
}
