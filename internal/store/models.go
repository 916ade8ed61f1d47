// Package store 报表数据源的 gorm 实现
package store

import (
	"time"

	"worktrack/internal/common"
)

// Task 任务（指派任务与项目任务共用一张表，以 task_type 区分）
type Task struct {
	common.TenantModel
	TaskType      string         `json:"taskType" gorm:"size:20;not null;index"`
	Title         string         `json:"title" gorm:"size:255"`
	Status        string         `json:"status" gorm:"size:20;not null;index"`
	Priority      string         `json:"priority" gorm:"size:20"`
	CreatedBy     string         `json:"createdBy" gorm:"size:64;index"`
	ClientName    string         `json:"clientName,omitempty" gorm:"size:255"`
	ClientContact string         `json:"clientContact,omitempty" gorm:"size:255"`
	Assignees     []TaskAssignee `json:"assignees,omitempty" gorm:"foreignKey:TaskID"`
}

// TableName 指定表名
func (Task) TableName() string {
	return "tasks"
}

// TaskAssignee 任务指派人
type TaskAssignee struct {
	TaskID   string `json:"taskId" gorm:"primaryKey;size:64"`
	UserID   string `json:"userId" gorm:"primaryKey;size:64;index"`
	Position int    `json:"position" gorm:"default:0"`
}

// TableName 指定表名
func (TaskAssignee) TableName() string {
	return "task_assignees"
}

// RoutineLog 例行记录
type RoutineLog struct {
	common.TenantModel
	PerformedBy string        `json:"performedBy" gorm:"size:64;not null;index"`
	LogDate     time.Time     `json:"logDate" gorm:"not null;index"`
	Items       []RoutineItem `json:"items" gorm:"foreignKey:RoutineLogID"`
}

// TableName 指定表名
func (RoutineLog) TableName() string {
	return "routine_logs"
}

// RoutineItem 例行记录清单项
type RoutineItem struct {
	ID           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RoutineLogID string `json:"routineLogId" gorm:"size:64;not null;index"`
	Position     int    `json:"position" gorm:"default:0"`
	Description  string `json:"description" gorm:"type:text"`
	IsCompleted  bool   `json:"isCompleted" gorm:"default:false"`
}

// TableName 指定表名
func (RoutineItem) TableName() string {
	return "routine_items"
}

// User 用户
type User struct {
	common.TenantModel
	Name   string `json:"name" gorm:"size:255"`
	Email  string `json:"email" gorm:"size:255"`
	Role   string `json:"role" gorm:"size:20;not null;default:User"`
	Status string `json:"status" gorm:"size:20;not null;default:active"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// TaskActivity 任务活动（状态变更、评论、编辑）
type TaskActivity struct {
	ID       string `json:"id" gorm:"primaryKey;size:64"`
	TenantID string `json:"tenantId" gorm:"size:64;not null;index:idx_activity_tenant_user"`
	TaskID   string `json:"taskId" gorm:"size:64;index"`
	UserID   string `json:"userId" gorm:"size:64;not null;index:idx_activity_tenant_user"`
	Action   string `json:"action" gorm:"size:50"`
	common.TimestampModel
}

// TableName 指定表名
func (TaskActivity) TableName() string {
	return "task_activities"
}

// Models 需要迁移的全部模型
func Models() []any {
	return []any{&Task{}, &TaskAssignee{}, &RoutineLog{}, &RoutineItem{}, &User{}, &TaskActivity{}}
}
