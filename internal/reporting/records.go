// Package reporting 工作项报表计算核心
//
// 本包只做纯计算：输入是外部存储已按租户/部门/时间窗口取好的只读记录快照，
// 输出是可直接序列化的结果结构。包内不读取时钟、不做 I/O、不持有全局可变状态。
package reporting

import (
	"time"

	"github.com/samber/lo"
)

// Kind 工作项类别（原始模型中的判别字段）
type Kind string

const (
	KindAssigned Kind = "Assigned" // 指派任务
	KindProject  Kind = "Project"  // 项目任务
	KindRoutine  Kind = "Routine"  // 日常例行记录中的清单项
)

// Status 工作项状态
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusPending    Status = "Pending"
	StatusCompleted  Status = "Completed"
)

// StatusVocabulary 报表固定输出的状态顺序
var StatusVocabulary = []Status{StatusCompleted, StatusInProgress, StatusPending, StatusToDo}

// Priority 任务优先级
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Role 用户角色
type Role string

const (
	RoleUser       Role = "User"
	RoleManager    Role = "Manager"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

// Elevated 是否为管理类角色（可看到项目任务）
func (r Role) Elevated() bool {
	return r != RoleUser
}

// ClientInfo 项目任务的客户信息
type ClientInfo struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

// WorkItem 任务快照（Assigned / Project）
//
// Assignees 仅对 Assigned 有意义，Client 仅对 Project 有意义；
// 依赖类别的逻辑一律按 Kind 分派。
type WorkItem struct {
	ID           string      `json:"id"`
	Kind         Kind        `json:"kind"`
	Status       Status      `json:"status"`
	Priority     Priority    `json:"priority"`
	CreatedAt    time.Time   `json:"createdAt"`
	DepartmentID string      `json:"department"`
	CreatedBy    string      `json:"createdBy"`
	Assignees    []string    `json:"assignees,omitempty"`
	Client       *ClientInfo `json:"client,omitempty"`
}

// Completed 任务是否已完成
func (w WorkItem) Completed() bool {
	return w.Status == StatusCompleted
}

// AssignedTo 用户是否在指派人列表中
func (w WorkItem) AssignedTo(userID string) bool {
	if w.Kind != KindAssigned {
		return false
	}
	for _, id := range w.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// ChecklistItem 例行记录中的清单项，每一项都是独立的完成单元
type ChecklistItem struct {
	Description string `json:"description"`
	IsCompleted bool   `json:"isCompleted"`
}

// RoutineLogEntry 日常例行记录
type RoutineLogEntry struct {
	ID           string          `json:"id"`
	DepartmentID string          `json:"department"`
	PerformedBy  string          `json:"performedBy"`
	Date         time.Time       `json:"date"`
	Items        []ChecklistItem `json:"items"`
}

// Activity 任务活动事件（状态变更、评论、编辑）
type Activity struct {
	ID     string    `json:"id"`
	TaskID string    `json:"taskId"`
	UserID string    `json:"userId"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// UserRef 用户引用
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

// Unit 统一计数单元
//
// 任务与例行清单项被展开成同一形状：任务按 CreatedAt 计时，
// 清单项按所属记录的 Date 计时，状态由 IsCompleted 合成 Completed / To Do。
type Unit struct {
	Kind   Kind
	Status Status
	At     time.Time
	Owner  string // 例行记录的执行人，任务为空
}

// TaskUnits 把任务展开成计数单元，每个任务恰好一个单元（与指派人数无关）
func TaskUnits(items []WorkItem) []Unit {
	return lo.Map(items, func(it WorkItem, _ int) Unit {
		return Unit{Kind: it.Kind, Status: it.Status, At: it.CreatedAt}
	})
}

// RoutineUnits 把例行记录的每个清单项展开成独立单元，不做部分计分
func RoutineUnits(entries []RoutineLogEntry) []Unit {
	return lo.FlatMap(entries, func(e RoutineLogEntry, _ int) []Unit {
		return lo.Map(e.Items, func(item ChecklistItem, _ int) Unit {
			status := StatusToDo
			if item.IsCompleted {
				status = StatusCompleted
			}
			return Unit{Kind: KindRoutine, Status: status, At: e.Date, Owner: e.PerformedBy}
		})
	})
}

// AllUnits 合并任务与例行记录的计数单元
func AllUnits(items []WorkItem, entries []RoutineLogEntry) []Unit {
	return append(TaskUnits(items), RoutineUnits(entries)...)
}
