package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"worktrack/internal/common"
	"worktrack/internal/dashboard"
	"worktrack/internal/reporting"
)

// Store 报表数据源，实现 dashboard 的四个依赖接口
type Store struct {
	db *gorm.DB
}

// New 创建数据源
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WorkItems 任务存储
func (s *Store) WorkItems() dashboard.WorkItemStore { return workItemStore{s.db} }

// RoutineLogs 例行记录存储
func (s *Store) RoutineLogs() dashboard.RoutineLogStore { return routineLogStore{s.db} }

// Users 用户目录
func (s *Store) Users() dashboard.UserDirectory { return userDirectory{s.db} }

// Activities 活动存储
func (s *Store) Activities() dashboard.ActivityStore { return activityStore{s.db} }

// Deps 组装报表服务依赖
func (s *Store) Deps() dashboard.Deps {
	return dashboard.Deps{
		Items:      s.WorkItems(),
		Routines:   s.RoutineLogs(),
		Users:      s.Users(),
		Activities: s.Activities(),
	}
}

// utc 数据库中的时间统一按 UTC 比较
func utc(r common.DateRange) common.DateRange {
	out := r
	if !out.Start.IsZero() {
		out.Start = out.Start.UTC()
	}
	if !out.End.IsZero() {
		out.End = out.End.UTC()
	}
	return out
}

type workItemStore struct {
	db *gorm.DB
}

func (s workItemStore) Query(ctx context.Context, tenantID, departmentID string, r common.DateRange, f dashboard.WorkItemFilter) ([]reporting.WorkItem, error) {
	query := s.db.WithContext(ctx).
		Scopes(
			common.ByTenant(tenantID),
			common.ByDepartment(departmentID),
			common.NotDeleted(),
			common.InDateRange("created_at", utc(r)),
			common.StatusIn(lo.Map(f.Statuses, func(st reporting.Status, _ int) string { return string(st) })),
		).
		Preload("Assignees", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, user_id ASC")
		})

	if len(f.Kinds) > 0 {
		query = query.Where("task_type IN ?", lo.Map(f.Kinds, func(k reporting.Kind, _ int) string { return string(k) }))
	}
	if f.CreatedBy != "" {
		query = query.Where("created_by = ?", f.CreatedBy)
	}
	if f.AssigneeID != "" {
		query = query.Where("EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = tasks.id AND ta.user_id = ?)", f.AssigneeID)
	}

	var rows []Task
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return lo.Map(rows, func(t Task, _ int) reporting.WorkItem { return t.toWorkItem() }), nil
}

func (t Task) toWorkItem() reporting.WorkItem {
	item := reporting.WorkItem{
		ID:           t.ID,
		Kind:         reporting.Kind(t.TaskType),
		Status:       reporting.Status(t.Status),
		Priority:     reporting.Priority(t.Priority),
		CreatedAt:    t.CreatedAt,
		DepartmentID: t.DepartmentID,
		CreatedBy:    t.CreatedBy,
	}
	if item.Kind == reporting.KindAssigned {
		item.Assignees = lo.Map(t.Assignees, func(a TaskAssignee, _ int) string { return a.UserID })
	}
	if item.Kind == reporting.KindProject && t.ClientName != "" {
		item.Client = &reporting.ClientInfo{Name: t.ClientName, Contact: t.ClientContact}
	}
	return item
}

type routineLogStore struct {
	db *gorm.DB
}

func (s routineLogStore) Query(ctx context.Context, tenantID, departmentID string, r common.DateRange, f dashboard.RoutineLogFilter) ([]reporting.RoutineLogEntry, error) {
	query := s.db.WithContext(ctx).
		Scopes(
			common.ByTenant(tenantID),
			common.ByDepartment(departmentID),
			common.NotDeleted(),
			common.InDateRange("log_date", utc(r)),
		).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		})
	if f.PerformedBy != "" {
		query = query.Where("performed_by = ?", f.PerformedBy)
	}

	var rows []RoutineLog
	if err := query.Order("log_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query routine logs: %w", err)
	}
	return lo.Map(rows, func(l RoutineLog, _ int) reporting.RoutineLogEntry {
		return reporting.RoutineLogEntry{
			ID:           l.ID,
			DepartmentID: l.DepartmentID,
			PerformedBy:  l.PerformedBy,
			Date:         l.LogDate,
			Items: lo.Map(l.Items, func(it RoutineItem, _ int) reporting.ChecklistItem {
				return reporting.ChecklistItem{Description: it.Description, IsCompleted: it.IsCompleted}
			}),
		}
	}), nil
}

type userDirectory struct {
	db *gorm.DB
}

func (s userDirectory) ListActive(ctx context.Context, tenantID, departmentID string) ([]reporting.UserRef, error) {
	var rows []User
	err := s.db.WithContext(ctx).
		Scopes(common.ByTenant(tenantID), common.ByDepartment(departmentID), common.NotDeleted(), common.ActiveOnly()).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return lo.Map(rows, func(u User, _ int) reporting.UserRef { return u.toRef() }), nil
}

func (s userDirectory) Get(ctx context.Context, tenantID, userID string) (reporting.UserRef, error) {
	var row User
	err := s.db.WithContext(ctx).
		Scopes(common.ByTenant(tenantID), common.NotDeleted()).
		Where("id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reporting.UserRef{}, dashboard.ErrUserNotFound
		}
		return reporting.UserRef{}, fmt.Errorf("get user: %w", err)
	}
	return row.toRef(), nil
}

func (u User) toRef() reporting.UserRef {
	return reporting.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: reporting.Role(u.Role)}
}

type activityStore struct {
	db *gorm.DB
}

func (s activityStore) Query(ctx context.Context, tenantID string, r common.DateRange, f dashboard.ActivityFilter) ([]reporting.Activity, error) {
	query := s.db.WithContext(ctx).
		Scopes(common.ByTenant(tenantID), common.InDateRange("created_at", utc(r)))
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}

	var rows []TaskActivity
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	return lo.Map(rows, func(a TaskActivity, _ int) reporting.Activity {
		return reporting.Activity{ID: a.ID, TaskID: a.TaskID, UserID: a.UserID, Action: a.Action, At: a.CreatedAt}
	}), nil
}
