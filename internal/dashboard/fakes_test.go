package dashboard

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"worktrack/internal/common"
	"worktrack/internal/reporting"
)

var errStoreDown = errors.New("store down")

type fakeItems struct {
	items []reporting.WorkItem
	err   error
	calls atomic.Int32
}

func (f *fakeItems) Query(_ context.Context, tenantID, departmentID string, r common.DateRange, filter WorkItemFilter) ([]reporting.WorkItem, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []reporting.WorkItem
	for _, it := range f.items {
		if departmentID != "" && it.DepartmentID != departmentID {
			continue
		}
		if !r.Contains(it.CreatedAt) {
			continue
		}
		if len(filter.Kinds) > 0 && !slices.Contains(filter.Kinds, it.Kind) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, it.Status) {
			continue
		}
		if filter.AssigneeID != "" && !it.AssignedTo(filter.AssigneeID) {
			continue
		}
		if filter.CreatedBy != "" && it.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

type fakeRoutines struct {
	entries []reporting.RoutineLogEntry
	err     error
}

func (f *fakeRoutines) Query(_ context.Context, _, departmentID string, r common.DateRange, filter RoutineLogFilter) ([]reporting.RoutineLogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []reporting.RoutineLogEntry
	for _, e := range f.entries {
		if departmentID != "" && e.DepartmentID != departmentID {
			continue
		}
		if !r.Contains(e.Date) {
			continue
		}
		if filter.PerformedBy != "" && e.PerformedBy != filter.PerformedBy {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeUsers struct {
	users []reporting.UserRef
	err   error
	// block 为 true 时 ListActive 阻塞直到 ctx 结束
	block bool
}

func (f *fakeUsers) ListActive(ctx context.Context, _, _ string) ([]reporting.UserRef, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeUsers) Get(_ context.Context, _, userID string) (reporting.UserRef, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return reporting.UserRef{}, ErrUserNotFound
}

type fakeActivities struct {
	activities []reporting.Activity
}

func (f *fakeActivities) Query(_ context.Context, _ string, r common.DateRange, filter ActivityFilter) ([]reporting.Activity, error) {
	var out []reporting.Activity
	for _, a := range f.activities {
		if r.Contains(a.At) && (filter.UserID == "" || a.UserID == filter.UserID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

type fixture struct {
	items      *fakeItems
	routines   *fakeRoutines
	users      *fakeUsers
	activities *fakeActivities
}

func newFixture() *fixture {
	return &fixture{
		items: &fakeItems{items: []reporting.WorkItem{
			{ID: "a1", Kind: reporting.KindAssigned, Status: reporting.StatusCompleted, Priority: reporting.PriorityHigh, DepartmentID: "D1", CreatedAt: day(2024, 3, 1, 9), CreatedBy: "m1", Assignees: []string{"u1", "u2"}},
			{ID: "a2", Kind: reporting.KindAssigned, Status: reporting.StatusToDo, Priority: reporting.PriorityLow, DepartmentID: "D1", CreatedAt: day(2024, 3, 2, 9), CreatedBy: "m1", Assignees: []string{"u1"}},
			{ID: "a3", Kind: reporting.KindAssigned, Status: reporting.StatusCompleted, Priority: reporting.PriorityMedium, DepartmentID: "D1", CreatedAt: day(2024, 2, 10, 9), CreatedBy: "m1", Assignees: []string{"u2"}},
			{ID: "p1", Kind: reporting.KindProject, Status: reporting.StatusInProgress, Priority: reporting.PriorityMedium, DepartmentID: "D1", CreatedAt: day(2024, 3, 3, 9), CreatedBy: "m1"},
			{ID: "p2", Kind: reporting.KindProject, Status: reporting.StatusCompleted, Priority: reporting.PriorityHigh, DepartmentID: "D1", CreatedAt: day(2023, 11, 3, 9), CreatedBy: "m1"},
			{ID: "x1", Kind: reporting.KindAssigned, Status: reporting.StatusCompleted, DepartmentID: "D2", CreatedAt: day(2024, 3, 3, 9), Assignees: []string{"u9"}},
		}},
		routines: &fakeRoutines{entries: []reporting.RoutineLogEntry{
			{ID: "r1", DepartmentID: "D1", PerformedBy: "u2", Date: day(2024, 3, 5, 0), Items: []reporting.ChecklistItem{{IsCompleted: true}, {IsCompleted: true}, {}}},
			{ID: "r2", DepartmentID: "D1", PerformedBy: "u1", Date: day(2024, 1, 5, 0), Items: []reporting.ChecklistItem{{IsCompleted: true}}},
		}},
		users: &fakeUsers{users: []reporting.UserRef{
			{ID: "u1", Name: "Alice", Role: reporting.RoleUser},
			{ID: "u2", Name: "Bob", Role: reporting.RoleUser},
			{ID: "m1", Name: "Mallory", Role: reporting.RoleManager},
		}},
		activities: &fakeActivities{activities: []reporting.Activity{
			{UserID: "m1", At: day(2024, 3, 3, 10)},
			{UserID: "m1", At: day(2024, 3, 4, 10)},
			{UserID: "u1", At: day(2024, 3, 4, 10)},
		}},
	}
}

func (f *fixture) deps() Deps {
	return Deps{Items: f.items, Routines: f.routines, Users: f.users, Activities: f.activities}
}

// allItems / allEntries 部门 D1 的全部记录，用于与 reporting 直接计算的结果对照
func (f *fixture) allItems() []reporting.WorkItem {
	var out []reporting.WorkItem
	for _, it := range f.items.items {
		if it.DepartmentID == "D1" {
			out = append(out, it)
		}
	}
	return out
}
