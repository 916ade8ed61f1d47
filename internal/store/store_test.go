package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"worktrack/internal/common"
	"worktrack/internal/dashboard"
	"worktrack/internal/reporting"
)

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func tenantModel(id, tenantID, departmentID string, createdAt time.Time) common.TenantModel {
	return common.TenantModel{
		ID:             id,
		TenantID:       tenantID,
		DepartmentID:   departmentID,
		TimestampModel: common.TimestampModel{CreatedAt: createdAt, UpdatedAt: createdAt},
	}
}

// setupTestDB 单连接的内存数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	deletedAt := at(2024, 3, 10, 0)

	tasks := []Task{
		{TenantModel: tenantModel("a1", "T1", "D1", at(2024, 3, 1, 9)), TaskType: "Assigned", Status: "Completed", Priority: "High", CreatedBy: "m1",
			Assignees: []TaskAssignee{{UserID: "u2", Position: 1}, {UserID: "u1", Position: 0}}},
		{TenantModel: tenantModel("a2", "T1", "D1", at(2024, 3, 2, 9)), TaskType: "Assigned", Status: "To Do", Priority: "Low", CreatedBy: "m1",
			Assignees: []TaskAssignee{{UserID: "u1"}}},
		{TenantModel: tenantModel("p1", "T1", "D1", at(2024, 3, 3, 9)), TaskType: "Project", Status: "In Progress", Priority: "Medium", CreatedBy: "m1",
			ClientName: "Acme", ClientContact: "ops@acme.io"},
		{TenantModel: tenantModel("p2", "T1", "D1", at(2023, 11, 3, 9)), TaskType: "Project", Status: "Completed", CreatedBy: "m1"},
		{TenantModel: tenantModel("x1", "T1", "D2", at(2024, 3, 3, 9)), TaskType: "Assigned", Status: "Completed",
			Assignees: []TaskAssignee{{UserID: "u9"}}},
		{TenantModel: tenantModel("y1", "T2", "D1", at(2024, 3, 3, 9)), TaskType: "Assigned", Status: "Completed",
			Assignees: []TaskAssignee{{UserID: "u1"}}},
	}
	deleted := Task{TenantModel: tenantModel("z1", "T1", "D1", at(2024, 3, 4, 9)), TaskType: "Assigned", Status: "Completed"}
	deleted.DeletedAt = &deletedAt
	tasks = append(tasks, deleted)
	require.NoError(t, db.Create(&tasks).Error)

	logs := []RoutineLog{
		{TenantModel: tenantModel("r1", "T1", "D1", at(2024, 3, 5, 18)), PerformedBy: "u2", LogDate: at(2024, 3, 5, 0),
			Items: []RoutineItem{{Position: 2, Description: "巡检"}, {Position: 0, Description: "备份", IsCompleted: true}, {Position: 1, Description: "清理", IsCompleted: true}}},
		{TenantModel: tenantModel("r2", "T1", "D1", at(2024, 1, 5, 18)), PerformedBy: "u1", LogDate: at(2024, 1, 5, 0),
			Items: []RoutineItem{{Description: "备份", IsCompleted: true}}},
	}
	require.NoError(t, db.Create(&logs).Error)

	users := []User{
		{TenantModel: tenantModel("u1", "T1", "D1", at(2023, 1, 1, 0)), Name: "Alice", Role: "User", Status: "active"},
		{TenantModel: tenantModel("u2", "T1", "D1", at(2023, 1, 1, 0)), Name: "Bob", Role: "User", Status: "active"},
		{TenantModel: tenantModel("m1", "T1", "D1", at(2023, 1, 1, 0)), Name: "Mallory", Role: "Manager", Status: "active"},
		{TenantModel: tenantModel("u3", "T1", "D1", at(2023, 1, 1, 0)), Name: "Eve", Role: "User", Status: "disabled"},
		{TenantModel: tenantModel("u9", "T1", "D2", at(2023, 1, 1, 0)), Name: "Zed", Role: "User", Status: "active"},
	}
	require.NoError(t, db.Create(&users).Error)

	activities := []TaskActivity{
		{ID: "e1", TenantID: "T1", TaskID: "p1", UserID: "m1", Action: "status_change", TimestampModel: common.TimestampModel{CreatedAt: at(2024, 3, 3, 10), UpdatedAt: at(2024, 3, 3, 10)}},
		{ID: "e2", TenantID: "T1", TaskID: "p1", UserID: "m1", Action: "comment", TimestampModel: common.TimestampModel{CreatedAt: at(2024, 3, 4, 10), UpdatedAt: at(2024, 3, 4, 10)}},
		{ID: "e3", TenantID: "T1", TaskID: "a2", UserID: "u1", Action: "update", TimestampModel: common.TimestampModel{CreatedAt: at(2024, 1, 4, 10), UpdatedAt: at(2024, 1, 4, 10)}},
	}
	require.NoError(t, db.Create(&activities).Error)
}

func march() common.DateRange {
	return common.DateRange{Start: at(2024, 2, 15, 0), End: time.Date(2024, 3, 15, 23, 59, 59, 999999999, time.UTC)}
}

func TestWorkItemStoreQuery(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	items := New(db).WorkItems()
	ctx := context.Background()

	t.Run("按租户部门与时间过滤", func(t *testing.T) {
		got, err := items.Query(ctx, "T1", "D1", march(), dashboard.WorkItemFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"a1", "a2", "p1"}, []string{got[0].ID, got[1].ID, got[2].ID})
		assert.Equal(t, []string{"u1", "u2"}, got[0].Assignees, "按 position 排序")
		assert.Equal(t, reporting.KindProject, got[2].Kind)
		require.NotNil(t, got[2].Client)
		assert.Equal(t, "Acme", got[2].Client.Name)
		assert.Empty(t, got[2].Assignees)
	})

	t.Run("部门为空时查询整个租户", func(t *testing.T) {
		got, err := items.Query(ctx, "T1", "", march(), dashboard.WorkItemFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("类别与状态", func(t *testing.T) {
		got, err := items.Query(ctx, "T1", "D1", common.DateRange{}, dashboard.WorkItemFilter{
			Kinds:    []reporting.Kind{reporting.KindProject},
			Statuses: []reporting.Status{reporting.StatusCompleted},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "p2", got[0].ID)
	})

	t.Run("指派人与创建人", func(t *testing.T) {
		got, err := items.Query(ctx, "T1", "D1", march(), dashboard.WorkItemFilter{AssigneeID: "u2"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a1", got[0].ID)
		assert.Equal(t, []string{"u1", "u2"}, got[0].Assignees, "过滤指派人时仍返回完整指派列表")

		got, err = items.Query(ctx, "T1", "D1", march(), dashboard.WorkItemFilter{CreatedBy: "m1", Kinds: []reporting.Kind{reporting.KindProject}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "p1", got[0].ID)
	})
}

func TestRoutineLogStoreQuery(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	logs := New(db).RoutineLogs()

	got, err := logs.Query(context.Background(), "T1", "D1", march(), dashboard.RoutineLogFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u2", got[0].PerformedBy)
	assert.Equal(t, []reporting.ChecklistItem{
		{Description: "备份", IsCompleted: true},
		{Description: "清理", IsCompleted: true},
		{Description: "巡检"},
	}, got[0].Items)

	got, err = logs.Query(context.Background(), "T1", "D1", common.DateRange{}, dashboard.RoutineLogFilter{PerformedBy: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)
}

func TestUserDirectory(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	users := New(db).Users()
	ctx := context.Background()

	active, err := users.ListActive(ctx, "T1", "D1")
	require.NoError(t, err)
	assert.Equal(t, []reporting.UserRef{
		{ID: "m1", Name: "Mallory", Role: reporting.RoleManager},
		{ID: "u1", Name: "Alice", Role: reporting.RoleUser},
		{ID: "u2", Name: "Bob", Role: reporting.RoleUser},
	}, active)

	u, err := users.Get(ctx, "T1", "u9")
	require.NoError(t, err)
	assert.Equal(t, "Zed", u.Name)

	_, err = users.Get(ctx, "T2", "u1")
	assert.ErrorIs(t, err, dashboard.ErrUserNotFound, "跨租户不可见")
}

func TestActivityStoreQuery(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	activities := New(db).Activities()

	got, err := activities.Query(context.Background(), "T1", march(), dashboard.ActivityFilter{UserID: "m1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "status_change", got[0].Action)

	got, err = activities.Query(context.Background(), "T1", march(), dashboard.ActivityFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// 端到端：gorm 数据源驱动报表服务
func TestStoreBackedDashboard(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	svc := dashboard.NewService(New(db).Deps(), dashboard.DefaultOptions(), zaptest.NewLogger(t))
	d, err := svc.Dashboard(context.Background(), dashboard.Query{
		TenantID: "T1", DepartmentID: "D1", ReferenceDate: "2024-03-15", UserID: "m1",
	})
	require.NoError(t, err)
	assert.Empty(t, d.Degraded)

	completed := d.TaskStatistics[0]
	assert.Equal(t, reporting.StatusCompleted, completed.Status)
	assert.Equal(t, 3, completed.CurrentCount)

	require.Len(t, d.Leaderboard, 2)
	assert.Equal(t, "u2", d.Leaderboard[0].User.ID)
	assert.InDelta(t, 2.2, d.Leaderboard[0].Rating, 1e-9)

	require.NotNil(t, d.UserStats)
	assert.Equal(t, 1, d.UserStats.ProjectCount)
	assert.Equal(t, 2, d.UserStats.ActivityCount)
	assert.Equal(t, 1, d.SixMonths.Completed[1])
}
