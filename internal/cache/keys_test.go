package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"worktrack/internal/reporting"
)

func baseParams() DashboardKeyParams {
	return DashboardKeyParams{
		TenantID:         "t1",
		DepartmentID:     "d1",
		ReferenceDay:     "2024-03-15",
		Timezone:         "UTC",
		Weights:          reporting.DefaultWeights(),
		LeaderboardLimit: 10,
	}
}

func TestDashboardKeyCanonical(t *testing.T) {
	a := baseParams()
	b := baseParams()
	b.TenantID = " t1 "
	b.Timezone = ""
	b.ReferenceDay = "2024-03-15 "

	assert.Equal(t, DashboardKey(a), DashboardKey(b))
	assert.True(t, strings.HasPrefix(DashboardKey(a), KeyPrefix+"dashboard:t1:"))
}

func TestDashboardKeyCapturesEveryParameter(t *testing.T) {
	base := DashboardKey(baseParams())

	mutations := map[string]func(p *DashboardKeyParams){
		"tenant":     func(p *DashboardKeyParams) { p.TenantID = "t2" },
		"department": func(p *DashboardKeyParams) { p.DepartmentID = "d2" },
		"date":       func(p *DashboardKeyParams) { p.ReferenceDay = "2024-03-16" },
		"timezone":   func(p *DashboardKeyParams) { p.Timezone = "Asia/Shanghai" },
		"weights":    func(p *DashboardKeyParams) { p.Weights.Routine = 1 },
		"limit":      func(p *DashboardKeyParams) { p.LeaderboardLimit = 5 },
		"user":       func(p *DashboardKeyParams) { p.UserID = "u1" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := baseParams()
			mutate(&p)
			assert.NotEqual(t, base, DashboardKey(p))
		})
	}
}

func TestDashboardKeyRoleOnlyWithUser(t *testing.T) {
	t.Run("部门看板不区分角色", func(t *testing.T) {
		warm := baseParams()
		manager := baseParams()
		manager.Role = reporting.RoleManager
		assert.Equal(t, DashboardKey(warm), DashboardKey(manager))
	})

	t.Run("个人统计区分角色", func(t *testing.T) {
		user := baseParams()
		user.UserID = "u1"
		user.Role = reporting.RoleUser
		manager := user
		manager.Role = reporting.RoleManager
		assert.NotEqual(t, DashboardKey(user), DashboardKey(manager))
	})
}

func TestTenantPatternMatchesKeys(t *testing.T) {
	key := DashboardKey(baseParams())
	pattern := TenantPattern("t1")
	assert.True(t, strings.HasPrefix(key, strings.TrimSuffix(pattern, "*")))
}
