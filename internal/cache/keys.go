package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"worktrack/internal/reporting"
)

// KeyPrefix 报表缓存键前缀
const KeyPrefix = "worktrack:report:"

// DashboardKeyParams 影响看板结果的全部参数
type DashboardKeyParams struct {
	TenantID         string
	DepartmentID     string
	ReferenceDay     string // 窗口时区下的参考日 2006-01-02
	Timezone         string
	Weights          reporting.Weights
	LeaderboardLimit int
	UserID           string
	Role             reporting.Role
}

// DashboardKey 构造看板缓存键；等价参数得到相同的键
//
// 角色只影响个人统计，不带 UserID 时不进入键，部门看板由所有角色和后台预热共用。
func DashboardKey(p DashboardKeyParams) string {
	userID := canonicalID(p.UserID)
	var role string
	if userID != "" {
		role = string(p.Role)
	}
	return KeyPrefix + "dashboard:" + canonicalID(p.TenantID) + ":" + makeKey(
		canonicalID(p.TenantID),
		canonicalID(p.DepartmentID),
		strings.TrimSpace(p.ReferenceDay),
		canonicalZone(p.Timezone),
		canonicalFloat(p.Weights.Assigned),
		canonicalFloat(p.Weights.Project),
		canonicalFloat(p.Weights.Routine),
		strconv.Itoa(max(p.LeaderboardLimit, 0)),
		userID,
		role,
	)
}

// TenantPattern 租户下全部报表缓存的匹配模式
func TenantPattern(tenantID string) string {
	return KeyPrefix + "dashboard:" + canonicalID(tenantID) + ":*"
}

func canonicalID(id string) string {
	return strings.TrimSpace(id)
}

func canonicalZone(zone string) string {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return "UTC"
	}
	return zone
}

func canonicalFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func makeKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	h := sha1.Sum([]byte(joined))
	return hex.EncodeToString(h[:])
}
