package common

import (
	"fmt"

	"gorm.io/gorm"
)

// NotDeleted 过滤已软删除的记录（默认查询行为）
// 使用方法：db.Scopes(common.NotDeleted()).Find(&tasks)
func NotDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted_at IS NULL")
	}
}

// ByTenant 按租户ID过滤（多租户查询通用Scope）
// 使用方法：db.Scopes(common.ByTenant(tenantID)).Find(&tasks)
func ByTenant(tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// ByDepartment 按部门过滤，departmentID 为空时不过滤
func ByDepartment(departmentID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if departmentID == "" {
			return db
		}
		return db.Where("department_id = ?", departmentID)
	}
}

// InDateRange 按时间字段过滤（闭区间），零值边界不生效
// fieldName: 日期字段名称（如 created_at、log_date）
func InDateRange(fieldName string, dateRange DateRange) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !dateRange.Start.IsZero() {
			db = db.Where(fmt.Sprintf("%s >= ?", fieldName), dateRange.Start)
		}
		if !dateRange.End.IsZero() {
			db = db.Where(fmt.Sprintf("%s <= ?", fieldName), dateRange.End)
		}
		return db
	}
}

// ActiveOnly 仅查询活跃状态的记录
// 使用方法：db.Scopes(common.ActiveOnly()).Find(&users)
func ActiveOnly() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", "active")
	}
}

// StatusIn 按状态集合过滤，空集合不过滤
func StatusIn(statuses []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(statuses) == 0 {
			return db
		}
		return db.Where("status IN ?", statuses)
	}
}
