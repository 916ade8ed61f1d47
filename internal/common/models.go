package common

import "time"

// SoftDeleteModel 软删除基础模型
// 提供统一的软删除字段和方法，可嵌入到需要软删除功能的模型中
type SoftDeleteModel struct {
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
	DeletedBy string     `json:"deletedBy,omitempty" gorm:"size:100"`
}

// IsDeleted 检查记录是否已被软删除
func (m *SoftDeleteModel) IsDeleted() bool {
	return m.DeletedAt != nil
}

// TimestampModel 时间戳基础模型
type TimestampModel struct {
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

// TenantModel 多租户实体的公共字段：租户、部门、时间戳与软删除
type TenantModel struct {
	ID           string `json:"id" gorm:"primaryKey;size:64"`
	TenantID     string `json:"tenantId" gorm:"size:64;not null;index:,composite:tenant_department"`
	DepartmentID string `json:"departmentId" gorm:"size:64;index:,composite:tenant_department"`
	TimestampModel
	SoftDeleteModel
}
