package model

import (
	"time"

	"gorm.io/gorm"
)

// Role 用户角色
type Role string

const (
	RoleOrganizer Role = "organizer" // 发起人
	RoleAdmin     Role = "admin"     // 管理员
	RoleDonor     Role = "donor"     // 捐赠人
	RoleSystem    Role = "system"    // 系统（定时任务等内部操作）
)

// Profile 用户档案模型
type Profile struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Name      string `json:"name" gorm:"not null"`
	Role      Role   `json:"role" gorm:"default:'donor'"`
	AvatarURL string `json:"avatar_url"`

	// 是否为保留档案（匿名捐赠人、系统），保留档案不可删除
	Reserved bool `json:"reserved" gorm:"default:false"`
}

// 保留档案名称
const (
	AnonymousProfileName = "匿名爱心人士"
	SystemProfileName    = "系统"
)
