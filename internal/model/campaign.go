package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Campaign 众筹项目模型
type Campaign struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"index"`
	Location    string `json:"location" gorm:"index"`
	MediaURL    string `json:"media_url"`

	// 众筹信息
	GoalAmount decimal.Decimal `json:"goal_amount" gorm:"type:numeric(20,2);not null"`

	// 派生字段：始终等于捐赠账本中 active+completed 捐赠的折叠值，
	// 只能由聚合逻辑在项目锁内更新
	CollectedAmount  decimal.Decimal `json:"collected_amount" gorm:"type:numeric(20,2);default:0"`
	DonorCount       int             `json:"donor_count" gorm:"default:0"`
	PercentageFunded int             `json:"percentage_funded" gorm:"default:0"`

	// 生命周期
	Status   CampaignStatus `json:"status" gorm:"default:'draft';index"`
	Verified bool           `json:"verified" gorm:"default:false"`
	Deadline *time.Time     `json:"deadline"`

	// 发起人信息，项目归属不可转让
	OrganizerID uint `json:"organizer_id" gorm:"not null;index"`

	// 关联
	Donations   []Donation           `json:"donations,omitempty" gorm:"foreignKey:CampaignID"`
	Transitions []CampaignTransition `json:"transitions,omitempty" gorm:"foreignKey:CampaignID"`
}

// CampaignStatus 项目状态
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"                // 草稿
	CampaignStatusPending   CampaignStatus = "pending_verification" // 待审核
	CampaignStatusActive    CampaignStatus = "active"               // 进行中
	CampaignStatusPaused    CampaignStatus = "paused"               // 已暂停
	CampaignStatusCompleted CampaignStatus = "completed"            // 已完成
	CampaignStatusRejected  CampaignStatus = "rejected"             // 已驳回
)

// CampaignTransition 项目状态迁移记录，用于审计
type CampaignTransition struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignID uint           `json:"campaign_id" gorm:"not null;index"`
	ActorID    uint           `json:"actor_id"`
	ActorRole  Role           `json:"actor_role"`
	FromStatus CampaignStatus `json:"from_status"`
	ToStatus   CampaignStatus `json:"to_status"`
	Reason     string         `json:"reason"`
}
