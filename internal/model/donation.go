package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Donation 捐赠记录，只追加，金额创建后不可变更
type Donation struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	CampaignID uint            `json:"campaign_id" gorm:"not null;index"`
	DonorID    uint            `json:"donor_id" gorm:"not null;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"`
	Anonymous  bool            `json:"anonymous" gorm:"default:false"`

	// 外部参考号，客户端重试时复用同一参考号以去重
	Reference string `json:"reference" gorm:"uniqueIndex;not null"`

	// 记录状态（可撤销）与支付状态（pending 只可迁移到终态一次）
	Status        DonationStatus `json:"status" gorm:"default:'active';index"`
	PaymentStatus PaymentStatus  `json:"payment_status" gorm:"default:'pending';index"`
	ReverseReason string         `json:"reverse_reason"`

	// 聚合生效标记：none → applied → reversed，单调，保证每个方向至多生效一次
	EffectState EffectState `json:"effect_state" gorm:"default:'none'"`

	// 关联
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
}

// DonationStatus 捐赠记录状态
type DonationStatus string

const (
	DonationStatusActive    DonationStatus = "active"    // 有效
	DonationStatusRefunded  DonationStatus = "refunded"  // 已退款
	DonationStatusCancelled DonationStatus = "cancelled" // 已取消
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // 待支付
	PaymentStatusCompleted PaymentStatus = "completed" // 已完成
	PaymentStatusFailed    PaymentStatus = "failed"    // 已失败
)

// EffectState 聚合生效标记
type EffectState string

const (
	EffectStateNone     EffectState = "none"     // 未生效
	EffectStateApplied  EffectState = "applied"  // 已计入聚合
	EffectStateReversed EffectState = "reversed" // 已从聚合回退
)

// Qualifies 判断捐赠当前是否应计入项目聚合
func (d *Donation) Qualifies() bool {
	return d.Status == DonationStatusActive && d.PaymentStatus == PaymentStatusCompleted
}
