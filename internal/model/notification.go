package model

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotificationTypeDonationReceived NotificationType = "donation_received" // 收到捐赠
	NotificationTypeCommentReceived  NotificationType = "comment_received"  // 收到留言
	NotificationTypeCampaignUpdate   NotificationType = "campaign_update"   // 项目状态更新
	NotificationTypeGeneralNews      NotificationType = "general_news"      // 平台公告
)

// Notification 站内通知，由账本事件或留言事件触发创建，创建后除已读标记外不可变更
type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	RecipientID uint             `json:"recipient_id" gorm:"not null;index"`
	Type        NotificationType `json:"type" gorm:"not null"`
	Title       string           `json:"title" gorm:"not null"`
	Message     string           `json:"message" gorm:"type:text"`

	// 触发来源引用，按类型可选
	CampaignID *uint `json:"campaign_id"`
	DonationID *uint `json:"donation_id"`
	CommentID  *uint `json:"comment_id"`

	Read bool `json:"read" gorm:"default:false"`
}
