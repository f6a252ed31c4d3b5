package model

import (
	"time"

	"gorm.io/gorm"
)

// Comment 项目留言，存储内容永不截断（通知内容的截断只发生在通知侧）
type Comment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	CampaignID uint   `json:"campaign_id" gorm:"not null;index"`
	AuthorID   uint   `json:"author_id" gorm:"not null;index"`
	Body       string `json:"body" gorm:"type:text;not null"`
}
