package logic

import (
	"errors"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"gorm.io/gorm"
)

// NotificationLogic 通知读取业务逻辑，写入由派发器负责
type NotificationLogic struct {
	db *gorm.DB
}

// NewNotificationLogic 创建通知业务逻辑
func NewNotificationLogic(db *gorm.DB) *NotificationLogic {
	return &NotificationLogic{db: db}
}

// GetProfileNotifications 分页获取用户通知，仅本人或管理员可读
func (n *NotificationLogic) GetProfileNotifications(profileID uint, viewer Actor, page, pageSize int) ([]model.Notification, int64, error) {
	if viewer.Role != model.RoleAdmin && viewer.ProfileID != profileID {
		return nil, 0, apperr.Forbidden("无权查看该用户的通知")
	}

	var notifications []model.Notification
	var total int64
	if err := n.db.Model(&model.Notification{}).Where("recipient_id = ?", profileID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取通知总数失败")
	}

	offset := (page - 1) * pageSize
	if err := n.db.Where("recipient_id = ?", profileID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取通知失败")
	}
	return notifications, total, nil
}

// MarkRead 将通知标记为已读，通知创建后唯一允许的变更
func (n *NotificationLogic) MarkRead(notificationID uint, viewer Actor) error {
	var notification model.Notification
	if err := n.db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("通知不存在")
		}
		return apperr.Upstream(err, "获取通知失败")
	}
	if viewer.Role != model.RoleAdmin && viewer.ProfileID != notification.RecipientID {
		return apperr.Forbidden("无权操作该通知")
	}

	if err := n.db.Model(&notification).Update("read", true).Error; err != nil {
		return apperr.Upstream(err, "更新通知失败")
	}
	return nil
}
