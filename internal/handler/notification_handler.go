package handler

import (
	"net/http"
	"strconv"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/gin-gonic/gin"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	notificationLogic *logic.NotificationLogic
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(notificationLogic *logic.NotificationLogic) *NotificationHandler {
	return &NotificationHandler{notificationLogic: notificationLogic}
}

// GetProfileNotifications 获取用户通知列表
func (h *NotificationHandler) GetProfileNotifications(c *gin.Context) {
	raw := c.Param("profile_id")
	profileID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ErrorResponse(c, apperr.Validation("无效的用户ID"))
		return
	}

	page, pageSize := pageParams(c)
	notifications, total, err := h.notificationLogic.GetProfileNotifications(uint(profileID), viewerActor(c), page, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       notifications,
		"pagination": paginationOf(page, pageSize, total),
	})
}

// MarkNotificationRead 标记通知为已读
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	raw := c.Param("id")
	notificationID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ErrorResponse(c, apperr.Validation("无效的通知ID"))
		return
	}

	if err := h.notificationLogic.MarkRead(uint(notificationID), viewerActor(c)); err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "通知已读", nil)
}
