package logic

import (
	"errors"
	"strings"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"gorm.io/gorm"
)

// CommentLogic 项目留言业务逻辑
type CommentLogic struct {
	db           *gorm.DB
	verification *VerificationLogic
	notifier     Notifier
}

// NewCommentLogic 创建留言业务逻辑，notifier 可以为 nil
func NewCommentLogic(db *gorm.DB, verification *VerificationLogic, notifier Notifier) *CommentLogic {
	return &CommentLogic{db: db, verification: verification, notifier: notifier}
}

// CreateComment 创建留言并通知项目发起人。留言原文完整入库，
// 通知侧的截断不影响存储。
func (c *CommentLogic) CreateComment(comment *model.Comment, actor Actor) error {
	if strings.TrimSpace(comment.Body) == "" {
		return apperr.Validation("留言内容不能为空")
	}
	if actor.ProfileID == 0 {
		return apperr.Validation("留言人不能为空")
	}

	var campaign model.Campaign
	if err := c.db.First(&campaign, comment.CampaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("项目不存在")
		}
		return apperr.Upstream(err, "获取项目失败")
	}
	if !c.verification.CanView(&campaign, actor) {
		return apperr.Forbidden("无权查看该项目")
	}

	comment.AuthorID = actor.ProfileID
	if err := c.db.Create(comment).Error; err != nil {
		return apperr.Upstream(err, "创建留言失败")
	}

	// 通知失败不回滚留言创建
	if c.notifier != nil {
		c.notifier.OnCommentCreated(comment, &campaign)
	}
	return nil
}

// GetCampaignComments 分页获取项目留言
func (c *CommentLogic) GetCampaignComments(campaignID uint, viewer Actor, page, pageSize int) ([]model.Comment, int64, error) {
	var campaign model.Campaign
	if err := c.db.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.NotFound("项目不存在")
		}
		return nil, 0, apperr.Upstream(err, "获取项目失败")
	}
	if !c.verification.CanView(&campaign, viewer) {
		return nil, 0, apperr.Forbidden("无权查看该项目")
	}

	var comments []model.Comment
	var total int64
	if err := c.db.Model(&model.Comment{}).Where("campaign_id = ?", campaignID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取留言总数失败")
	}

	offset := (page - 1) * pageSize
	if err := c.db.Where("campaign_id = ?", campaignID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取留言失败")
	}
	return comments, total, nil
}
