package logic

import (
	"errors"
	"strings"
	"time"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignLogic 项目业务逻辑
type CampaignLogic struct {
	db           *gorm.DB
	verification *VerificationLogic
}

// NewCampaignLogic 创建项目业务逻辑
func NewCampaignLogic(db *gorm.DB, verification *VerificationLogic) *CampaignLogic {
	return &CampaignLogic{db: db, verification: verification}
}

// CreateCampaign 创建项目草稿，发起人角色专属
func (p *CampaignLogic) CreateCampaign(campaign *model.Campaign, actor Actor) error {
	if actor.Role != model.RoleOrganizer {
		return apperr.Forbidden("只有发起人可以创建项目")
	}
	if err := p.validateCampaign(campaign); err != nil {
		return err
	}

	campaign.OrganizerID = actor.ProfileID
	campaign.Status = model.CampaignStatusDraft
	campaign.Verified = false
	campaign.CollectedAmount = decimal.Zero
	campaign.DonorCount = 0
	campaign.PercentageFunded = 0

	if err := p.db.Create(campaign).Error; err != nil {
		return apperr.Upstream(err, "创建项目失败")
	}
	return nil
}

// UpdateCampaign 更新项目描述性字段，仅 draft/rejected 状态下项目归属人可编辑。
// 派生字段与生命周期字段不经此处修改。
func (p *CampaignLogic) UpdateCampaign(campaignID uint, updates *model.Campaign, actor Actor) (*model.Campaign, error) {
	campaign, err := p.GetCampaign(campaignID, actor)
	if err != nil {
		return nil, err
	}
	if !p.verification.CanMutate(campaign, actor) {
		if campaign.Status != model.CampaignStatusDraft && campaign.Status != model.CampaignStatusRejected {
			return nil, apperr.InvalidState("项目当前状态为 %s，无法编辑", campaign.Status)
		}
		return nil, apperr.Forbidden("无权编辑该项目")
	}

	fields := map[string]interface{}{}
	if strings.TrimSpace(updates.Title) != "" {
		fields["title"] = updates.Title
	}
	if updates.Description != "" {
		fields["description"] = updates.Description
	}
	if updates.Category != "" {
		fields["category"] = updates.Category
	}
	if updates.Location != "" {
		fields["location"] = updates.Location
	}
	if updates.MediaURL != "" {
		fields["media_url"] = updates.MediaURL
	}
	if updates.GoalAmount.IsPositive() {
		fields["goal_amount"] = updates.GoalAmount
	}
	if updates.Deadline != nil {
		fields["deadline"] = updates.Deadline
	}
	if len(fields) == 0 {
		return campaign, nil
	}

	if err := p.db.Model(campaign).Updates(fields).Error; err != nil {
		return nil, apperr.Upstream(err, "更新项目失败")
	}
	return campaign, nil
}

// GetCampaign 获取项目详情，按可见性规则过滤
func (p *CampaignLogic) GetCampaign(campaignID uint, viewer Actor) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := p.db.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("项目不存在")
		}
		return nil, apperr.Upstream(err, "获取项目失败")
	}
	if !p.verification.CanView(&campaign, viewer) {
		return nil, apperr.Forbidden("无权查看该项目")
	}
	return &campaign, nil
}

// GetCampaigns 分页获取 viewer 可见的项目列表。
// 公共访问者只能看到已审核通过的 active/paused/completed 项目，
// 发起人额外看到自己的全部项目，管理员看到全部。
func (p *CampaignLogic) GetCampaigns(viewer Actor, category, location string, page, pageSize int) ([]model.Campaign, int64, error) {
	query := p.db.Model(&model.Campaign{})

	switch viewer.Role {
	case model.RoleAdmin, model.RoleSystem:
		// 不过滤
	case model.RoleOrganizer:
		query = query.Where(
			"(status IN ? AND verified = ?) OR organizer_id = ?",
			publicStatuses(), true, viewer.ProfileID,
		)
	default:
		query = query.Where("status IN ? AND verified = ?", publicStatuses(), true)
	}

	if category != "" {
		query = query.Where("category = ?", category)
	}
	if location != "" {
		query = query.Where("location = ?", location)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取项目总数失败")
	}

	var campaigns []model.Campaign
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取项目列表失败")
	}
	return campaigns, total, nil
}

// DueCampaigns 获取应由系统结束的项目：进行中且已到截止时间或已达目标金额
func (p *CampaignLogic) DueCampaigns(now time.Time) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	if err := p.db.Where("status = ?", model.CampaignStatusActive).
		Where("(deadline IS NOT NULL AND deadline <= ?) OR collected_amount >= goal_amount", now).
		Find(&campaigns).Error; err != nil {
		return nil, apperr.Upstream(err, "获取到期项目失败")
	}
	return campaigns, nil
}

// publicStatuses 对公共访问者可见的项目状态
func publicStatuses() []model.CampaignStatus {
	return []model.CampaignStatus{
		model.CampaignStatusActive,
		model.CampaignStatusPaused,
		model.CampaignStatusCompleted,
	}
}

// validateCampaign 校验项目基础数据
func (p *CampaignLogic) validateCampaign(campaign *model.Campaign) error {
	if strings.TrimSpace(campaign.Title) == "" {
		return apperr.Validation("项目标题不能为空")
	}
	if !campaign.GoalAmount.IsPositive() {
		return apperr.Validation("目标金额必须大于0")
	}
	if campaign.Deadline != nil && campaign.Deadline.Before(time.Now()) {
		return apperr.Validation("截止时间不能早于当前时间")
	}
	return nil
}
