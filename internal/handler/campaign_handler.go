package handler

import (
	"net/http"
	"strconv"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 项目处理器
type CampaignHandler struct {
	campaignLogic     *logic.CampaignLogic
	verificationLogic *logic.VerificationLogic
	aggregateLogic    *logic.AggregateLogic
}

// NewCampaignHandler 创建项目处理器
func NewCampaignHandler(campaignLogic *logic.CampaignLogic, verificationLogic *logic.VerificationLogic, aggregateLogic *logic.AggregateLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic:     campaignLogic,
		verificationLogic: verificationLogic,
		aggregateLogic:    aggregateLogic,
	}
}

// CreateCampaign 创建项目草稿
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Validation("请求参数不合法: %v", err))
		return
	}

	campaign := model.Campaign{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		MediaURL:    req.MediaURL,
		GoalAmount:  req.GoalAmount,
		Deadline:    req.Deadline,
	}
	if err := h.campaignLogic.CreateCampaign(&campaign, viewerActor(c)); err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "项目创建成功", campaign)
}

// GetCampaigns 获取项目列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	page, pageSize := pageParams(c)
	campaigns, total, err := h.campaignLogic.GetCampaigns(
		viewerActor(c), c.Query("category"), c.Query("location"), page, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       campaigns,
		"pagination": paginationOf(page, pageSize, total),
	})
}

// GetCampaign 获取项目详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignID, ok := campaignIDParam(c)
	if !ok {
		return
	}
	campaign, err := h.campaignLogic.GetCampaign(campaignID, viewerActor(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": campaign})
}

// UpdateCampaign 更新项目内容
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	campaignID, ok := campaignIDParam(c)
	if !ok {
		return
	}
	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Validation("请求参数不合法: %v", err))
		return
	}

	updates := model.Campaign{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		MediaURL:    req.MediaURL,
		GoalAmount:  req.GoalAmount,
		Deadline:    req.Deadline,
	}
	campaign, err := h.campaignLogic.UpdateCampaign(campaignID, &updates, viewerActor(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "项目更新成功", campaign)
}

// Transition 执行项目状态迁移，事件由路由路径决定
func (h *CampaignHandler) Transition(event logic.TransitionEvent) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, ok := campaignIDParam(c)
		if !ok {
			return
		}
		var req TransitionRequest
		// 迁移请求体可为空
		_ = c.ShouldBindJSON(&req)

		campaign, err := h.verificationLogic.Transition(campaignID, event, viewerActor(c), req.Reason)
		if err != nil {
			ErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "项目状态更新成功", campaign)
	}
}

// GetSnapshot 获取项目聚合快照
func (h *CampaignHandler) GetSnapshot(c *gin.Context) {
	campaignID, ok := campaignIDParam(c)
	if !ok {
		return
	}
	// 可见性与详情页一致
	if _, err := h.campaignLogic.GetCampaign(campaignID, viewerActor(c)); err != nil {
		ErrorResponse(c, err)
		return
	}
	snapshot, err := h.aggregateLogic.Snapshot(campaignID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// GetTransitions 获取项目状态迁移审计记录，仅发起人与管理员可见
func (h *CampaignHandler) GetTransitions(c *gin.Context) {
	campaignID, ok := campaignIDParam(c)
	if !ok {
		return
	}
	viewer := viewerActor(c)
	campaign, err := h.campaignLogic.GetCampaign(campaignID, viewer)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	if viewer.Role != model.RoleAdmin && campaign.OrganizerID != viewer.ProfileID {
		ErrorResponse(c, apperr.Forbidden("无权查看该项目的审核记录"))
		return
	}

	records, err := h.verificationLogic.GetTransitions(campaignID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// campaignIDParam 解析路径中的项目ID
func campaignIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ErrorResponse(c, apperr.Validation("无效的项目ID"))
		return 0, false
	}
	return uint(id), true
}
