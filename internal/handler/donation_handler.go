package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/gin-gonic/gin"
)

// defaultSettleTimeout 支付确认的缺省超时
const defaultSettleTimeout = 30 * time.Second

// DonationHandler 捐赠处理器
type DonationHandler struct {
	donationLogic *logic.DonationLogic
	anonymousID   uint
}

// NewDonationHandler 创建捐赠处理器，anonymousID 为匿名捐赠归集档案
func NewDonationHandler(donationLogic *logic.DonationLogic, anonymousID uint) *DonationHandler {
	return &DonationHandler{donationLogic: donationLogic, anonymousID: anonymousID}
}

// RecordDonation 登记捐赠
func (h *DonationHandler) RecordDonation(c *gin.Context) {
	var req RecordDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Validation("请求参数不合法: %v", err))
		return
	}

	donorID := viewerActor(c).ProfileID
	if donorID == 0 {
		// 未登录的捐赠落到匿名档案
		donorID = h.anonymousID
	}

	donation := model.Donation{
		CampaignID: req.CampaignID,
		DonorID:    donorID,
		Amount:     req.Amount,
		Anonymous:  req.Anonymous || donorID == h.anonymousID,
		Reference:  req.Reference,
	}
	if err := h.donationLogic.Record(&donation); err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "捐赠登记成功", donation)
}

// SettleDonation 结算捐赠
func (h *DonationHandler) SettleDonation(c *gin.Context) {
	donationID, ok := donationIDParam(c)
	if !ok {
		return
	}
	var req SettleDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Validation("请求参数不合法: %v", err))
		return
	}

	timeout := defaultSettleTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	donation, err := h.donationLogic.Settle(ctx, donationID, model.PaymentStatus(req.Outcome))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "捐赠结算成功", donation)
}

// ReverseDonation 撤销捐赠（退款或取消）
func (h *DonationHandler) ReverseDonation(c *gin.Context) {
	donationID, ok := donationIDParam(c)
	if !ok {
		return
	}
	var req ReverseDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Validation("请求参数不合法: %v", err))
		return
	}

	donation, err := h.donationLogic.Reverse(donationID, model.DonationStatus(req.Target), req.Reason)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "捐赠撤销成功", donation)
}

// GetCampaignDonations 获取项目捐赠记录
func (h *DonationHandler) GetCampaignDonations(c *gin.Context) {
	campaignID, ok := campaignIDParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	donations, total, err := h.donationLogic.GetCampaignDonations(campaignID, page, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       donations,
		"pagination": paginationOf(page, pageSize, total),
	})
}

// GetDonorDonations 获取捐赠人的捐赠记录，仅本人或管理员可见
func (h *DonationHandler) GetDonorDonations(c *gin.Context) {
	raw := c.Param("profile_id")
	donorID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ErrorResponse(c, apperr.Validation("无效的用户ID"))
		return
	}

	viewer := viewerActor(c)
	if viewer.Role != model.RoleAdmin && viewer.ProfileID != uint(donorID) {
		ErrorResponse(c, apperr.Forbidden("无权查看该用户的捐赠记录"))
		return
	}

	page, pageSize := pageParams(c)
	donations, total, err := h.donationLogic.GetDonorDonations(uint(donorID), page, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       donations,
		"pagination": paginationOf(page, pageSize, total),
	})
}

// donationIDParam 解析路径中的捐赠ID
func donationIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ErrorResponse(c, apperr.Validation("无效的捐赠ID"))
		return 0, false
	}
	return uint(id), true
}
