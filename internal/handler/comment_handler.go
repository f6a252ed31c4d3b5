package handler

import (
	"net/http"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/gin-gonic/gin"
)

// CommentHandler 留言处理器
type CommentHandler struct {
	commentLogic *logic.CommentLogic
}

// NewCommentHandler 创建留言处理器
func NewCommentHandler(commentLogic *logic.CommentLogic) *CommentHandler {
	return &CommentHandler{commentLogic: commentLogic}
}

// CreateComment 创建项目留言
func (h *CommentHandler) CreateComment(c *gin.Context) {
	campaignID, ok := campaignIDParam(c)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Validation("请求参数不合法: %v", err))
		return
	}

	comment := model.Comment{
		CampaignID: campaignID,
		Body:       req.Body,
	}
	if err := h.commentLogic.CreateComment(&comment, viewerActor(c)); err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "留言成功", comment)
}

// GetCampaignComments 获取项目留言列表
func (h *CommentHandler) GetCampaignComments(c *gin.Context) {
	campaignID, ok := campaignIDParam(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	comments, total, err := h.commentLogic.GetCampaignComments(campaignID, viewerActor(c), page, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       comments,
		"pagination": paginationOf(page, pageSize, total),
	})
}
