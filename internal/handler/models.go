package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 项目相关请求模型

// CreateCampaignRequest 创建项目请求
type CreateCampaignRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Location    string          `json:"location"`
	MediaURL    string          `json:"media_url"`
	GoalAmount  decimal.Decimal `json:"goal_amount" binding:"required"`
	Deadline    *time.Time      `json:"deadline"`
}

// UpdateCampaignRequest 更新项目请求，零值字段不更新
type UpdateCampaignRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Location    string          `json:"location"`
	MediaURL    string          `json:"media_url"`
	GoalAmount  decimal.Decimal `json:"goal_amount"`
	Deadline    *time.Time      `json:"deadline"`
}

// TransitionRequest 项目状态迁移请求
type TransitionRequest struct {
	Reason string `json:"reason"`
}

// 捐赠相关请求模型

// RecordDonationRequest 登记捐赠请求
type RecordDonationRequest struct {
	CampaignID uint            `json:"campaign_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Anonymous  bool            `json:"anonymous"`
	Reference  string          `json:"reference"`
}

// SettleDonationRequest 结算捐赠请求
type SettleDonationRequest struct {
	Outcome string `json:"outcome" binding:"required"` // completed 或 failed
	Timeout int    `json:"timeout"`                    // 支付确认超时（秒），缺省 30
}

// ReverseDonationRequest 撤销捐赠请求
type ReverseDonationRequest struct {
	Target string `json:"target" binding:"required"` // refunded 或 cancelled
	Reason string `json:"reason"`
}

// 留言相关请求模型

// CreateCommentRequest 创建留言请求
type CreateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}
