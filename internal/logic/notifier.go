package logic

import "github.com/boring-ventures/minka-sub002/internal/model"

// Notifier 通知派发接口。派发与触发它的事务解耦：
// 实现必须在事务提交后异步处理，不得阻塞或使触发方失败。
type Notifier interface {
	OnDonationSettled(donation *model.Donation, campaign *model.Campaign)
	OnCommentCreated(comment *model.Comment, campaign *model.Campaign)
	OnCampaignStatusChanged(campaign *model.Campaign, from, to model.CampaignStatus, reason string)
}
