package logic

import (
	"context"
	"errors"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentConfirmer 外部支付确认接口。确认受调用方 ctx 超时约束，
// 超时或失败时捐赠保持 pending，可安全重试。
type PaymentConfirmer interface {
	Confirm(ctx context.Context, donation *model.Donation) error
}

// DonationLogic 捐赠账本业务逻辑。账本只追加，是资金流动的唯一事实来源，
// 项目聚合只是它的缓存。
type DonationLogic struct {
	db        *gorm.DB
	aggregate *AggregateLogic
	confirmer PaymentConfirmer
	notifier  Notifier
}

// NewDonationLogic 创建捐赠账本业务逻辑。confirmer 与 notifier 可以为 nil。
func NewDonationLogic(db *gorm.DB, aggregate *AggregateLogic, confirmer PaymentConfirmer, notifier Notifier) *DonationLogic {
	return &DonationLogic{
		db:        db,
		aggregate: aggregate,
		confirmer: confirmer,
		notifier:  notifier,
	}
}

// Record 登记一笔新捐赠，初始为 active/pending，不产生任何聚合效果。
// 重试时复用同一参考号会返回已登记的记录而不是重复创建。
func (l *DonationLogic) Record(donation *model.Donation) error {
	if !donation.Amount.IsPositive() {
		return apperr.Validation("捐赠金额必须大于0")
	}
	if donation.CampaignID == 0 {
		return apperr.Validation("项目ID不能为空")
	}
	if donation.DonorID == 0 {
		return apperr.Validation("捐赠人不能为空")
	}

	var campaign model.Campaign
	if err := l.db.First(&campaign, donation.CampaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("项目不存在")
		}
		return apperr.Upstream(err, "获取项目失败")
	}
	if campaign.Status != model.CampaignStatusActive {
		return apperr.InvalidState("项目当前状态为 %s，无法接受捐赠", campaign.Status)
	}

	if donation.Reference == "" {
		donation.Reference = uuid.NewString()
	} else {
		// 参考号去重：同一参考号的重试视为同一笔捐赠
		var existing model.Donation
		err := l.db.Where("reference = ?", donation.Reference).First(&existing).Error
		if err == nil {
			*donation = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Upstream(err, "查询捐赠参考号失败")
		}
	}

	donation.Status = model.DonationStatusActive
	donation.PaymentStatus = model.PaymentStatusPending
	donation.EffectState = model.EffectStateNone

	if err := l.db.Create(donation).Error; err != nil {
		return apperr.Upstream(err, "创建捐赠记录失败")
	}
	return nil
}

// Settle 将支付状态从 pending 迁移到终态。迁移到 completed 时在同一事务内
// 打生效标记并更新项目聚合，保证聚合效果至多生效一次；重复以相同结果结算
// 是幂等空操作。
func (l *DonationLogic) Settle(ctx context.Context, donationID uint, outcome model.PaymentStatus) (*model.Donation, error) {
	if outcome != model.PaymentStatusCompleted && outcome != model.PaymentStatusFailed {
		return nil, apperr.Validation("无效的结算结果: %s", outcome)
	}

	donation, err := l.getDonation(donationID)
	if err != nil {
		return nil, err
	}

	if donation.PaymentStatus != model.PaymentStatusPending {
		if donation.PaymentStatus == outcome {
			// 幂等：重复结算为空操作，聚合不会二次生效
			return donation, nil
		}
		return nil, apperr.Conflict("捐赠已结算为 %s，无法再结算为 %s", donation.PaymentStatus, outcome)
	}

	if outcome == model.PaymentStatusFailed {
		return l.settleFailed(donation)
	}

	if donation.Status != model.DonationStatusActive {
		return nil, apperr.InvalidState("捐赠已%s，无法结算", reverseLabel(donation.Status))
	}

	// 外部支付确认在项目锁之外进行，慢支付通道不会阻塞同项目的其他捐赠
	if l.confirmer != nil {
		if err := l.confirmer.Confirm(ctx, donation); err != nil {
			return nil, apperr.Upstream(err, "支付确认失败，捐赠保持待支付状态")
		}
	}

	applied := false
	err = l.aggregate.WithLock(donation.CampaignID, func(tx *gorm.DB) error {
		// 条件更新即比较交换：命中则本次调用独占聚合生效权
		res := tx.Model(&model.Donation{}).
			Where("id = ? AND payment_status = ? AND status = ? AND effect_state = ?",
				donation.ID, model.PaymentStatusPending, model.DonationStatusActive, model.EffectStateNone).
			Updates(map[string]interface{}{
				"payment_status": model.PaymentStatusCompleted,
				"effect_state":   model.EffectStateApplied,
			})
		if res.Error != nil {
			return apperr.Upstream(res.Error, "更新捐赠支付状态失败")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return l.aggregate.ApplyTx(tx, donation.CampaignID, donation.Amount)
	})
	if err != nil {
		return nil, err
	}

	donation, err = l.getDonation(donationID)
	if err != nil {
		return nil, err
	}

	if !applied {
		// 标记未命中：并发方已经完成迁移，按当前落库状态判定结果
		if donation.PaymentStatus == outcome {
			return donation, nil
		}
		if donation.Status != model.DonationStatusActive {
			return nil, apperr.InvalidState("捐赠已%s，无法结算", reverseLabel(donation.Status))
		}
		return nil, apperr.Conflict("捐赠已结算为 %s，无法再结算为 %s", donation.PaymentStatus, outcome)
	}

	// 通知在事务提交后派发，失败不回滚结算
	if l.notifier != nil {
		var campaign model.Campaign
		if err := l.db.First(&campaign, donation.CampaignID).Error; err != nil {
			logger.Error("Failed to load campaign %d for notification: %v", donation.CampaignID, err)
		} else {
			l.notifier.OnDonationSettled(donation, &campaign)
		}
	}
	return donation, nil
}

// settleFailed 结算为失败，不触碰聚合
func (l *DonationLogic) settleFailed(donation *model.Donation) (*model.Donation, error) {
	res := l.db.Model(&model.Donation{}).
		Where("id = ? AND payment_status = ?", donation.ID, model.PaymentStatusPending).
		Update("payment_status", model.PaymentStatusFailed)
	if res.Error != nil {
		return nil, apperr.Upstream(res.Error, "更新捐赠支付状态失败")
	}

	donation, err := l.getDonation(donation.ID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 && donation.PaymentStatus != model.PaymentStatusFailed {
		return nil, apperr.Conflict("捐赠已结算为 %s，无法再结算为 failed", donation.PaymentStatus)
	}
	return donation, nil
}

// Reverse 撤销捐赠（退款或取消）。只有 active 记录可撤销；若捐赠先前已计入
// 聚合则在同一事务内回退一次，重复撤销是幂等空操作，不会二次扣减。
func (l *DonationLogic) Reverse(donationID uint, target model.DonationStatus, reason string) (*model.Donation, error) {
	if target != model.DonationStatusRefunded && target != model.DonationStatusCancelled {
		return nil, apperr.Validation("无效的撤销目标状态: %s", target)
	}

	donation, err := l.getDonation(donationID)
	if err != nil {
		return nil, err
	}
	if donation.Status != model.DonationStatusActive {
		// 幂等：已撤销的捐赠重复撤销为空操作
		return donation, nil
	}

	var violation error
	err = l.aggregate.WithLock(donation.CampaignID, func(tx *gorm.DB) error {
		res := tx.Model(&model.Donation{}).
			Where("id = ? AND status = ?", donation.ID, model.DonationStatusActive).
			Updates(map[string]interface{}{
				"status":         target,
				"reverse_reason": reason,
			})
		if res.Error != nil {
			return apperr.Upstream(res.Error, "更新捐赠状态失败")
		}
		if res.RowsAffected == 0 {
			// 并发方已先完成撤销
			return nil
		}

		// 仅当先前已计入聚合时才回退，未结算完成的捐赠没有聚合效果
		res = tx.Model(&model.Donation{}).
			Where("id = ? AND effect_state = ?", donation.ID, model.EffectStateApplied).
			Update("effect_state", model.EffectStateReversed)
		if res.Error != nil {
			return apperr.Upstream(res.Error, "更新捐赠生效标记失败")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		// 一致性校验失败时钳制写入与撤销一并提交，错误在提交后上抛
		if err := l.aggregate.ReverseTx(tx, donation.CampaignID, donation.Amount); err != nil {
			if errors.Is(err, apperr.ErrInvariant) {
				violation = err
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if violation != nil {
		return nil, violation
	}

	return l.getDonation(donationID)
}

// GetDonation 获取捐赠记录
func (l *DonationLogic) GetDonation(donationID uint) (*model.Donation, error) {
	return l.getDonation(donationID)
}

// GetCampaignDonations 分页获取项目的捐赠记录
func (l *DonationLogic) GetCampaignDonations(campaignID uint, page, pageSize int) ([]model.Donation, int64, error) {
	var donations []model.Donation
	var total int64

	if err := l.db.Model(&model.Donation{}).Where("campaign_id = ?", campaignID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取捐赠记录总数失败")
	}

	offset := (page - 1) * pageSize
	if err := l.db.Where("campaign_id = ?", campaignID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&donations).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取捐赠记录失败")
	}

	return donations, total, nil
}

// GetDonorDonations 分页获取捐赠人的捐赠记录
func (l *DonationLogic) GetDonorDonations(donorID uint, page, pageSize int) ([]model.Donation, int64, error) {
	var donations []model.Donation
	var total int64

	if err := l.db.Model(&model.Donation{}).Where("donor_id = ?", donorID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取捐赠记录总数失败")
	}

	offset := (page - 1) * pageSize
	if err := l.db.Where("donor_id = ?", donorID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&donations).Error; err != nil {
		return nil, 0, apperr.Upstream(err, "获取捐赠记录失败")
	}

	return donations, total, nil
}

func (l *DonationLogic) getDonation(donationID uint) (*model.Donation, error) {
	var donation model.Donation
	if err := l.db.First(&donation, donationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("捐赠记录不存在")
		}
		return nil, apperr.Upstream(err, "获取捐赠记录失败")
	}
	return &donation, nil
}

// reverseLabel 撤销状态的中文描述
func reverseLabel(status model.DonationStatus) string {
	switch status {
	case model.DonationStatusRefunded:
		return "退款"
	case model.DonationStatusCancelled:
		return "取消"
	default:
		return string(status)
	}
}
