package logic

import (
	"errors"
	"sync"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AggregateLogic 项目聚合业务逻辑。
// collected_amount、donor_count、percentage_funded 是捐赠账本的派生缓存，
// 同一项目的所有聚合写入通过 per-campaign 互斥锁串行化，读取不加锁。
type AggregateLogic struct {
	db    *gorm.DB
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewAggregateLogic 创建项目聚合业务逻辑
func NewAggregateLogic(db *gorm.DB) *AggregateLogic {
	return &AggregateLogic{
		db:    db,
		locks: make(map[uint]*sync.Mutex),
	}
}

// AggregateSnapshot 项目聚合快照
type AggregateSnapshot struct {
	CampaignID       uint            `json:"campaign_id"`
	CollectedAmount  decimal.Decimal `json:"collected_amount"`
	DonorCount       int             `json:"donor_count"`
	PercentageFunded int             `json:"percentage_funded"`
}

// campaignLock 获取指定项目的互斥锁
func (a *AggregateLogic) campaignLock(campaignID uint) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[campaignID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[campaignID] = l
	}
	return l
}

// WithLock 在指定项目的互斥锁与数据库事务内执行 fn。
// 账本逻辑借助它把生效标记迁移和聚合更新放进同一个事务。
// 持锁期间不允许任何外部网络调用。
func (a *AggregateLogic) WithLock(campaignID uint, fn func(tx *gorm.DB) error) error {
	l := a.campaignLock(campaignID)
	l.Lock()
	defer l.Unlock()
	return a.db.Transaction(fn)
}

// Apply 将一笔捐赠金额计入项目聚合
func (a *AggregateLogic) Apply(campaignID uint, amount decimal.Decimal) error {
	return a.WithLock(campaignID, func(tx *gorm.DB) error {
		return a.ApplyTx(tx, campaignID, amount)
	})
}

// Reverse 从项目聚合中回退一笔捐赠金额。
// 一致性校验失败时钳制写入仍会提交，错误在提交后返回。
func (a *AggregateLogic) Reverse(campaignID uint, amount decimal.Decimal) error {
	var violation error
	err := a.WithLock(campaignID, func(tx *gorm.DB) error {
		err := a.ReverseTx(tx, campaignID, amount)
		if errors.Is(err, apperr.ErrInvariant) {
			violation = err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	return violation
}

// ApplyTx 在既有事务内计入一笔捐赠，调用方必须已持有该项目的锁
func (a *AggregateLogic) ApplyTx(tx *gorm.DB, campaignID uint, amount decimal.Decimal) error {
	campaign, err := lockedCampaign(tx, campaignID)
	if err != nil {
		return err
	}

	collected := campaign.CollectedAmount.Add(amount)
	return tx.Model(campaign).Updates(map[string]interface{}{
		"collected_amount": collected,
		// 策略：每笔满足条件的捐赠计数一次，不按捐赠人去重
		"donor_count":       campaign.DonorCount + 1,
		"percentage_funded": percentageFunded(collected, campaign.GoalAmount),
	}).Error
}

// ReverseTx 在既有事务内回退一笔捐赠，调用方必须已持有该项目的锁。
// 账本的至多一次保证成立时不可能出现负值，一旦出现说明账本与缓存已经分叉，
// 将聚合钳制为零并返回 InvariantViolation。
func (a *AggregateLogic) ReverseTx(tx *gorm.DB, campaignID uint, amount decimal.Decimal) error {
	campaign, err := lockedCampaign(tx, campaignID)
	if err != nil {
		return err
	}

	collected := campaign.CollectedAmount.Sub(amount)
	donorCount := campaign.DonorCount - 1

	var violation error
	if collected.IsNegative() || donorCount < 0 {
		logger.Error("aggregate underflow on campaign %d: collected=%s donors=%d reverse amount=%s",
			campaignID, campaign.CollectedAmount, campaign.DonorCount, amount)
		violation = apperr.Invariant("项目 %d 聚合与捐赠账本不一致", campaignID)
		if collected.IsNegative() {
			collected = decimal.Zero
		}
		if donorCount < 0 {
			donorCount = 0
		}
	}

	if err := tx.Model(campaign).Updates(map[string]interface{}{
		"collected_amount":  collected,
		"donor_count":       donorCount,
		"percentage_funded": percentageFunded(collected, campaign.GoalAmount),
	}).Error; err != nil {
		return err
	}
	return violation
}

// Snapshot 读取项目聚合快照，直接读最近一次提交的行，不与写入共用锁
func (a *AggregateLogic) Snapshot(campaignID uint) (*AggregateSnapshot, error) {
	var campaign model.Campaign
	if err := a.db.Select("id", "collected_amount", "donor_count", "percentage_funded").
		First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("项目不存在")
		}
		return nil, apperr.Upstream(err, "获取项目聚合失败")
	}

	return &AggregateSnapshot{
		CampaignID:       campaign.ID,
		CollectedAmount:  campaign.CollectedAmount,
		DonorCount:       campaign.DonorCount,
		PercentageFunded: campaign.PercentageFunded,
	}, nil
}

// lockedCampaign 在事务内加载项目行
func lockedCampaign(tx *gorm.DB, campaignID uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := tx.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("项目不存在")
		}
		return nil, apperr.Upstream(err, "获取项目失败")
	}
	return &campaign, nil
}

// percentageFunded 计算完成百分比：round(min(100, 100*collected/goal))，目标为零时为 0
func percentageFunded(collected, goal decimal.Decimal) int {
	if !goal.IsPositive() {
		return 0
	}
	p := collected.Mul(decimal.NewFromInt(100)).Div(goal).Round(0).IntPart()
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return int(p)
}
