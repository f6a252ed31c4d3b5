// Package dispatch 实现通知派发器：账本事件与留言事件的异步副作用。
// 派发相对触发事务是 fire-and-forget 的，至少一次投递，失败记日志而不是
// 让结算或留言创建回滚。
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// commentPreviewLimit 通知正文中留言的最大字符数，超出部分截断并加省略号。
// 只影响通知内容，留言原文不受影响。
const commentPreviewLimit = 100

// event 待派发的通知事件
type event struct {
	notifType model.NotificationType
	campaign  model.Campaign
	donation  *model.Donation
	comment   *model.Comment
	reason    string
	from, to  model.CampaignStatus
}

// Dispatcher 通知派发器。事件经有界队列进入 ants 协程池处理，
// 指数退避重试，最终失败记录完整上下文。
type Dispatcher struct {
	db         *gorm.DB
	pool       *ants.Pool
	queue      chan *event
	ctx        context.Context
	cancel     context.CancelFunc
	maxRetries int
	backoff    time.Duration
}

// NewDispatcher 创建通知派发器
func NewDispatcher(db *gorm.DB, cfg config.DispatchConfig) (*Dispatcher, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.RetryBackoff) * time.Millisecond
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		db:         db,
		pool:       pool,
		queue:      make(chan *event, queueSize),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: maxRetries,
		backoff:    backoff,
	}, nil
}

// Start 启动派发循环
func (d *Dispatcher) Start() {
	go d.loop()
	logger.Info("Notification dispatcher started with pool size %d", d.pool.Cap())
}

// Stop 停止派发器
func (d *Dispatcher) Stop() {
	d.cancel()
	d.pool.Release()
	logger.Info("Notification dispatcher stopped")
}

// loop 派发循环：从队列取事件提交到协程池
func (d *Dispatcher) loop() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.queue:
			if err := d.pool.Submit(func() { d.process(ev) }); err != nil {
				logger.Error("Failed to submit notification task: %v", err)
			}
		}
	}
}

// OnDonationSettled 捐赠结算完成事件
func (d *Dispatcher) OnDonationSettled(donation *model.Donation, campaign *model.Campaign) {
	don := *donation
	d.enqueue(&event{
		notifType: model.NotificationTypeDonationReceived,
		campaign:  *campaign,
		donation:  &don,
	})
}

// OnCommentCreated 留言创建事件
func (d *Dispatcher) OnCommentCreated(comment *model.Comment, campaign *model.Campaign) {
	cm := *comment
	d.enqueue(&event{
		notifType: model.NotificationTypeCommentReceived,
		campaign:  *campaign,
		comment:   &cm,
	})
}

// OnCampaignStatusChanged 项目状态变更事件
func (d *Dispatcher) OnCampaignStatusChanged(campaign *model.Campaign, from, to model.CampaignStatus, reason string) {
	d.enqueue(&event{
		notifType: model.NotificationTypeCampaignUpdate,
		campaign:  *campaign,
		from:      from,
		to:        to,
		reason:    reason,
	})
}

// enqueue 入队不阻塞调用方：队列满时转入独立协程等待，事件不丢弃
func (d *Dispatcher) enqueue(ev *event) {
	select {
	case d.queue <- ev:
	default:
		logger.Warn("Notification queue full, spilling event %s for campaign %d", ev.notifType, ev.campaign.ID)
		go func() {
			select {
			case d.queue <- ev:
			case <-d.ctx.Done():
				logger.Error("Dropped notification %s for campaign %d on shutdown", ev.notifType, ev.campaign.ID)
			}
		}()
	}
}

// process 合成通知并带重试写库
func (d *Dispatcher) process(ev *event) {
	notification := d.build(ev)

	backoff := d.backoff
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		if err := d.db.Create(notification).Error; err != nil {
			if attempt == d.maxRetries {
				// 通知可以重复，不可以无声丢失；最终失败必须留下完整上下文
				logger.Error("Failed to create notification after %d attempts: type=%s recipient=%d campaign=%d title=%q: %v",
					attempt, notification.Type, notification.RecipientID, ev.campaign.ID, notification.Title, err)
				return
			}
			logger.Warn("Failed to create notification (attempt %d/%d): %v", attempt, d.maxRetries, err)
			select {
			case <-time.After(backoff):
			case <-d.ctx.Done():
				return
			}
			backoff *= 2
			continue
		}
		logger.Debug("Created notification %s for profile %d", notification.Type, notification.RecipientID)
		return
	}
}

// build 合成通知内容，收件人为项目发起人
func (d *Dispatcher) build(ev *event) *model.Notification {
	notification := &model.Notification{
		RecipientID: ev.campaign.OrganizerID,
		Type:        ev.notifType,
		CampaignID:  &ev.campaign.ID,
	}

	switch ev.notifType {
	case model.NotificationTypeDonationReceived:
		notification.DonationID = &ev.donation.ID
		notification.Title = "收到新的捐赠"
		notification.Message = fmt.Sprintf("%s 向您的项目「%s」捐赠了 %s",
			d.donorLabel(ev.donation), ev.campaign.Title, ev.donation.Amount.StringFixed(2))
	case model.NotificationTypeCommentReceived:
		notification.CommentID = &ev.comment.ID
		notification.Title = "收到新的留言"
		notification.Message = fmt.Sprintf("%s 在您的项目「%s」留言：%s",
			d.profileName(ev.comment.AuthorID), ev.campaign.Title, truncate(ev.comment.Body, commentPreviewLimit))
	case model.NotificationTypeCampaignUpdate:
		notification.Title = "项目状态更新"
		notification.Message = fmt.Sprintf("您的项目「%s」状态已从 %s 变更为 %s",
			ev.campaign.Title, ev.from, ev.to)
		if ev.reason != "" {
			notification.Message += fmt.Sprintf("，原因：%s", ev.reason)
		}
	}
	return notification
}

// donorLabel 捐赠人显示名，匿名捐赠使用固定匿名标签
func (d *Dispatcher) donorLabel(donation *model.Donation) string {
	if donation.Anonymous {
		return model.AnonymousProfileName
	}
	return d.profileName(donation.DonorID)
}

// profileName 查询用户显示名
func (d *Dispatcher) profileName(profileID uint) string {
	var profile model.Profile
	if err := d.db.First(&profile, profileID).Error; err != nil {
		logger.Warn("Failed to load profile %d for notification: %v", profileID, err)
		return model.AnonymousProfileName
	}
	return profile.Name
}

// truncate 按字符截断并追加省略号
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
