package logic

import (
	"errors"
	"strings"
	"sync"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"gorm.io/gorm"
)

// TransitionEvent 项目生命周期事件
type TransitionEvent string

const (
	EventSubmit   TransitionEvent = "submit"   // 提交审核：draft → pending_verification
	EventApprove  TransitionEvent = "approve"  // 审核通过：pending_verification → active
	EventReject   TransitionEvent = "reject"   // 审核驳回：pending_verification → rejected
	EventPause    TransitionEvent = "pause"    // 暂停：active → paused
	EventResume   TransitionEvent = "resume"   // 恢复：paused → active
	EventComplete TransitionEvent = "complete" // 完成：active → completed
	EventRevise   TransitionEvent = "revise"   // 重新编辑：rejected → draft
)

// Actor 操作者身份，由外部身份服务提供
type Actor struct {
	ProfileID uint
	Role      model.Role
}

// transitionRule 单条迁移规则
type transitionRule struct {
	from      model.CampaignStatus
	to        model.CampaignStatus
	roles     []model.Role
	ownerOnly bool // organizer 角色是否要求为项目归属人
}

// transitionRules 项目状态机，不在表内的迁移一律非法，状态不可跳跃
var transitionRules = map[TransitionEvent]transitionRule{
	EventSubmit: {
		from:      model.CampaignStatusDraft,
		to:        model.CampaignStatusPending,
		roles:     []model.Role{model.RoleOrganizer},
		ownerOnly: true,
	},
	EventApprove: {
		from:  model.CampaignStatusPending,
		to:    model.CampaignStatusActive,
		roles: []model.Role{model.RoleAdmin},
	},
	EventReject: {
		from:  model.CampaignStatusPending,
		to:    model.CampaignStatusRejected,
		roles: []model.Role{model.RoleAdmin},
	},
	EventPause: {
		from:      model.CampaignStatusActive,
		to:        model.CampaignStatusPaused,
		roles:     []model.Role{model.RoleOrganizer, model.RoleAdmin},
		ownerOnly: true,
	},
	EventResume: {
		from:      model.CampaignStatusPaused,
		to:        model.CampaignStatusActive,
		roles:     []model.Role{model.RoleOrganizer, model.RoleAdmin},
		ownerOnly: true,
	},
	EventComplete: {
		from:      model.CampaignStatusActive,
		to:        model.CampaignStatusCompleted,
		roles:     []model.Role{model.RoleOrganizer, model.RoleSystem},
		ownerOnly: true,
	},
	EventRevise: {
		from:      model.CampaignStatusRejected,
		to:        model.CampaignStatusDraft,
		roles:     []model.Role{model.RoleOrganizer},
		ownerOnly: true,
	},
}

// VerificationLogic 项目审核与生命周期状态机。
// 同一项目的状态迁移彼此串行，与聚合更新使用各自独立的锁。
type VerificationLogic struct {
	db       *gorm.DB
	notifier Notifier
	mu       sync.Mutex
	locks    map[uint]*sync.Mutex
}

// NewVerificationLogic 创建项目审核业务逻辑，notifier 可以为 nil
func NewVerificationLogic(db *gorm.DB, notifier Notifier) *VerificationLogic {
	return &VerificationLogic{
		db:       db,
		notifier: notifier,
		locks:    make(map[uint]*sync.Mutex),
	}
}

func (v *VerificationLogic) campaignLock(campaignID uint) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()
	l, ok := v.locks[campaignID]
	if !ok {
		l = &sync.Mutex{}
		v.locks[campaignID] = l
	}
	return l
}

// Transition 执行项目状态迁移并记录审计日志
func (v *VerificationLogic) Transition(campaignID uint, event TransitionEvent, actor Actor, reason string) (*model.Campaign, error) {
	rule, ok := transitionRules[event]
	if !ok {
		return nil, apperr.Validation("未知的项目事件: %s", event)
	}

	l := v.campaignLock(campaignID)
	l.Lock()
	defer l.Unlock()

	var campaign model.Campaign
	err := v.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("项目不存在")
			}
			return apperr.Upstream(err, "获取项目失败")
		}

		if err := checkActor(&campaign, rule, actor, event); err != nil {
			return err
		}
		if campaign.Status != rule.from {
			return apperr.InvalidTransition("项目无法从 %s 迁移到 %s", campaign.Status, rule.to)
		}

		switch event {
		case EventSubmit:
			if err := validateSubmission(&campaign); err != nil {
				return err
			}
		case EventReject:
			if strings.TrimSpace(reason) == "" {
				return apperr.Validation("驳回必须填写原因")
			}
		}

		updates := map[string]interface{}{"status": rule.to}
		// verified 只由审核流程设置
		switch event {
		case EventApprove:
			updates["verified"] = true
		case EventReject:
			updates["verified"] = false
		}

		if err := tx.Model(&campaign).Updates(updates).Error; err != nil {
			return apperr.Upstream(err, "更新项目状态失败")
		}

		record := model.CampaignTransition{
			CampaignID: campaign.ID,
			ActorID:    actor.ProfileID,
			ActorRole:  actor.Role,
			FromStatus: rule.from,
			ToStatus:   rule.to,
			Reason:     reason,
		}
		if err := tx.Create(&record).Error; err != nil {
			return apperr.Upstream(err, "记录状态迁移失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 审核结果与完成需要告知发起人，派发在事务提交后异步进行
	if v.notifier != nil {
		switch event {
		case EventApprove, EventReject, EventComplete:
			v.notifier.OnCampaignStatusChanged(&campaign, rule.from, rule.to, reason)
		}
	}
	return &campaign, nil
}

// checkActor 校验操作者角色与项目归属
func checkActor(campaign *model.Campaign, rule transitionRule, actor Actor, event TransitionEvent) error {
	allowed := false
	for _, r := range rule.roles {
		if actor.Role == r {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperr.Forbidden("角色 %s 无权执行 %s 操作", actor.Role, event)
	}
	if rule.ownerOnly && actor.Role == model.RoleOrganizer && campaign.OrganizerID != actor.ProfileID {
		return apperr.Forbidden("只有项目发起人可以执行 %s 操作", event)
	}
	return nil
}

// validateSubmission 提交审核前的最低要求：标题、正目标金额、至少一个媒体素材
func validateSubmission(campaign *model.Campaign) error {
	if strings.TrimSpace(campaign.Title) == "" {
		return apperr.Validation("项目标题不能为空")
	}
	if !campaign.GoalAmount.IsPositive() {
		return apperr.Validation("目标金额必须大于0")
	}
	if campaign.MediaURL == "" {
		return apperr.Validation("项目至少需要一个媒体素材")
	}
	return nil
}

// CanView 可见性规则：active/paused/completed 且已审核通过的项目对所有人可见，
// 其余状态仅发起人与管理员可见
func (v *VerificationLogic) CanView(campaign *model.Campaign, viewer Actor) bool {
	if viewer.Role == model.RoleAdmin || viewer.Role == model.RoleSystem {
		return true
	}
	if campaign.OrganizerID == viewer.ProfileID && viewer.ProfileID != 0 {
		return true
	}
	switch campaign.Status {
	case model.CampaignStatusActive, model.CampaignStatusPaused, model.CampaignStatusCompleted:
		return campaign.Verified
	default:
		return false
	}
}

// CanMutate 项目内容是否可由 viewer 编辑：发起人仅在 draft/rejected 状态下可编辑
func (v *VerificationLogic) CanMutate(campaign *model.Campaign, viewer Actor) bool {
	if viewer.Role == model.RoleAdmin {
		return true
	}
	if campaign.OrganizerID != viewer.ProfileID {
		return false
	}
	return campaign.Status == model.CampaignStatusDraft || campaign.Status == model.CampaignStatusRejected
}

// GetTransitions 获取项目状态迁移审计记录
func (v *VerificationLogic) GetTransitions(campaignID uint) ([]model.CampaignTransition, error) {
	var records []model.CampaignTransition
	if err := v.db.Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, apperr.Upstream(err, "获取状态迁移记录失败")
	}
	return records, nil
}
