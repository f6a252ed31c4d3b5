package scheduler

import (
	"time"

	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/go-co-op/gocron/v2"
)

// CampaignFinishJob 项目完成任务：将已到截止时间或已达目标金额的进行中项目
// 以系统身份迁移为已完成，之后账本拒绝新的捐赠登记
type CampaignFinishJob struct {
	config            *config.Config
	campaignLogic     *logic.CampaignLogic
	verificationLogic *logic.VerificationLogic
}

// NewCampaignFinishJob 创建项目完成任务
func NewCampaignFinishJob(cfg *config.Config, campaignLogic *logic.CampaignLogic, verificationLogic *logic.VerificationLogic) *CampaignFinishJob {
	return &CampaignFinishJob{
		config:            cfg,
		campaignLogic:     campaignLogic,
		verificationLogic: verificationLogic,
	}
}

// GetName 获取任务名称
func (j *CampaignFinishJob) GetName() string {
	return "campaign_finisher"
}

// GetSchedule 获取调度配置
func (j *CampaignFinishJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignFinishJob) Execute() {
	logger.Debug("Starting campaign finish task")

	campaigns, err := j.campaignLogic.DueCampaigns(time.Now())
	if err != nil {
		logger.Error("Failed to fetch due campaigns: %v", err)
		return
	}

	actor := logic.Actor{
		ProfileID: j.config.Profile.SystemID,
		Role:      model.RoleSystem,
	}

	finished := 0
	for _, campaign := range campaigns {
		if _, err := j.verificationLogic.Transition(campaign.ID, logic.EventComplete, actor, "目标达成或已到截止时间"); err != nil {
			// 并发的人工操作可能已经改变了项目状态，留给下一轮
			logger.Warn("Failed to complete campaign %d: %v", campaign.ID, err)
			continue
		}
		logger.Info("Completed campaign %d (collected %s of %s)",
			campaign.ID, campaign.CollectedAmount, campaign.GoalAmount)
		finished++
	}

	if finished > 0 {
		logger.Info("Campaign finish task completed, finished %d campaigns", finished)
	}
}
