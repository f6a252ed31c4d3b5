package scheduler

import (
	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/discovery"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

// NewManager 创建任务管理器
func NewManager(jobs ...Job) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		jobs:      jobs,
	}
}

// Start 注册并启动所有定时任务
func Start(
	cfg *config.Config,
	campaignLogic *logic.CampaignLogic,
	verificationLogic *logic.VerificationLogic,
	dbProvider *discovery.DBProvider,
	redisProvider *discovery.RedisProvider,
) *Manager {
	jobs := []Job{
		NewCampaignFinishJob(cfg, campaignLogic, verificationLogic),
	}
	// Redis 未启用时没有快照可刷新
	if redisProvider != nil {
		jobs = append(jobs, NewDiscoveryRefreshJob(cfg, dbProvider, redisProvider))
	}

	manager := NewManager(jobs...)
	manager.RegisterJobs()
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	for _, job := range m.jobs {
		_, err := m.scheduler.NewJob(
			job.GetSchedule(),
			gocron.NewTask(job.Execute),
			gocron.WithName(job.GetName()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			logger.Error("Failed to register job %s: %v", job.GetName(), err)
		}
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
