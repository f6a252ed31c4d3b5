package scheduler

import (
	"context"
	"time"

	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/discovery"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// DiscoveryRefreshJob 发现页快照刷新任务：把数据库聚合结果写入 Redis 快照，
// 数据库短暂不可用时发现页可以继续用快照服务
type DiscoveryRefreshJob struct {
	config        *config.Config
	dbProvider    *discovery.DBProvider
	redisProvider *discovery.RedisProvider
}

// NewDiscoveryRefreshJob 创建发现页快照刷新任务
func NewDiscoveryRefreshJob(cfg *config.Config, dbProvider *discovery.DBProvider, redisProvider *discovery.RedisProvider) *DiscoveryRefreshJob {
	return &DiscoveryRefreshJob{
		config:        cfg,
		dbProvider:    dbProvider,
		redisProvider: redisProvider,
	}
}

// GetName 获取任务名称
func (j *DiscoveryRefreshJob) GetName() string {
	return "discovery_refresher"
}

// GetSchedule 获取调度配置
func (j *DiscoveryRefreshJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *DiscoveryRefreshJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, dim := range []discovery.Dimension{discovery.DimensionCategory, discovery.DimensionLocation} {
		counts, err := j.dbProvider.Counts(ctx, dim)
		if err != nil {
			logger.Warn("Failed to aggregate %s counts for snapshot: %v", dim, err)
			continue
		}
		if err := j.redisProvider.Store(ctx, dim, counts); err != nil {
			logger.Warn("Failed to store %s counts snapshot: %v", dim, err)
			continue
		}
		logger.Debug("Refreshed discovery snapshot for %s (%d labels)", dim, len(counts))
	}
}
