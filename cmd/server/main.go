package main

import (
	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/database"
	"github.com/boring-ventures/minka-sub002/internal/discovery"
	"github.com/boring-ventures/minka-sub002/internal/dispatch"
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/boring-ventures/minka-sub002/internal/router"
	"github.com/boring-ventures/minka-sub002/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(logger.ParseLogLevel(cfg.Log.Level), cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化通知派发器
	dispatcher, err := dispatch.NewDispatcher(db, cfg.Dispatch)
	if err != nil {
		logger.Fatal("Failed to initialize dispatcher: %v", err)
	}
	dispatcher.Start()
	defer dispatcher.Stop()

	// 初始化业务逻辑
	aggregateLogic := logic.NewAggregateLogic(db)
	verificationLogic := logic.NewVerificationLogic(db, dispatcher)
	campaignLogic := logic.NewCampaignLogic(db, verificationLogic)
	donationLogic := logic.NewDonationLogic(db, aggregateLogic, nil, dispatcher)
	commentLogic := logic.NewCommentLogic(db, verificationLogic, dispatcher)
	notificationLogic := logic.NewNotificationLogic(db)

	// 初始化发现页索引：数据库 → Redis 快照 → 静态兜底
	dbProvider := discovery.NewDBProvider(db)
	var redisProvider *discovery.RedisProvider
	providers := []discovery.CountsProvider{dbProvider}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisProvider = discovery.NewRedisProvider(client, cfg.Discovery)
		providers = append(providers, redisProvider)
	}
	providers = append(providers, discovery.NewStaticProvider(cfg.Discovery.Fallback))
	discoveryIndex := discovery.NewIndex(providers...)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Deps{
		CampaignLogic:     campaignLogic,
		VerificationLogic: verificationLogic,
		AggregateLogic:    aggregateLogic,
		DonationLogic:     donationLogic,
		CommentLogic:      commentLogic,
		NotificationLogic: notificationLogic,
		DiscoveryIndex:    discoveryIndex,
	}, cfg)

	// 启动定时任务
	manager := scheduler.Start(cfg, campaignLogic, verificationLogic, dbProvider, redisProvider)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
