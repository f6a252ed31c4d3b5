package router

import (
	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/discovery"
	"github.com/boring-ventures/minka-sub002/internal/handler"
	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/gin-gonic/gin"
)

// Deps 路由依赖
type Deps struct {
	CampaignLogic     *logic.CampaignLogic
	VerificationLogic *logic.VerificationLogic
	AggregateLogic    *logic.AggregateLogic
	DonationLogic     *logic.DonationLogic
	CommentLogic      *logic.CommentLogic
	NotificationLogic *logic.NotificationLogic
	DiscoveryIndex    *discovery.Index
}

func Setup(deps Deps, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(handler.IdentityMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "minka-funding-core",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 项目相关路由
		campaignHandler := handler.NewCampaignHandler(deps.CampaignLogic, deps.VerificationLogic, deps.AggregateLogic)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.PUT("/:id", campaignHandler.UpdateCampaign)
			campaigns.GET("/:id/aggregate", campaignHandler.GetSnapshot)
			campaigns.GET("/:id/transitions", campaignHandler.GetTransitions)

			// 生命周期迁移
			campaigns.POST("/:id/submit", campaignHandler.Transition(logic.EventSubmit))
			campaigns.POST("/:id/approve", campaignHandler.Transition(logic.EventApprove))
			campaigns.POST("/:id/reject", campaignHandler.Transition(logic.EventReject))
			campaigns.POST("/:id/pause", campaignHandler.Transition(logic.EventPause))
			campaigns.POST("/:id/resume", campaignHandler.Transition(logic.EventResume))
			campaigns.POST("/:id/complete", campaignHandler.Transition(logic.EventComplete))
			campaigns.POST("/:id/revise", campaignHandler.Transition(logic.EventRevise))

			// 留言
			commentHandler := handler.NewCommentHandler(deps.CommentLogic)
			campaigns.POST("/:id/comments", commentHandler.CreateComment)
			campaigns.GET("/:id/comments", commentHandler.GetCampaignComments)
		}

		// 捐赠相关路由
		donationHandler := handler.NewDonationHandler(deps.DonationLogic, cfg.Profile.AnonymousID)
		donations := v1.Group("/donations")
		{
			donations.POST("", donationHandler.RecordDonation)
			donations.POST("/:id/settle", donationHandler.SettleDonation)
			donations.POST("/:id/reverse", donationHandler.ReverseDonation)
		}
		campaigns.GET("/:id/donations", donationHandler.GetCampaignDonations)

		// 用户相关路由
		notificationHandler := handler.NewNotificationHandler(deps.NotificationLogic)
		profiles := v1.Group("/profiles")
		{
			profiles.GET("/:profile_id/notifications", notificationHandler.GetProfileNotifications)
			profiles.GET("/:profile_id/donations", donationHandler.GetDonorDonations)
		}
		v1.POST("/notifications/:id/read", notificationHandler.MarkNotificationRead)

		// 发现页路由
		discoveryHandler := handler.NewDiscoveryHandler(deps.DiscoveryIndex)
		v1.GET("/discovery/categories", discoveryHandler.CountsByCategory)
		v1.GET("/discovery/locations", discoveryHandler.CountsByLocation)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Profile-ID, X-Profile-Role")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
