package router

import (
	"github.com/blues/crowdfund/internal/handler"
	"github.com/gin-gonic/gin"
)

// Handlers 路由所需的处理器
type Handlers struct {
	Campaign *handler.CampaignHandler
	Wizard   *handler.WizardHandler
}

func Setup(h Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "crowdfund",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动浏览
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", h.Campaign.ListCampaigns)
			campaigns.GET("/:id", h.Campaign.GetCampaign)
			campaigns.GET("/:id/support", h.Campaign.SupportLink)
		}
		v1.GET("/support", h.Campaign.ResolveSupport)
		v1.GET("/quote", h.Wizard.Quote)
		v1.GET("/wallets/:type", h.Wizard.Wallet)

		// 向导会话
		wizards := v1.Group("/wizards")
		{
			wizards.POST("/campaign", h.Wizard.OpenCampaign)
			wizards.POST("/contribution", h.Wizard.OpenContribution)
			wizards.GET("/:sid", h.Wizard.GetState)
			wizards.DELETE("/:sid", h.Wizard.Abandon)
			wizards.POST("/:sid/next", h.Wizard.Next)
			wizards.POST("/:sid/back", h.Wizard.Back)
			wizards.POST("/:sid/skip", h.Wizard.Skip)
			wizards.PUT("/:sid/cover", h.Wizard.SetCover)
			wizards.DELETE("/:sid/cover", h.Wizard.ClearCover)
			wizards.POST("/:sid/gallery", h.Wizard.AddGallery)
			wizards.DELETE("/:sid/gallery/:index", h.Wizard.RemoveGallery)
			wizards.POST("/:sid/publish", h.Wizard.Publish)
			wizards.POST("/:sid/submit", h.Wizard.Submit)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
