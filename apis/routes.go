package apis

import (
	"market_dashboard/controllers"
	"market_dashboard/core"
	"market_dashboard/pkg/gemini"
	"market_dashboard/pkg/middleware"
	"market_dashboard/pkg/websocket"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, source core.MarketSource, refreshLoop *core.RefreshLoop, geminiClient *gemini.Client) {
	// 创建控制器实例
	authController := &controllers.AuthController{}
	marketController := controllers.NewMarketController(refreshLoop)
	klineController := controllers.NewKlineController(source)
	commentaryController := controllers.NewCommentaryController(geminiClient, refreshLoop)

	// 初始化WebSocket管理器
	wsManager := websocket.GetGlobalWebSocketManager()

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Market Dashboard API is running",
		})
	})

	// 添加认证中间件
	r.Use(middleware.AuthMiddleware())

	// WebSocket路由
	r.GET("/ws", wsManager.HandleWebSocket)

	// 认证路由
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authController.Login) // 用户登录
	}

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 用户信息路由
		user := v1.Group("/user")
		{
			user.GET("/profile", authController.GetProfile) // 获取用户信息
		}

		// 市场快照路由
		market := v1.Group("/market")
		{
			market.GET("/snapshot", marketController.GetSnapshot)   // 获取当前快照（公开）
			market.POST("/refresh", marketController.Refresh)       // 手动触发刷新
			market.PUT("/timeframe", marketController.SetTimeframe) // 切换时间范围
		}

		// K线路由
		v1.GET("/klines", klineController.GetKlines) // 获取K线数据（公开）

		// AI分析路由
		v1.POST("/commentary", commentaryController.Generate) // 生成交易观察

		// WebSocket统计
		v1.GET("/ws/stats", wsManager.GetStats)
	}

	// 未匹配路由
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "API endpoint not found"})
	})
}
