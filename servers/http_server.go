package servers

import (
	"fmt"

	"market_dashboard/apis"
	"market_dashboard/core"
	"market_dashboard/pkg/config"
	"market_dashboard/pkg/gemini"
	"market_dashboard/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HTTPServer struct {
	engine      *gin.Engine
	port        string
	source      core.MarketSource
	refreshLoop *core.RefreshLoop
}

// NewHTTPServer 创建HTTP服务器
func NewHTTPServer(source core.MarketSource, refreshLoop *core.RefreshLoop, geminiClient *gemini.Client) *HTTPServer {
	// 设置Gin模式
	if config.GlobalConfig.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.Use(middleware.Cors())

	// 设置路由
	apis.SetupRoutes(engine, source, refreshLoop, geminiClient)

	return &HTTPServer{
		engine:      engine,
		port:        config.GlobalConfig.Port,
		source:      source,
		refreshLoop: refreshLoop,
	}
}

// Start 启动HTTP服务器
func (s *HTTPServer) Start() {
	addr := fmt.Sprintf(":%s", s.port)
	logrus.Infof("HTTP服务器启动在端口 %s", s.port)

	if err := s.engine.Run(addr); err != nil {
		logrus.Fatalf("HTTP服务器启动失败: %v", err)
	}
}
