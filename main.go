package main

import (
	"os"
	"os/signal"
	"syscall"

	"market_dashboard/core"
	"market_dashboard/models"
	"market_dashboard/pkg/binance"
	"market_dashboard/pkg/config"
	"market_dashboard/pkg/gemini"
	"market_dashboard/pkg/redis"
	"market_dashboard/pkg/telegram"
	"market_dashboard/pkg/websocket"
	"market_dashboard/servers"

	"github.com/sirupsen/logrus"
)

func main() {
	// 设置日志级别
	logrus.SetLevel(logrus.InfoLevel)
	logrus.Info("启动市场看板服务...")

	// 加载配置
	config.LoadConfig()

	// 初始化Redis（失败时降级为无缓存模式，看板照常工作）
	if err := redis.InitRedis(); err != nil {
		logrus.Warnf("Redis init fail: %v，缓存已禁用", err)
	}

	// 初始化Telegram客户端
	if err := telegram.InitTelegram(); err != nil {
		logrus.Errorf("Telegram init fail: %v", err)
	}

	// 初始化Binance行情客户端（仅公开端点，不需要API凭据）
	binanceClient := binance.New(config.GlobalConfig.BinanceBaseURL, config.GlobalConfig.BinanceFuturesURL)
	logrus.Infof("行情客户端已初始化: %s", binanceClient.Name())

	// 初始化Gemini客户端
	geminiClient := gemini.NewClient(config.GlobalConfig.GeminiAPIKey, config.GlobalConfig.GeminiModel)
	if !geminiClient.IsConfigured() {
		logrus.Warn("未配置GEMINI_API_KEY，AI分析将返回固定提示")
	}

	// 初始化WebSocket管理器
	websocket.InitializeGlobalWebSocketManager()
	wsManager := websocket.GetGlobalWebSocketManager()

	// 初始化市场数据管理器和刷新循环
	marketManager := core.NewMarketManager(binanceClient, config.GlobalConfig.BtcSymbol, config.GlobalConfig.GoldSymbol)
	core.InitRefreshLoop(marketManager, config.GlobalConfig.RefreshInterval, config.GlobalConfig.DefaultTimeframe)

	// 每次加载完成：广播快照、写缓存、检查告警
	core.GlobalRefreshLoop.SetOnLoaded(func(snapshot *models.MarketSnapshot) {
		wsManager.BroadcastSnapshot(snapshot)

		if redis.GlobalRedisClient != nil {
			if err := redis.GlobalRedisClient.SetCacheWithExpiration(redis.CacheKeySnapshot, snapshot, redis.CacheExpirationSnapshot); err != nil {
				logrus.Errorf("缓存快照失败: %v", err)
			}
		}

		if telegram.GlobalTelegramClient != nil {
			telegram.GlobalTelegramClient.CheckAndAlert(snapshot)
		}
	})

	// 订阅时立即推送当前快照
	wsManager.GetHub().SetInitialDataSource(func(dataType string) interface{} {
		if dataType == websocket.DataTypeSnapshot {
			if snapshot := core.GlobalRefreshLoop.Snapshot(); snapshot != nil {
				return snapshot
			}
		}
		return nil
	})

	// 启动刷新循环（首次加载 + 30秒定时器）
	core.GlobalRefreshLoop.Start()

	// 创建HTTP服务器
	server := servers.NewHTTPServer(binanceClient, core.GlobalRefreshLoop, geminiClient)
	go func() {
		server.Start()
	}()

	// 发送启动通知
	if telegram.GlobalTelegramClient != nil {
		if err := telegram.GlobalTelegramClient.SendServiceStatus("started", "市场看板服务已启动"); err != nil {
			logrus.Errorf("发送启动通知失败: %v", err)
		}
	}

	logrus.Info("市场看板服务启动完成!")

	// 优雅关闭
	gracefulShutdown()
}

// gracefulShutdown 优雅关闭
func gracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("正在关闭市场看板服务...")

	// 停止刷新循环
	if core.GlobalRefreshLoop != nil {
		core.GlobalRefreshLoop.Stop()
	}

	// 发送服务停止通知
	if telegram.GlobalTelegramClient != nil {
		if err := telegram.GlobalTelegramClient.SendServiceStatus("stopped", "市场看板服务已关闭"); err != nil {
			logrus.Errorf("发送关闭通知失败: %v", err)
		}
	}

	logrus.Info("市场看板服务已关闭")
}
