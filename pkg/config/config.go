package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 服务配置
	LogLevel string
	Port     string

	// 市场数据配置
	BtcSymbol        string        // BTC交易对
	GoldSymbol       string        // 黄金代理交易对
	DefaultTimeframe string        // 默认时间范围
	RefreshInterval  time.Duration // 自动刷新间隔

	// Binance端点配置（可覆盖，便于测试和代理）
	BinanceBaseURL    string
	BinanceFuturesURL string

	// AI分析配置
	GeminiAPIKey string // Gemini API密钥，缺失时AI分析降级为固定提示
	GeminiModel  string // Gemini模型标识

	// 认证配置
	AdminUsername string // 管理员用户名
	AdminPassword string // 管理员密码
	JWTSecret     string // JWT密钥

	// Telegram通知配置
	TelegramBotToken string
	TelegramChatID   string

	// 涨跌幅告警阈值(%)，任一资产24h涨跌幅绝对值超过阈值时推送告警
	AlertChangeThreshold float64
}

var GlobalConfig *Config

func LoadConfig() {
	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		logrus.Warn("未找到.env文件，使用环境变量")
	}

	GlobalConfig = &Config{
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnv("PORT", "8080"),

		BtcSymbol:        getEnv("BTC_SYMBOL", "BTCUSDT"),
		GoldSymbol:       getEnv("GOLD_SYMBOL", "PAXGUSDT"),
		DefaultTimeframe: getEnv("DEFAULT_TIMEFRAME", "24h"),
		RefreshInterval:  getEnvDuration("REFRESH_INTERVAL", "30s"),

		BinanceBaseURL:    getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		BinanceFuturesURL: getEnv("BINANCE_FUTURES_URL", "https://fapi.binance.com"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", "a1c9e4b7f2d8c3a6b5e0f1d2c3b4a5e6f7d8c9b0a1e2f3d4c5b6a7e8f9d0c1b2"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		AlertChangeThreshold: getEnvFloat("ALERT_CHANGE_THRESHOLD", 5.0),
	}

	// 设置日志级别
	level, err := logrus.ParseLevel(GlobalConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.Info("配置加载完成")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.Warnf("无法解析环境变量 %s 的时间间隔值: %s，使用默认值: %s", key, value, defaultValue)
	}

	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}

	logrus.Errorf("无法解析默认时间间隔值: %s，使用30秒", defaultValue)
	return 30 * time.Second
}
