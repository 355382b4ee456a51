package telegram

import (
	"fmt"
	"strconv"
	"time"

	"market_dashboard/models"
	"market_dashboard/pkg/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	// 每个资产的最近一次告警时间，避免刷屏
	lastAlertAt map[string]time.Time
}

// GlobalTelegramClient 全局Telegram客户端，未配置时为nil
var GlobalTelegramClient *TelegramClient

// 同一资产两次告警之间的最小间隔
const alertCooldown = 30 * time.Minute

// InitTelegram 初始化Telegram客户端
func InitTelegram() error {
	if config.GlobalConfig.TelegramBotToken == "" {
		logrus.Warn("未配置Telegram Bot Token，跳过Telegram初始化")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(config.GlobalConfig.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("创建Telegram Bot失败: %v", err)
	}

	bot.Debug = false

	chatID, err := strconv.ParseInt(config.GlobalConfig.TelegramChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat ID格式错误: %v", err)
	}

	GlobalTelegramClient = &TelegramClient{
		bot:         bot,
		chatID:      chatID,
		lastAlertAt: make(map[string]time.Time),
	}

	logrus.Infof("Telegram客户端已初始化: @%s", bot.Self.UserName)
	return nil
}

// SendMessage 发送消息
func (t *TelegramClient) SendMessage(text string) error {
	if t == nil || t.bot == nil {
		return fmt.Errorf("Telegram客户端未初始化")
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("发送Telegram消息失败: %v", err)
	}
	return nil
}

// SendServiceStatus 发送服务状态通知
func (t *TelegramClient) SendServiceStatus(status, detail string) error {
	var icon string
	switch status {
	case "started":
		icon = "✅"
	case "stopped":
		icon = "🛑"
	case "error":
		icon = "❌"
	default:
		icon = "ℹ️"
	}

	text := fmt.Sprintf("%s 市场看板服务\n%s", icon, detail)
	return t.SendMessage(text)
}

// CheckAndAlert 检查24h涨跌幅并在超过阈值时推送告警
// 告警失败只记录日志，不影响刷新周期
func (t *TelegramClient) CheckAndAlert(snapshot *models.MarketSnapshot) {
	if t == nil || t.bot == nil {
		return
	}

	threshold := config.GlobalConfig.AlertChangeThreshold
	if threshold <= 0 {
		return
	}

	t.checkTickerAlert("BTC", snapshot.Btc, threshold)
	t.checkTickerAlert("黄金", snapshot.Gold, threshold)
}

func (t *TelegramClient) checkTickerAlert(name string, ticker models.Ticker, threshold float64) {
	// 兜底数据不告警
	if ticker.Fallback {
		return
	}

	change := ticker.ChangePercent
	if change < 0 {
		change = -change
	}
	if change < threshold {
		return
	}

	if last, ok := t.lastAlertAt[name]; ok && time.Since(last) < alertCooldown {
		return
	}

	direction := "上涨"
	icon := "📈"
	if ticker.ChangePercent < 0 {
		direction = "下跌"
		icon = "📉"
	}

	text := fmt.Sprintf("%s %s 24小时%s %.2f%%\n当前价格: %.2f USDT",
		icon, name, direction, ticker.ChangePercent, ticker.Price)

	if err := t.SendMessage(text); err != nil {
		logrus.Errorf("发送涨跌幅告警失败: %v", err)
		return
	}

	t.lastAlertAt[name] = time.Now()
	logrus.Infof("已发送 %s 涨跌幅告警: %.2f%%", name, ticker.ChangePercent)
}
