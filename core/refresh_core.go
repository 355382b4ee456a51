package core

import (
	"context"
	"sync"
	"time"

	"market_dashboard/models"

	"github.com/sirupsen/logrus"
)

// 刷新触发来源
const (
	TriggerStartup   = "startup"   // 服务启动
	TriggerTimer     = "timer"     // 定时器
	TriggerManual    = "manual"    // 用户手动刷新
	TriggerTimeframe = "timeframe" // 切换时间范围
)

// 单个刷新周期的整体超时，各子请求自身超时更短
const loadTimeout = 25 * time.Second

// RefreshLoop 刷新循环，展示状态的唯一写入者
//
// 所有触发来源（启动、定时器、手动刷新、切换时间范围）都汇入同一个触发通道，
// 由单个协程顺序消费，last-write-wins 成为显式策略而不是调度巧合。
// 触发通道容量为1且发送非阻塞：加载进行中到达的新触发合并为一次待执行的刷新。
type RefreshLoop struct {
	manager  *MarketManager
	interval time.Duration

	triggerChan chan string
	stopChan    chan struct{}
	running     bool
	runMutex    sync.Mutex

	// 展示状态，只由loop协程写入
	snapshot  *models.MarketSnapshot
	timeframe string
	stateMux  sync.RWMutex

	// 每次加载完成后的回调（WebSocket广播、缓存、告警）
	onLoaded func(*models.MarketSnapshot)
}

// GlobalRefreshLoop 全局刷新循环实例
var GlobalRefreshLoop *RefreshLoop

// InitRefreshLoop 初始化全局刷新循环
func InitRefreshLoop(manager *MarketManager, interval time.Duration, defaultTimeframe string) {
	GlobalRefreshLoop = NewRefreshLoop(manager, interval, defaultTimeframe)
}

// NewRefreshLoop 创建刷新循环
func NewRefreshLoop(manager *MarketManager, interval time.Duration, defaultTimeframe string) *RefreshLoop {
	timeframe, _ := ResolveTimeframe(defaultTimeframe)
	return &RefreshLoop{
		manager:     manager,
		interval:    interval,
		triggerChan: make(chan string, 1),
		stopChan:    make(chan struct{}),
		timeframe:   timeframe,
	}
}

// SetOnLoaded 设置加载完成回调，必须在Start之前调用
func (rl *RefreshLoop) SetOnLoaded(fn func(*models.MarketSnapshot)) {
	rl.onLoaded = fn
}

// Start 启动刷新循环并触发首次加载
func (rl *RefreshLoop) Start() {
	rl.runMutex.Lock()
	defer rl.runMutex.Unlock()

	if rl.running {
		logrus.Warn("刷新循环已在运行")
		return
	}
	rl.running = true

	go rl.loop()
	rl.Trigger(TriggerStartup)
	logrus.Info("刷新循环已启动")
}

// Stop 停止刷新循环
func (rl *RefreshLoop) Stop() {
	rl.runMutex.Lock()
	defer rl.runMutex.Unlock()

	if !rl.running {
		return
	}
	rl.running = false
	close(rl.stopChan)
	logrus.Info("刷新循环已停止")
}

// Trigger 请求一次刷新，非阻塞
// 已有待执行刷新时新触发被合并，不排队
func (rl *RefreshLoop) Trigger(reason string) {
	select {
	case rl.triggerChan <- reason:
	default:
		logrus.Debugf("已有待执行的刷新，合并触发: %s", reason)
	}
}

// SetTimeframe 切换时间范围并触发刷新，返回解析后的实际值
func (rl *RefreshLoop) SetTimeframe(timeframe string) string {
	resolved, _ := ResolveTimeframe(timeframe)

	rl.stateMux.Lock()
	rl.timeframe = resolved
	rl.stateMux.Unlock()

	rl.Trigger(TriggerTimeframe)
	return resolved
}

// Timeframe 当前选中的时间范围
func (rl *RefreshLoop) Timeframe() string {
	rl.stateMux.RLock()
	defer rl.stateMux.RUnlock()
	return rl.timeframe
}

// Snapshot 当前展示状态，首次加载完成前为nil
func (rl *RefreshLoop) Snapshot() *models.MarketSnapshot {
	rl.stateMux.RLock()
	defer rl.stateMux.RUnlock()
	return rl.snapshot
}

// loop 刷新循环主体，展示状态的唯一写入点
func (rl *RefreshLoop) loop() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case reason := <-rl.triggerChan:
			rl.load(reason)
			// 每次加载后重置定时器，手动刷新也会推迟下一次自动刷新
			ticker.Reset(rl.interval)
		case <-ticker.C:
			rl.load(TriggerTimer)
			ticker.Reset(rl.interval)
		}
	}
}

// load 执行一次加载并整体替换展示状态
func (rl *RefreshLoop) load(reason string) {
	timeframe := rl.Timeframe()
	logrus.Debugf("开始刷新: reason=%s timeframe=%s", reason, timeframe)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	snapshot := rl.manager.LoadSnapshot(ctx, timeframe)

	rl.stateMux.Lock()
	rl.snapshot = snapshot
	rl.stateMux.Unlock()

	if rl.onLoaded != nil {
		rl.onLoaded(snapshot)
	}
}
