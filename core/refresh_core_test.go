package core

import (
	"testing"
	"time"

	"market_dashboard/models"
)

// 等待一次加载完成的辅助函数
func waitForLoad(t *testing.T, ch <-chan *models.MarketSnapshot) *models.MarketSnapshot {
	t.Helper()
	select {
	case snapshot := <-ch:
		return snapshot
	case <-time.After(3 * time.Second):
		t.Fatal("等待加载完成超时")
		return nil
	}
}

func newTestLoop(interval time.Duration) (*RefreshLoop, chan *models.MarketSnapshot) {
	source := &mockSource{failAll: true}
	mm := NewMarketManager(source, "BTCUSDT", "PAXGUSDT")
	rl := NewRefreshLoop(mm, interval, "24h")

	loaded := make(chan *models.MarketSnapshot, 8)
	rl.SetOnLoaded(func(s *models.MarketSnapshot) {
		loaded <- s
	})
	return rl, loaded
}

func TestRefreshLoopInitialLoad(t *testing.T) {
	rl, loaded := newTestLoop(time.Hour)
	rl.Start()
	defer rl.Stop()

	snapshot := waitForLoad(t, loaded)
	if snapshot == nil {
		t.Fatal("启动后应完成首次加载")
	}
	if snapshot.Timeframe != "24h" {
		t.Errorf("首次加载时间范围错误: %s", snapshot.Timeframe)
	}

	// 加载完成后快照可读
	if rl.Snapshot() == nil {
		t.Error("加载完成后Snapshot()不应为nil")
	}
}

func TestRefreshLoopManualTrigger(t *testing.T) {
	rl, loaded := newTestLoop(time.Hour)
	rl.Start()
	defer rl.Stop()

	first := waitForLoad(t, loaded)

	rl.Trigger(TriggerManual)
	second := waitForLoad(t, loaded)

	if second.LoadedAt < first.LoadedAt {
		t.Errorf("手动刷新应产生新快照: first=%d second=%d", first.LoadedAt, second.LoadedAt)
	}
}

func TestRefreshLoopSetTimeframe(t *testing.T) {
	rl, loaded := newTestLoop(time.Hour)
	rl.Start()
	defer rl.Stop()

	waitForLoad(t, loaded)

	resolved := rl.SetTimeframe("7d")
	if resolved != "7d" {
		t.Errorf("时间范围解析错误: %s", resolved)
	}

	snapshot := waitForLoad(t, loaded)
	if snapshot.Timeframe != "7d" {
		t.Errorf("切换后快照时间范围错误: %s", snapshot.Timeframe)
	}

	// 未知时间范围回退到默认
	resolved = rl.SetTimeframe("invalid")
	if resolved != DefaultTimeframe {
		t.Errorf("未知时间范围应回退到默认: %s", resolved)
	}
	snapshot = waitForLoad(t, loaded)
	if snapshot.Timeframe != DefaultTimeframe {
		t.Errorf("回退后快照时间范围错误: %s", snapshot.Timeframe)
	}
}

func TestRefreshLoopCoalescedTriggers(t *testing.T) {
	rl, _ := newTestLoop(time.Hour)
	// 未启动时触发不应阻塞: 通道容量为1，后续触发被合并丢弃
	for i := 0; i < 10; i++ {
		rl.Trigger(TriggerManual)
	}
}

func TestRefreshLoopTimerTick(t *testing.T) {
	rl, loaded := newTestLoop(50 * time.Millisecond)
	rl.Start()
	defer rl.Stop()

	// 首次加载
	waitForLoad(t, loaded)
	// 定时器触发的后续加载
	waitForLoad(t, loaded)
}

func TestRefreshLoopStopIdempotent(t *testing.T) {
	rl, loaded := newTestLoop(time.Hour)
	rl.Start()
	waitForLoad(t, loaded)

	rl.Stop()
	rl.Stop() // 重复Stop不应panic
}
