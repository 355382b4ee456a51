package core

import (
	"context"
	"fmt"
	"testing"

	"market_dashboard/models"
)

// mockSource 可控的市场数据来源，用于离线测试
type mockSource struct {
	ticker      map[string]*models.Ticker
	klines      map[string][]models.Candle // key: symbol:interval
	fundingRate float64
	failAll     bool
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchTicker(_ context.Context, symbol string) (*models.Ticker, error) {
	if m.failAll {
		return nil, fmt.Errorf("mock: network down")
	}
	if t, ok := m.ticker[symbol]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("mock: no ticker for %s", symbol)
}

func (m *mockSource) FetchKlines(_ context.Context, symbol, interval string, _ int) ([]models.Candle, error) {
	if m.failAll {
		return nil, fmt.Errorf("mock: network down")
	}
	if k, ok := m.klines[symbol+":"+interval]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("mock: no klines for %s %s", symbol, interval)
}

func (m *mockSource) FetchFundingRate(_ context.Context, _ string) (float64, error) {
	if m.failAll {
		return 0, fmt.Errorf("mock: network down")
	}
	return m.fundingRate, nil
}

func TestResolveTimeframe(t *testing.T) {
	tf, plan := ResolveTimeframe("1h")
	if tf != "1h" || plan.Interval != "1m" || plan.Limit != 60 {
		t.Errorf("1h解析错误: %s %+v", tf, plan)
	}

	tf, plan = ResolveTimeframe("7d")
	if tf != "7d" || plan.Interval != "1h" || plan.Limit != 168 {
		t.Errorf("7d解析错误: %s %+v", tf, plan)
	}

	// 未知时间范围回退到默认
	tf, plan = ResolveTimeframe("30d")
	if tf != DefaultTimeframe || plan.Interval != "15m" || plan.Limit != 96 {
		t.Errorf("未知时间范围应回退到默认: %s %+v", tf, plan)
	}

	tf, _ = ResolveTimeframe("")
	if tf != DefaultTimeframe {
		t.Errorf("空时间范围应回退到默认: %s", tf)
	}
}

func TestMergeSeries(t *testing.T) {
	t0 := int64(1700000000000)
	t1 := int64(1700000060000)

	primary := []models.Candle{
		{TimestampMs: t0, Close: 100},
		{TimestampMs: t1, Close: 110},
	}
	secondary := []models.Candle{
		{TimestampMs: t0, Close: 50},
	}

	points := MergeSeries(primary, secondary, FallbackBtcPrice, FallbackGoldPrice)

	if len(points) != 2 {
		t.Fatalf("输出长度应等于主序列长度: 期望 2, 实际 %d", len(points))
	}
	if points[0].ValueA != 100 || points[0].ValueB != 50 {
		t.Errorf("t0 合并错误: %+v", points[0])
	}
	if points[1].ValueA != 110 || points[1].ValueB != FallbackGoldPrice {
		t.Errorf("t1 缺失副序列应使用兜底值 %v: %+v", FallbackGoldPrice, points[1])
	}
	if points[0].TimestampMs != t0 || points[1].TimestampMs != t1 {
		t.Errorf("时间戳应来自主序列: %+v", points)
	}
}

func TestMergeSeriesPrimaryEmpty(t *testing.T) {
	secondary := []models.Candle{
		{TimestampMs: 1700000000000, Close: 2600},
		{TimestampMs: 1700000060000, Close: 2610},
		{TimestampMs: 1700000120000, Close: 2620},
	}

	points := MergeSeries(nil, secondary, FallbackBtcPrice, FallbackGoldPrice)

	if len(points) != len(secondary) {
		t.Fatalf("主序列为空时输出长度应等于副序列长度: 期望 %d, 实际 %d", len(secondary), len(points))
	}
	for i := range points {
		if points[i].ValueA != FallbackBtcPrice {
			t.Errorf("主值应为兜底值 %v: %+v", FallbackBtcPrice, points[i])
		}
		if points[i].ValueB != secondary[i].Close {
			t.Errorf("副值应来自副序列: %+v", points[i])
		}
	}
}

func TestMergeSeriesBothEmpty(t *testing.T) {
	points := MergeSeries(nil, nil, FallbackBtcPrice, FallbackGoldPrice)
	if len(points) != 0 {
		t.Errorf("双序列为空时应返回空序列: %+v", points)
	}
}

func TestMergeSeriesLengthFollowsPrimary(t *testing.T) {
	primary := make([]models.Candle, 10)
	for i := range primary {
		primary[i] = models.Candle{TimestampMs: int64(i * 60000), Close: float64(100 + i)}
	}
	// 副序列更长且时间戳完全不重叠
	secondary := make([]models.Candle, 20)
	for i := range secondary {
		secondary[i] = models.Candle{TimestampMs: int64(1000000 + i*60000), Close: 50}
	}

	points := MergeSeries(primary, secondary, FallbackBtcPrice, FallbackGoldPrice)
	if len(points) != len(primary) {
		t.Fatalf("输出长度应等于主序列长度: 期望 %d, 实际 %d", len(primary), len(points))
	}
	for i := range points {
		if points[i].ValueB != FallbackGoldPrice {
			t.Errorf("不重叠的时间点副值应为兜底值: %+v", points[i])
		}
	}
}

func TestLoadSnapshotAllFail(t *testing.T) {
	source := &mockSource{failAll: true}
	mm := NewMarketManager(source, "BTCUSDT", "PAXGUSDT")

	snapshot := mm.LoadSnapshot(context.Background(), "24h")
	if snapshot == nil {
		t.Fatal("全部子请求失败时快照也不应为nil")
	}

	// ticker降级为文档约定的兜底元组
	if snapshot.Btc.Price != FallbackBtcPrice || snapshot.Btc.ChangePercent != 0 {
		t.Errorf("BTC兜底元组错误: price=%v change=%v", snapshot.Btc.Price, snapshot.Btc.ChangePercent)
	}
	if !snapshot.Btc.Fallback {
		t.Error("BTC ticker应标记为兜底数据")
	}
	if snapshot.Gold.Price != FallbackGoldPrice || snapshot.Gold.ChangePercent != 0 {
		t.Errorf("黄金兜底元组错误: price=%v change=%v", snapshot.Gold.Price, snapshot.Gold.ChangePercent)
	}

	// 时间桶降级为零值
	if len(snapshot.Ranges) != 4 {
		t.Fatalf("应有4个时间桶: %d", len(snapshot.Ranges))
	}
	for i := range snapshot.Ranges {
		r := snapshot.Ranges[i]
		if r.High != 0 || r.Low != 0 || r.RangePercent != 0 {
			t.Errorf("失败的时间桶应为零值: %+v", r)
		}
		if r.Label == "" {
			t.Errorf("时间桶标签不应为空: %+v", r)
		}
	}

	// 序列降级为空
	if len(snapshot.Series) != 0 {
		t.Errorf("双序列失败时图表序列应为空: %d", len(snapshot.Series))
	}

	// 资金费率降级为兜底值并标记合成
	if len(snapshot.FundingRates) != 2 {
		t.Fatalf("应有2个资金费率来源: %d", len(snapshot.FundingRates))
	}
	if snapshot.FundingRates[0].Rate != FallbackFundingRate || !snapshot.FundingRates[0].Synthetic {
		t.Errorf("失败的资金费率应为兜底值并标记合成: %+v", snapshot.FundingRates[0])
	}
}

func TestLoadSnapshotSuccess(t *testing.T) {
	t0 := int64(1700000000000)
	t1 := int64(1700000900000)

	source := &mockSource{
		ticker: map[string]*models.Ticker{
			"BTCUSDT":  {Symbol: "BTCUSDT", Price: 97000, ChangePercent: 2.5},
			"PAXGUSDT": {Symbol: "PAXGUSDT", Price: 2700, ChangePercent: -0.3},
		},
		klines: map[string][]models.Candle{
			"BTCUSDT:15m": {
				{TimestampMs: t0, Close: 96500, IsClosed: true},
				{TimestampMs: t1, Close: 97000, IsClosed: false},
			},
			"PAXGUSDT:15m": {
				{TimestampMs: t0, Close: 2695, IsClosed: true},
			},
			"BTCUSDT:1h": {{TimestampMs: t0, High: 97500, Low: 96500, IsClosed: true}},
			"BTCUSDT:4h": {{TimestampMs: t0, High: 98000, Low: 96000, IsClosed: true}},
			"BTCUSDT:1d": {{TimestampMs: t0, High: 99000, Low: 95000, IsClosed: true}},
			"BTCUSDT:1w": {{TimestampMs: t0, High: 100000, Low: 90000, IsClosed: true}},
		},
		fundingRate: 0.00025,
	}

	mm := NewMarketManager(source, "BTCUSDT", "PAXGUSDT")
	snapshot := mm.LoadSnapshot(context.Background(), "24h")

	if snapshot.Btc.Price != 97000 || snapshot.Btc.Fallback {
		t.Errorf("BTC ticker错误: %+v", snapshot.Btc)
	}
	if snapshot.Gold.Price != 2700 {
		t.Errorf("黄金ticker错误: %+v", snapshot.Gold)
	}

	// 合并序列: 长度跟随主序列，t1的副值兜底
	if len(snapshot.Series) != 2 {
		t.Fatalf("序列长度错误: %d", len(snapshot.Series))
	}
	if snapshot.Series[0].ValueB != 2695 {
		t.Errorf("t0副值错误: %+v", snapshot.Series[0])
	}
	if snapshot.Series[1].ValueB != FallbackGoldPrice {
		t.Errorf("t1副值应为兜底: %+v", snapshot.Series[1])
	}

	// 时间桶区间
	if snapshot.Ranges[0].RangePercent == 0 {
		t.Errorf("1h桶区间不应为零: %+v", snapshot.Ranges[0])
	}
	// (99000-95000)/95000*100
	want := (99000.0 - 95000.0) / 95000.0 * 100
	if snapshot.Ranges[2].RangePercent != want {
		t.Errorf("24h桶区间错误: 期望 %v, 实际 %v", want, snapshot.Ranges[2].RangePercent)
	}

	// 真实资金费率不标记合成
	if snapshot.FundingRates[0].Rate != 0.00025 || snapshot.FundingRates[0].Synthetic {
		t.Errorf("资金费率错误: %+v", snapshot.FundingRates[0])
	}
	// 黄金来源始终是合成值
	if !snapshot.FundingRates[1].Synthetic {
		t.Errorf("黄金资金费率应标记合成: %+v", snapshot.FundingRates[1])
	}
}

func TestLatestClosed(t *testing.T) {
	candles := []models.Candle{
		{TimestampMs: 1, High: 10, IsClosed: true},
		{TimestampMs: 2, High: 20, IsClosed: false},
	}
	if got := latestClosed(candles); got.TimestampMs != 1 {
		t.Errorf("应选择最近一根已收盘K线: %+v", got)
	}

	// 全部未收盘时退回最后一根
	open := []models.Candle{
		{TimestampMs: 1, IsClosed: false},
		{TimestampMs: 2, IsClosed: false},
	}
	if got := latestClosed(open); got.TimestampMs != 2 {
		t.Errorf("全部未收盘应退回最后一根: %+v", got)
	}
}

func TestSyntheticGoldRate(t *testing.T) {
	for i := 0; i < 100; i++ {
		rate := syntheticGoldRate()
		if rate < -FallbackFundingRate || rate > FallbackFundingRate {
			t.Fatalf("合成费率超出范围: %v", rate)
		}
	}
}
