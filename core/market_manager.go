package core

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"market_dashboard/models"

	"github.com/sirupsen/logrus"
)

// MarketSource 市场数据来源接口
type MarketSource interface {
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
	FetchFundingRate(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// 各字段的降级兜底常量，单个子请求失败时使用，整个批次不中断
const (
	FallbackBtcPrice    = 95000.0 // BTC ticker兜底价格
	FallbackGoldPrice   = 2650.0  // 黄金ticker兜底价格
	FallbackFundingRate = 0.0001  // 资金费率兜底值
)

// TimeframePlan 时间范围对应的K线抓取参数
type TimeframePlan struct {
	Interval string // K线周期
	Limit    int    // K线数量
}

// DefaultTimeframe 未知时间范围的兜底
const DefaultTimeframe = "24h"

// timeframeTable 时间范围 -> (K线周期, 数量) 固定映射
var timeframeTable = map[string]TimeframePlan{
	"1h":  {Interval: "1m", Limit: 60},
	"4h":  {Interval: "5m", Limit: 48},
	"24h": {Interval: "15m", Limit: 96},
	"7d":  {Interval: "1h", Limit: 168},
}

// ResolveTimeframe 解析时间范围，未知值回退到默认
func ResolveTimeframe(timeframe string) (string, TimeframePlan) {
	if plan, ok := timeframeTable[timeframe]; ok {
		return timeframe, plan
	}
	return DefaultTimeframe, timeframeTable[DefaultTimeframe]
}

// rangeBucket 固定的高低区间统计桶
type rangeBucket struct {
	label    string // 展示标签
	interval string // 对应的K线周期
}

var rangeBuckets = []rangeBucket{
	{label: "1h", interval: "1h"},
	{label: "4h", interval: "4h"},
	{label: "24h", interval: "1d"},
	{label: "7d", interval: "1w"},
}

// MarketManager 市场数据管理器
// 负责一个刷新周期内的并发抓取、字段级降级和序列合并，对调用方永不返回错误
type MarketManager struct {
	source     MarketSource
	btcSymbol  string
	goldSymbol string
}

// NewMarketManager 创建市场数据管理器
func NewMarketManager(source MarketSource, btcSymbol, goldSymbol string) *MarketManager {
	return &MarketManager{
		source:     source,
		btcSymbol:  btcSymbol,
		goldSymbol: goldSymbol,
	}
}

// LoadSnapshot 执行一个完整的刷新周期
// 所有子请求并发执行，任一失败降级为该字段的兜底值，周期在全部子请求结束后完成
func (mm *MarketManager) LoadSnapshot(ctx context.Context, timeframe string) *models.MarketSnapshot {
	timeframe, plan := ResolveTimeframe(timeframe)

	snapshot := &models.MarketSnapshot{
		Timeframe: timeframe,
		Ranges:    make([]models.CandleRangeSample, len(rangeBuckets)),
	}

	var btcSeries, goldSeries []models.Candle

	var wg sync.WaitGroup

	// BTC ticker
	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.Btc = mm.fetchTickerWithFallback(ctx, mm.btcSymbol, FallbackBtcPrice)
	}()

	// 黄金ticker
	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.Gold = mm.fetchTickerWithFallback(ctx, mm.goldSymbol, FallbackGoldPrice)
	}()

	// 图表主序列 (BTC)
	wg.Add(1)
	go func() {
		defer wg.Done()
		series, err := mm.source.FetchKlines(ctx, mm.btcSymbol, plan.Interval, plan.Limit)
		if err != nil {
			logrus.Warnf("获取 %s K线失败: %v，序列降级为空", mm.btcSymbol, err)
			return
		}
		btcSeries = series
	}()

	// 图表副序列 (黄金代理)
	wg.Add(1)
	go func() {
		defer wg.Done()
		series, err := mm.source.FetchKlines(ctx, mm.goldSymbol, plan.Interval, plan.Limit)
		if err != nil {
			logrus.Warnf("获取 %s K线失败: %v，序列降级为空", mm.goldSymbol, err)
			return
		}
		goldSeries = series
	}()

	// 四个固定时间桶的高低区间
	for i := range rangeBuckets {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			snapshot.Ranges[idx] = mm.fetchRangeSample(ctx, rangeBuckets[idx])
		}(i)
	}

	// 资金费率
	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.FundingRates = mm.fetchFundingRates(ctx)
	}()

	wg.Wait()

	snapshot.Series = MergeSeries(btcSeries, goldSeries, FallbackBtcPrice, FallbackGoldPrice)
	snapshot.LoadedAt = time.Now().UnixMilli()

	logrus.WithFields(logrus.Fields{
		"timeframe":     timeframe,
		"series_points": len(snapshot.Series),
		"btc_fallback":  snapshot.Btc.Fallback,
		"gold_fallback": snapshot.Gold.Fallback,
	}).Info("刷新周期完成")

	return snapshot
}

// fetchTickerWithFallback 获取ticker，失败时返回兜底快照
func (mm *MarketManager) fetchTickerWithFallback(ctx context.Context, symbol string, fallbackPrice float64) models.Ticker {
	ticker, err := mm.source.FetchTicker(ctx, symbol)
	if err != nil {
		logrus.Warnf("获取 %s ticker失败: %v，使用兜底价格 %.0f", symbol, err, fallbackPrice)
		return models.Ticker{
			Symbol:    symbol,
			Price:     fallbackPrice,
			Fallback:  true,
			UpdatedAt: time.Now().UnixMilli(),
		}
	}
	return *ticker
}

// fetchRangeSample 计算单个时间桶的高低区间，失败或无数据时返回零值样本
func (mm *MarketManager) fetchRangeSample(ctx context.Context, bucket rangeBucket) models.CandleRangeSample {
	sample := models.CandleRangeSample{Label: bucket.label}

	// 取最近两根，保证至少有一根已收盘的K线可用
	candles, err := mm.source.FetchKlines(ctx, mm.btcSymbol, bucket.interval, 2)
	if err != nil {
		logrus.Warnf("获取 %s 桶K线失败: %v，区间降级为零", bucket.label, err)
		return sample
	}
	if len(candles) == 0 {
		logrus.Warnf("%s 桶没有K线数据，区间降级为零", bucket.label)
		return sample
	}

	candle := latestClosed(candles)
	sample.High = candle.High
	sample.Low = candle.Low
	sample.RangePercent = models.RangePercent(candle.High, candle.Low)
	return sample
}

// latestClosed 返回最近一根已收盘的K线，全部未收盘时退回最后一根
func latestClosed(candles []models.Candle) models.Candle {
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].IsClosed {
			return candles[i]
		}
	}
	return candles[len(candles)-1]
}

// fetchFundingRates 获取资金费率列表，每个来源一条
// 黄金没有可靠的公开资金费率源，使用显式标注的合成值
func (mm *MarketManager) fetchFundingRates(ctx context.Context) []models.FundingRate {
	rates := make([]models.FundingRate, 0, 2)

	rate, err := mm.source.FetchFundingRate(ctx, mm.btcSymbol)
	if err != nil {
		logrus.Warnf("获取 %s 资金费率失败: %v，使用兜底值", mm.btcSymbol, err)
		rates = append(rates, models.FundingRate{
			SourceName: mm.source.Name(),
			Rate:       FallbackFundingRate,
			Synthetic:  true,
		})
	} else {
		rates = append(rates, models.FundingRate{
			SourceName: mm.source.Name(),
			Rate:       rate,
		})
	}

	rates = append(rates, models.FundingRate{
		SourceName: "gold-otc",
		Rate:       syntheticGoldRate(),
		Synthetic:  true,
	})

	return rates
}

// syntheticGoldRate 生成黄金合成费率，落在 ±0.01% 区间内
func syntheticGoldRate() float64 {
	return (rand.Float64()*2 - 1) * FallbackFundingRate
}

// MergeSeries 按时间戳合并双资产序列
// 以主序列为基准，副序列缺失的时间点用常量兜底，保证输出长度等于主序列长度；
// 主序列为空而副序列非空时，改用副序列的时间戳做基准，主值用常量兜底，
// 保证单边数据源故障时图表仍有内容
func MergeSeries(primary, secondary []models.Candle, fallbackA, fallbackB float64) []models.TimeSeriesPoint {
	if len(primary) == 0 && len(secondary) == 0 {
		return []models.TimeSeriesPoint{}
	}

	if len(primary) == 0 {
		points := make([]models.TimeSeriesPoint, 0, len(secondary))
		for i := range secondary {
			candle := secondary[i]
			points = append(points, models.TimeSeriesPoint{
				DisplayLabel: displayLabel(candle.TimestampMs),
				TimestampMs:  candle.TimestampMs,
				ValueA:       fallbackA,
				ValueB:       candle.Close,
			})
		}
		return points
	}

	// 副序列按时间戳建索引
	secondaryByTs := make(map[int64]float64, len(secondary))
	for i := range secondary {
		secondaryByTs[secondary[i].TimestampMs] = secondary[i].Close
	}

	points := make([]models.TimeSeriesPoint, 0, len(primary))
	for i := range primary {
		candle := primary[i]
		valueB, ok := secondaryByTs[candle.TimestampMs]
		if !ok {
			valueB = fallbackB
		}
		points = append(points, models.TimeSeriesPoint{
			DisplayLabel: displayLabel(candle.TimestampMs),
			TimestampMs:  candle.TimestampMs,
			ValueA:       candle.Close,
			ValueB:       valueB,
		})
	}
	return points
}

// displayLabel 图表横轴的时间标签
func displayLabel(timestampMs int64) string {
	return time.UnixMilli(timestampMs).Format("01-02 15:04")
}
