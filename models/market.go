package models

// Ticker 24小时行情快照，每个刷新周期整体替换
type Ticker struct {
	Symbol         string  `json:"symbol"`         // 交易对符号
	Price          float64 `json:"price"`          // 最新价
	ChangePercent  float64 `json:"changePercent"`  // 24h涨跌幅(%)
	ChangeAbsolute float64 `json:"changeAbsolute"` // 24h涨跌额
	High24h        float64 `json:"high24h"`        // 24h最高价
	Low24h         float64 `json:"low24h"`         // 24h最低价
	Fallback       bool    `json:"fallback"`       // 是否为降级兜底数据
	UpdatedAt      int64   `json:"updatedAt"`      // 更新时间戳(毫秒)
}

// CandleRangeSample 单个时间桶的高低区间统计
type CandleRangeSample struct {
	Label        string  `json:"label"`        // 桶标签: 1h/4h/24h/7d
	High         float64 `json:"high"`         // 桶内最高价
	Low          float64 `json:"low"`          // 桶内最低价
	RangePercent float64 `json:"rangePercent"` // (high-low)/low*100，low为0时为0
}

// TimeSeriesPoint 双资产合并后的图表数据点
type TimeSeriesPoint struct {
	DisplayLabel string  `json:"displayLabel"` // 展示用时间标签
	TimestampMs  int64   `json:"timestampMs"`  // 开盘时间戳(毫秒)
	ValueA       float64 `json:"valueA"`       // 主序列收盘价 (BTC)
	ValueB       float64 `json:"valueB"`       // 副序列收盘价 (黄金代理)
}

// FundingRate 单个来源的资金费率
type FundingRate struct {
	SourceName string  `json:"sourceName"` // 数据来源名称
	Rate       float64 `json:"rate"`       // 资金费率
	Synthetic  bool    `json:"synthetic"`  // 是否为合成兜底值
}

// MarketSnapshot 一个刷新周期产出的完整展示状态
// 所有字段每个周期整体替换，不做增量更新
type MarketSnapshot struct {
	Timeframe    string              `json:"timeframe"`    // 当前选中的时间范围
	Btc          Ticker              `json:"btc"`          // BTC行情
	Gold         Ticker              `json:"gold"`         // 黄金代理行情
	Ranges       []CandleRangeSample `json:"ranges"`       // 四个固定时间桶
	Series       []TimeSeriesPoint   `json:"series"`       // 合并后的图表序列
	FundingRates []FundingRate       `json:"fundingRates"` // 资金费率列表
	LoadedAt     int64               `json:"loadedAt"`     // 本周期完成时间戳(毫秒)
}

// Candle 单根K线
type Candle struct {
	TimestampMs int64   `json:"timestampMs"` // 开盘时间戳(毫秒)
	Open        float64 `json:"open"`        // 开盘价
	High        float64 `json:"high"`        // 最高价
	Low         float64 `json:"low"`         // 最低价
	Close       float64 `json:"close"`       // 收盘价
	Volume      float64 `json:"volume"`      // 成交量
	IsClosed    bool    `json:"isClosed"`    // 是否已收盘
}

// RangePercent 计算高低区间百分比，low为0时返回0避免除零
func RangePercent(high, low float64) float64 {
	if low == 0 {
		return 0
	}
	return (high - low) / low * 100
}
