package gemini

import (
	"fmt"
	"strings"

	"market_dashboard/models"
)

// 展示模式，决定提示词模板
const (
	ModeBtc  = "btc"  // 仅BTC
	ModeGold = "gold" // 仅黄金
	ModeBoth = "both" // 双资产对比
)

// ValidMode 校验展示模式
func ValidMode(mode string) bool {
	return mode == ModeBtc || mode == ModeGold || mode == ModeBoth
}

// BuildPrompt 根据展示模式组装提示词
// 三个模板互斥，均嵌入当前价格、24h涨跌幅和相关时间桶的区间百分比
func BuildPrompt(mode string, snapshot *models.MarketSnapshot) string {
	switch mode {
	case ModeGold:
		return buildGoldPrompt(snapshot)
	case ModeBoth:
		return buildBothPrompt(snapshot)
	default:
		return buildBtcPrompt(snapshot)
	}
}

func buildBtcPrompt(s *models.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString("你是一位加密货币市场分析师。请根据以下BTC实时数据，用中文给出一段简短的交易观察（不超过200字），包含趋势判断和波动性评价，不要给出投资建议免责声明。\n\n")
	fmt.Fprintf(&b, "BTC当前价格: %.2f USDT\n", s.Btc.Price)
	fmt.Fprintf(&b, "24小时涨跌幅: %.2f%%\n", s.Btc.ChangePercent)
	b.WriteString(formatRanges(s.Ranges))
	b.WriteString(formatFunding(s.FundingRates))
	return b.String()
}

func buildGoldPrompt(s *models.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString("你是一位贵金属市场分析师。请根据以下黄金(PAXG代理)实时数据，用中文给出一段简短的市场观察（不超过200字），重点评价避险情绪和价格区间。\n\n")
	fmt.Fprintf(&b, "黄金当前价格: %.2f USDT\n", s.Gold.Price)
	fmt.Fprintf(&b, "24小时涨跌幅: %.2f%%\n", s.Gold.ChangePercent)
	b.WriteString(formatRanges(s.Ranges))
	return b.String()
}

func buildBothPrompt(s *models.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString("你是一位跨资产市场分析师。请根据以下BTC与黄金的实时数据，用中文给出一段简短的对比分析（不超过250字），评价两者的相对强弱和风险偏好信号。\n\n")
	fmt.Fprintf(&b, "BTC当前价格: %.2f USDT，24小时涨跌幅: %.2f%%\n", s.Btc.Price, s.Btc.ChangePercent)
	fmt.Fprintf(&b, "黄金当前价格: %.2f USDT，24小时涨跌幅: %.2f%%\n", s.Gold.Price, s.Gold.ChangePercent)
	b.WriteString(formatRanges(s.Ranges))
	b.WriteString(formatFunding(s.FundingRates))
	return b.String()
}

func formatRanges(ranges []models.CandleRangeSample) string {
	if len(ranges) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("各时间段高低区间:\n")
	for i := range ranges {
		r := ranges[i]
		fmt.Fprintf(&b, "- %s: 高 %.2f / 低 %.2f，区间 %.2f%%\n", r.Label, r.High, r.Low, r.RangePercent)
	}
	return b.String()
}

func formatFunding(rates []models.FundingRate) string {
	if len(rates) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("资金费率:\n")
	for i := range rates {
		fr := rates[i]
		fmt.Fprintf(&b, "- %s: %.4f%%\n", fr.SourceName, fr.Rate*100)
	}
	return b.String()
}
