package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"market_dashboard/models"

	"github.com/sirupsen/logrus"
)

// ========== Binance 公开行情客户端 ==========

// Client 只使用公开端点，不需要API凭据
type Client struct {
	baseURL    string // 现货REST端点
	futuresURL string // 期货REST端点（资金费率）
	httpClient *http.Client
}

// New 创建新的Binance行情客户端
func New(baseURL, futuresURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		futuresURL: futuresURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Name() string { return "binance" }

// doRequest 执行GET请求并返回响应体
func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s 请求失败: %d %s", endpoint, resp.StatusCode, string(body))
	}

	return body, nil
}

// ticker24hrResponse /api/v3/ticker/24hr 响应
type ticker24hrResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	CloseTime          int64  `json:"closeTime"`
}

// FetchTicker 获取24小时行情统计
func (c *Client) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol不能为空")
	}

	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("获取ticker失败: %w", err)
	}

	var resp ticker24hrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析ticker失败: %w", err)
	}

	ticker := &models.Ticker{
		Symbol:         symbol,
		Price:          toFloat(resp.LastPrice),
		ChangePercent:  toFloat(resp.PriceChangePercent),
		ChangeAbsolute: toFloat(resp.PriceChange),
		High24h:        toFloat(resp.HighPrice),
		Low24h:         toFloat(resp.LowPrice),
		UpdatedAt:      resp.CloseTime,
	}
	if ticker.UpdatedAt == 0 {
		ticker.UpdatedAt = time.Now().UnixMilli()
	}

	return ticker, nil
}

// FetchKlines 获取K线数据
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol不能为空")
	}
	if limit <= 0 {
		limit = 500 // 默认值
	}
	if limit > 1000 {
		limit = 1000 // /api/v3/klines 最大限制
	}

	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(interval), limit)
	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("获取K线数据失败: %w", err)
	}

	// Binance K线数据格式:
	// [
	//   1499040000000,      // 开盘时间
	//   "0.01634790",       // 开盘价
	//   "0.80000000",       // 最高价
	//   "0.01575800",       // 最低价
	//   "0.01577100",       // 收盘价
	//   "148976.11427815",  // 成交量
	//   1499644799999,      // 收盘时间
	//   ...
	// ]
	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, fmt.Errorf("解析K线数据失败: %w", err)
	}

	candles := make([]models.Candle, 0, len(rawKlines))
	now := time.Now().UnixMilli()
	for i := range rawKlines {
		candle, ok := parseKline(rawKlines[i], now)
		if !ok {
			logrus.Debugf("跳过无效K线: symbol=%s index=%d", symbol, i)
			continue
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// premiumIndexResponse /fapi/v1/premiumIndex 响应
type premiumIndexResponse struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

// FetchFundingRate 获取永续合约资金费率
func (c *Client) FetchFundingRate(ctx context.Context, symbol string) (float64, error) {
	if symbol == "" {
		return 0, fmt.Errorf("symbol不能为空")
	}

	endpoint := fmt.Sprintf("%s/fapi/v1/premiumIndex?symbol=%s", c.futuresURL, url.QueryEscape(symbol))
	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("获取资金费率失败: %w", err)
	}

	var resp premiumIndexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("解析资金费率失败: %w", err)
	}

	return toFloat(resp.LastFundingRate), nil
}

// parseKline 解析单根K线，字段不足或格式异常时返回false
func parseKline(data []interface{}, nowMs int64) (models.Candle, bool) {
	if len(data) < 7 {
		return models.Candle{}, false
	}

	openTime := toInt64(data[0])
	closeTime := toInt64(data[6])
	if openTime == 0 {
		return models.Candle{}, false
	}

	return models.Candle{
		TimestampMs: openTime,
		Open:        toFloatAny(data[1]),
		High:        toFloatAny(data[2]),
		Low:         toFloatAny(data[3]),
		Close:       toFloatAny(data[4]),
		Volume:      toFloatAny(data[5]),
		IsClosed:    closeTime > 0 && closeTime < nowMs,
	}, true
}

// ========== 安全类型转换 ==========

func toFloat(s string) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return 0
}

func toFloatAny(val interface{}) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		return toFloat(v)
	}
	return 0
}

func toInt64(val interface{}) int64 {
	switch v := val.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
