package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"market_dashboard/models"
)

func testSnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Timeframe: "24h",
		Btc:       models.Ticker{Symbol: "BTCUSDT", Price: 97123.45, ChangePercent: 2.31},
		Gold:      models.Ticker{Symbol: "PAXGUSDT", Price: 2688.9, ChangePercent: -0.42},
		Ranges: []models.CandleRangeSample{
			{Label: "1h", High: 97500, Low: 96900, RangePercent: 0.62},
			{Label: "24h", High: 98000, Low: 95000, RangePercent: 3.16},
		},
		FundingRates: []models.FundingRate{
			{SourceName: "binance", Rate: 0.0001},
		},
	}
}

func TestGenerateCommentaryNotConfigured(t *testing.T) {
	var requestCount int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requestCount, 1)
	}))
	defer server.Close()

	client := NewClient("", "gemini-1.5-flash")
	client.SetBaseURL(server.URL)

	text := client.GenerateCommentary(context.Background(), "test prompt")
	if text != MsgNotConfigured {
		t.Errorf("未配置密钥应返回固定文案: %q", text)
	}
	if atomic.LoadInt64(&requestCount) != 0 {
		t.Errorf("未配置密钥不应发起网络请求: %d", requestCount)
	}
}

func TestGenerateCommentaryTransportFailure(t *testing.T) {
	client := NewClient("test-key", "gemini-1.5-flash")
	// 指向未监听的端口，模拟网络故障
	client.SetBaseURL("http://127.0.0.1:1")

	text := client.GenerateCommentary(context.Background(), "test prompt")
	if text != MsgUnavailable {
		t.Errorf("网络故障应返回固定重试文案: %q", text)
	}
}

func TestGenerateCommentaryNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "internal"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-1.5-flash")
	client.SetBaseURL(server.URL)

	text := client.GenerateCommentary(context.Background(), "test prompt")
	if text != MsgUnavailable {
		t.Errorf("非200响应应返回固定重试文案: %q", text)
	}
}

func TestGenerateCommentaryMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-1.5-flash")
	client.SetBaseURL(server.URL)

	text := client.GenerateCommentary(context.Background(), "test prompt")
	if text != MsgUnavailable {
		t.Errorf("空candidates应返回固定重试文案: %q", text)
	}
}

func TestGenerateCommentarySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("请求方法错误: %s", r.Method)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"BTC短期偏多。"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-1.5-flash")
	client.SetBaseURL(server.URL)

	text := client.GenerateCommentary(context.Background(), "test prompt")
	if text != "BTC短期偏多。" {
		t.Errorf("应返回生成的文本: %q", text)
	}
}

func TestBuildPromptModes(t *testing.T) {
	snapshot := testSnapshot()

	btcPrompt := BuildPrompt(ModeBtc, snapshot)
	goldPrompt := BuildPrompt(ModeGold, snapshot)
	bothPrompt := BuildPrompt(ModeBoth, snapshot)

	// 三个模板互斥且内容不同
	if btcPrompt == goldPrompt || btcPrompt == bothPrompt || goldPrompt == bothPrompt {
		t.Error("三种模式的提示词应互不相同")
	}

	// BTC模板嵌入价格和涨跌幅
	for _, want := range []string{"97123.45", "2.31", "1h", "24h"} {
		if !contains(btcPrompt, want) {
			t.Errorf("BTC提示词缺少 %q:\n%s", want, btcPrompt)
		}
	}

	// 黄金模板嵌入黄金数据
	for _, want := range []string{"2688.90", "-0.42"} {
		if !contains(goldPrompt, want) {
			t.Errorf("黄金提示词缺少 %q:\n%s", want, goldPrompt)
		}
	}

	// 对比模板同时嵌入两种资产
	for _, want := range []string{"97123.45", "2688.90"} {
		if !contains(bothPrompt, want) {
			t.Errorf("对比提示词缺少 %q:\n%s", want, bothPrompt)
		}
	}

	// 未知模式回退到BTC模板
	if BuildPrompt("unknown", snapshot) != btcPrompt {
		t.Error("未知模式应回退到BTC模板")
	}
}

func TestValidMode(t *testing.T) {
	for _, mode := range []string{ModeBtc, ModeGold, ModeBoth} {
		if !ValidMode(mode) {
			t.Errorf("%s 应为有效模式", mode)
		}
	}
	if ValidMode("") || ValidMode("all") {
		t.Error("无效模式不应通过校验")
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
