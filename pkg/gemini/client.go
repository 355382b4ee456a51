package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// 固定的用户侧降级文案，调用方直接展示，不向上抛错误
const (
	MsgNotConfigured = "AI分析未配置，请设置 GEMINI_API_KEY"
	MsgUnavailable   = "AI分析暂时不可用，请稍后重试"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client Gemini文本生成客户端，单次请求/响应，无重试无流式
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient 创建Gemini客户端，apiKey为空时所有请求直接返回未配置文案
func NewClient(apiKey, model string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL 覆盖API端点，用于测试
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// IsConfigured 是否配置了API密钥
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// generateContentRequest generateContent 请求体
type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateContentResponse generateContent 响应体
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateCommentary 提交提示词并返回生成的文本
// 任何失败（未配置、网络、非200、响应格式异常）都降级为固定文案，不向调用方抛错
func (c *Client) GenerateCommentary(ctx context.Context, prompt string) string {
	if !c.IsConfigured() {
		logrus.Warn("未配置Gemini API密钥，跳过AI分析请求")
		return MsgNotConfigured
	}

	reqBody := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		logrus.Errorf("序列化Gemini请求失败: %v", err)
		return MsgUnavailable
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		logrus.Errorf("创建Gemini请求失败: %v", err)
		return MsgUnavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Errorf("Gemini请求失败: %v", err)
		return MsgUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.Errorf("读取Gemini响应失败: %v", err)
		return MsgUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		logrus.Errorf("Gemini返回非200状态: %d %s", resp.StatusCode, string(body))
		return MsgUnavailable
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		logrus.Errorf("解析Gemini响应失败: %v", err)
		return MsgUnavailable
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		logrus.Error("Gemini响应中没有生成内容")
		return MsgUnavailable
	}

	logrus.Debugf("AI分析生成完成，长度: %d", len(genResp.Candidates[0].Content.Parts[0].Text))
	return genResp.Candidates[0].Content.Parts[0].Text
}
