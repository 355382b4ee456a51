package controllers

import (
	"net/http"

	"market_dashboard/core"
	"market_dashboard/pkg/gemini"
	"market_dashboard/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CommentaryController AI分析控制器
type CommentaryController struct {
	geminiClient *gemini.Client
	refreshLoop  *core.RefreshLoop
}

// NewCommentaryController 创建AI分析控制器
func NewCommentaryController(geminiClient *gemini.Client, refreshLoop *core.RefreshLoop) *CommentaryController {
	return &CommentaryController{
		geminiClient: geminiClient,
		refreshLoop:  refreshLoop,
	}
}

// CommentaryRequest AI分析请求
type CommentaryRequest struct {
	Mode string `json:"mode"` // btc / gold / both，默认btc
}

// CommentaryResponse AI分析响应
type CommentaryResponse struct {
	ID   string `json:"id"`   // 本次分析的请求标识
	Mode string `json:"mode"` // 实际使用的展示模式
	Text string `json:"text"` // 生成的分析文本（失败时为固定降级文案）
}

// Generate 基于当前快照生成交易观察
// 对调用方永远返回200，服务失败体现在固定的降级文案里
func (cc *CommentaryController) Generate(ctx *gin.Context) {
	var req CommentaryRequest
	// body可以为空，默认btc模式
	_ = ctx.ShouldBindJSON(&req)

	mode := req.Mode
	if mode == "" {
		mode = gemini.ModeBtc
	}
	if !gemini.ValidMode(mode) {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "不支持的展示模式，应为 btc / gold / both",
			"code":  "INVALID_MODE",
		})
		return
	}

	snapshot := cc.refreshLoop.Snapshot()
	if snapshot == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "市场数据还未加载完成，请稍后再试",
			"code":  "SNAPSHOT_NOT_READY",
		})
		return
	}

	requestID := uuid.New().String()
	prompt := gemini.BuildPrompt(mode, snapshot)
	logrus.Infof("AI分析请求: id=%s mode=%s", requestID, mode)

	text := cc.geminiClient.GenerateCommentary(ctx.Request.Context(), prompt)

	response := CommentaryResponse{
		ID:   requestID,
		Mode: mode,
		Text: text,
	}

	// 推送给订阅commentary的看板客户端
	if wsm := websocket.GlobalWebSocketManager; wsm != nil {
		wsm.BroadcastCommentary(response)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}
