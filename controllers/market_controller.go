package controllers

import (
	"net/http"

	"market_dashboard/core"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MarketController 市场快照控制器
type MarketController struct {
	refreshLoop *core.RefreshLoop
}

// NewMarketController 创建市场快照控制器
func NewMarketController(refreshLoop *core.RefreshLoop) *MarketController {
	return &MarketController{
		refreshLoop: refreshLoop,
	}
}

// GetSnapshot 获取当前市场快照
func (m *MarketController) GetSnapshot(ctx *gin.Context) {
	snapshot := m.refreshLoop.Snapshot()
	if snapshot == nil {
		// 首次加载还没完成
		ctx.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    nil,
			"loading": true,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    snapshot,
		"loading": false,
	})
}

// RefreshRequest 手动刷新请求（字段可选）
type RefreshRequest struct {
	Timeframe string `json:"timeframe"`
}

// Refresh 手动触发一次刷新
func (m *MarketController) Refresh(ctx *gin.Context) {
	var req RefreshRequest
	// body可以为空，解析失败按无参数处理
	_ = ctx.ShouldBindJSON(&req)

	if req.Timeframe != "" {
		resolved := m.refreshLoop.SetTimeframe(req.Timeframe)
		logrus.Infof("手动刷新并切换时间范围: %s", resolved)
	} else {
		m.refreshLoop.Trigger(core.TriggerManual)
		logrus.Info("手动刷新已触发")
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "刷新已触发",
		"timeframe": m.refreshLoop.Timeframe(),
	})
}

// TimeframeRequest 切换时间范围请求
type TimeframeRequest struct {
	Timeframe string `json:"timeframe" binding:"required"`
}

// SetTimeframe 切换时间范围并触发刷新
func (m *MarketController) SetTimeframe(ctx *gin.Context) {
	var req TimeframeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "timeframe参数不能为空",
			"code":  "INVALID_PARAMS",
		})
		return
	}

	resolved := m.refreshLoop.SetTimeframe(req.Timeframe)
	if resolved != req.Timeframe {
		logrus.Warnf("未知时间范围 %s，回退到 %s", req.Timeframe, resolved)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"timeframe": resolved,
	})
}
