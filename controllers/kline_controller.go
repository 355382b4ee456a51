package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"market_dashboard/core"
	"market_dashboard/models"
	"market_dashboard/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type KlineController struct {
	source core.MarketSource
}

// NewKlineController 创建K线控制器
func NewKlineController(source core.MarketSource) *KlineController {
	return &KlineController{
		source: source,
	}
}

// GetKlines 获取K线数据
func (k *KlineController) GetKlines(ctx *gin.Context) {
	if k.source == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "行情客户端未初始化",
		})
		return
	}

	// 获取参数
	symbol := ctx.Query("symbol")
	if symbol == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "symbol参数不能为空",
		})
		return
	}

	interval := ctx.DefaultQuery("interval", "15m")
	limitStr := ctx.DefaultQuery("limit", "96")

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "limit参数格式错误",
		})
		return
	}

	// 构建缓存键
	cacheKey := fmt.Sprintf("%s:%s:%s:%d", redis.CacheKeyKLines, symbol, interval, limit)

	// 检查Redis缓存
	var cachedCandles []models.Candle
	if redis.GlobalRedisClient != nil {
		if err := redis.GlobalRedisClient.GetCache(cacheKey, &cachedCandles); err == nil {
			logrus.Debugf("从缓存获取K线数据: %s", cacheKey)
			ctx.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    cachedCandles,
				"count":   len(cachedCandles),
				"cached":  true,
				"params": gin.H{
					"symbol":   symbol,
					"interval": interval,
					"limit":    limit,
				},
			})
			return
		}
	}

	logrus.Debugf("缓存中无K线数据，实时获取: symbol=%s, interval=%s, limit=%d", symbol, interval, limit)

	// 实时获取K线数据
	candles, err := k.source.FetchKlines(ctx.Request.Context(), symbol, interval, limit)
	if err != nil {
		logrus.Errorf("获取K线数据失败: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "获取K线数据失败",
			"details": err.Error(),
		})
		return
	}

	// 缓存K线数据
	if redis.GlobalRedisClient != nil && len(candles) > 0 {
		if err := redis.GlobalRedisClient.SetCacheWithExpiration(cacheKey, candles, redis.CacheExpirationKLines); err != nil {
			logrus.Errorf("缓存K线数据失败: %v", err)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    candles,
		"count":   len(candles),
		"cached":  false,
		"params": gin.H{
			"symbol":   symbol,
			"interval": interval,
			"limit":    limit,
		},
	})
}
