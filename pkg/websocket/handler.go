package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该检查Origin
		return true
	},
}

// WebSocketManager WebSocket管理器
type WebSocketManager struct {
	hub *Hub
}

// NewWebSocketManager 创建WebSocket管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		hub: NewHub(),
	}
}

// Start 启动WebSocket管理器
func (wsm *WebSocketManager) Start() {
	go wsm.hub.Run()
}

// HandleWebSocket 处理WebSocket连接
func (wsm *WebSocketManager) HandleWebSocket(c *gin.Context) {
	// 升级HTTP连接为WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "WebSocket升级失败",
			"details": err.Error(),
		})
		return
	}

	// 生成客户端ID
	clientID := uuid.New().String()

	// 创建客户端
	client := NewClient(wsm.hub, conn, clientID)

	// 注册客户端
	wsm.hub.register <- client

	// 启动客户端
	client.StartClient()

	logrus.WithFields(logrus.Fields{
		"clientId":   clientID,
		"remoteAddr": c.Request.RemoteAddr,
		"userAgent":  c.Request.UserAgent(),
	}).Info("WebSocket连接已建立")
}

// GetStats 获取WebSocket统计信息
func (wsm *WebSocketManager) GetStats(c *gin.Context) {
	stats := wsm.hub.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   stats,
	})
}

// GetHub 获取Hub实例
func (wsm *WebSocketManager) GetHub() *Hub {
	return wsm.hub
}

// BroadcastSnapshot 广播市场快照
func (wsm *WebSocketManager) BroadcastSnapshot(data interface{}) {
	wsm.hub.BroadcastToSubscribers(DataTypeSnapshot, data)
}

// BroadcastCommentary 广播AI分析结果
func (wsm *WebSocketManager) BroadcastCommentary(data interface{}) {
	wsm.hub.BroadcastToSubscribers(DataTypeCommentary, data)
}
