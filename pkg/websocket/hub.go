package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub 维护活跃的客户端集合并向客户端广播消息
type Hub struct {
	// 注册的客户端
	clients map[*Client]bool

	// 来自客户端的注册请求
	register chan *Client

	// 来自客户端的注销请求
	unregister chan *Client

	// 客户端管理
	clientsMutex sync.RWMutex

	// 订阅管理
	subscriptions map[string]map[*Client]bool // dataType -> clients
	subsMutex     sync.RWMutex

	// 订阅时的初始数据来源，由上层注入（按dataType返回当前数据）
	initialData func(dataType string) interface{}
}

// Client 表示单个WebSocket客户端
type Client struct {
	hub *Hub

	// WebSocket连接
	conn *websocket.Conn

	// 出站消息的缓冲通道
	send chan []byte

	// 客户端唯一标识
	id string

	// 客户端订阅的数据类型
	subscriptions map[string]bool
	subsMutex     sync.RWMutex

	// 连接时间
	connectedAt time.Time

	// 最后活跃时间
	lastActivity time.Time

	// 客户端状态
	closed     bool
	closeMutex sync.RWMutex
}

// Message 表示WebSocket消息格式
type Message struct {
	Type      string      `json:"type"`      // message, subscribe, unsubscribe, ping, pong, error
	DataType  string      `json:"dataType"`  // snapshot, commentary
	Data      interface{} `json:"data"`      // 实际数据
	Timestamp int64       `json:"timestamp"` // 时间戳
	ClientID  string      `json:"clientId"`  // 客户端ID（仅用于调试）
}

// ErrorMessage 错误消息格式
type ErrorMessage struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

const (
	// 消息类型
	MessageTypeMessage     = "message"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeError       = "error"

	// 数据类型
	DataTypeSnapshot   = "snapshot"
	DataTypeCommentary = "commentary"

	// 时间常量
	writeWait      = 10 * time.Second    // 写入等待时间
	pongWait       = 60 * time.Second    // Pong等待时间
	pingPeriod     = (pongWait * 9) / 10 // Ping发送周期
	maxMessageSize = 512                 // 最大消息大小
)

// NewHub 创建新的Hub
func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// SetInitialDataSource 设置订阅时的初始数据来源
func (h *Hub) SetInitialDataSource(fn func(dataType string) interface{}) {
	h.initialData = fn
}

// Run 启动Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client] = true
			h.clientsMutex.Unlock()
			logrus.WithField("clientId", client.id).Info("客户端已连接")

			// 发送欢迎消息
			welcome := Message{
				Type:      MessageTypeMessage,
				DataType:  "system",
				Data:      map[string]string{"status": "connected", "clientId": client.id},
				Timestamp: time.Now().UnixMilli(),
				ClientID:  client.id,
			}
			if data, err := json.Marshal(welcome); err == nil {
				select {
				case client.send <- data:
				default:
					client.safeClose()
					delete(h.clients, client)
				}
			}

		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.safeClose()

				// 从所有订阅中移除客户端
				h.subsMutex.Lock()
				for i := range h.subscriptions {
					delete(h.subscriptions[i], client)
				}
				h.subsMutex.Unlock()

				logrus.WithField("clientId", client.id).Info("客户端已断开")
			}
			h.clientsMutex.Unlock()
		}
	}
}

// GetStats 获取Hub统计信息
func (h *Hub) GetStats() map[string]interface{} {
	h.clientsMutex.RLock()
	clientCount := len(h.clients)
	h.clientsMutex.RUnlock()

	h.subsMutex.RLock()
	subscriptionStats := make(map[string]int)
	for dataType, clients := range h.subscriptions {
		subscriptionStats[dataType] = len(clients)
	}
	h.subsMutex.RUnlock()

	return map[string]interface{}{
		"connectedClients": clientCount,
		"subscriptions":    subscriptionStats,
	}
}

// BroadcastToSubscribers 向订阅指定数据类型的客户端广播消息
func (h *Hub) BroadcastToSubscribers(dataType string, data interface{}) {
	message := Message{
		Type:      MessageTypeMessage,
		DataType:  dataType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	messageData, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("序列化广播消息失败: %v", err)
		return
	}

	h.subsMutex.RLock()
	subscribers := h.subscriptions[dataType]
	if len(subscribers) == 0 {
		h.subsMutex.RUnlock()
		logrus.Debugf("没有订阅 %s 的客户端", dataType)
		return
	}

	// 创建订阅者列表的副本以避免并发问题
	clientList := make([]*Client, 0, len(subscribers))
	for client := range subscribers {
		clientList = append(clientList, client)
	}
	h.subsMutex.RUnlock()

	// 发送给所有订阅者
	successCount := 0
	failedClients := make([]*Client, 0)

	for i := range clientList {
		client := clientList[i]

		if client.isClosed() {
			failedClients = append(failedClients, client)
			continue
		}

		select {
		case client.send <- messageData:
			successCount++
		default:
			// 客户端发送缓冲区已满，标记为失败
			failedClients = append(failedClients, client)
		}
	}

	// 清理失败的客户端
	for i := range failedClients {
		h.unregisterClient(failedClients[i])
	}

	logrus.Debugf("向 %d 个订阅 %s 的客户端发送数据，成功 %d 个，失败 %d 个",
		len(clientList), dataType, successCount, len(failedClients))
}

// Subscribe 客户端订阅数据类型
func (h *Hub) Subscribe(client *Client, dataType string) {
	h.subsMutex.Lock()
	if h.subscriptions[dataType] == nil {
		h.subscriptions[dataType] = make(map[*Client]bool)
	}
	h.subscriptions[dataType][client] = true
	h.subsMutex.Unlock()

	client.subsMutex.Lock()
	client.subscriptions[dataType] = true
	client.subsMutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"clientId": client.id,
		"dataType": dataType,
	}).Info("客户端订阅数据类型")

	// 立即推送该数据类型的当前数据
	go h.sendInitialDataForType(client, dataType)
}

// Unsubscribe 客户端取消订阅数据类型
func (h *Hub) Unsubscribe(client *Client, dataType string) {
	h.subsMutex.Lock()
	if clients, exists := h.subscriptions[dataType]; exists {
		delete(clients, client)
	}
	h.subsMutex.Unlock()

	client.subsMutex.Lock()
	delete(client.subscriptions, dataType)
	client.subsMutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"clientId": client.id,
		"dataType": dataType,
	}).Info("客户端取消订阅数据类型")
}

// sendInitialDataForType 订阅后立即推送当前数据，避免客户端等到下个刷新周期
func (h *Hub) sendInitialDataForType(client *Client, dataType string) {
	if h.initialData == nil {
		return
	}

	data := h.initialData(dataType)
	if data == nil {
		return
	}

	message := Message{
		Type:      MessageTypeMessage,
		DataType:  dataType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		ClientID:  client.id,
	}
	client.sendMessage(&message)
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	if client.isClosed() {
		return
	}

	select {
	case h.unregister <- client:
	default:
		// 注销通道已满，直接删除
		h.clientsMutex.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			client.safeClose()
		}
		h.clientsMutex.Unlock()
	}
}

// isClosed 检查客户端是否已经关闭
func (c *Client) isClosed() bool {
	c.closeMutex.RLock()
	defer c.closeMutex.RUnlock()
	return c.closed
}

// safeClose 安全关闭客户端
func (c *Client) safeClose() {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// NewClient 创建新的客户端
func NewClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            id,
		subscriptions: make(map[string]bool),
		connectedAt:   time.Now(),
		lastActivity:  time.Now(),
	}
}

// StartClient 启动客户端读写协程
func (c *Client) StartClient() {
	go c.writePump()
	go c.readPump()
}

// readPump 处理来自WebSocket连接的读取操作
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return err
		}
		c.lastActivity = time.Now()
		return nil
	})

	for {
		_, messageData, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket错误: %v", err)
			}
			break
		}

		c.lastActivity = time.Now()

		// 解析消息
		var msg Message
		if err := json.Unmarshal(messageData, &msg); err != nil {
			logrus.Errorf("解析WebSocket消息失败: %v", err)
			c.sendError("INVALID_MESSAGE", "消息格式错误", fmt.Sprintf("解析失败: %v", err))
			continue
		}

		// 处理消息
		c.handleMessage(&msg)
	}
}

// writePump 处理向WebSocket连接的写入操作
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 添加队列中的其他消息
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理客户端消息
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe:
		if msg.DataType == "" {
			c.sendError("INVALID_DATATYPE", "订阅失败", "dataType不能为空")
			return
		}

		// 验证数据类型
		if !c.isValidDataType(msg.DataType) {
			c.sendError("INVALID_DATATYPE", "订阅失败", fmt.Sprintf("不支持的数据类型: %s", msg.DataType))
			return
		}

		c.hub.Subscribe(c, msg.DataType)

		// 发送订阅确认
		response := Message{
			Type:      MessageTypeMessage,
			DataType:  "system",
			Data:      map[string]string{"action": "subscribed", "dataType": msg.DataType},
			Timestamp: time.Now().UnixMilli(),
			ClientID:  c.id,
		}
		c.sendMessage(&response)

	case MessageTypeUnsubscribe:
		if msg.DataType == "" {
			c.sendError("INVALID_DATATYPE", "取消订阅失败", "dataType不能为空")
			return
		}

		c.hub.Unsubscribe(c, msg.DataType)

		// 发送取消订阅确认
		response := Message{
			Type:      MessageTypeMessage,
			DataType:  "system",
			Data:      map[string]string{"action": "unsubscribed", "dataType": msg.DataType},
			Timestamp: time.Now().UnixMilli(),
			ClientID:  c.id,
		}
		c.sendMessage(&response)

	case MessageTypePing:
		// 响应ping
		pong := Message{
			Type:      MessageTypePong,
			DataType:  "system",
			Data:      map[string]string{"message": "pong"},
			Timestamp: time.Now().UnixMilli(),
			ClientID:  c.id,
		}
		c.sendMessage(&pong)

	default:
		c.sendError("UNKNOWN_MESSAGE_TYPE", "未知消息类型", fmt.Sprintf("不支持的消息类型: %s", msg.Type))
	}
}

// isValidDataType 验证数据类型是否有效
func (c *Client) isValidDataType(dataType string) bool {
	return dataType == DataTypeSnapshot || dataType == DataTypeCommentary
}

// sendMessage 发送消息给客户端
func (c *Client) sendMessage(msg *Message) {
	if c.isClosed() {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("序列化消息失败: %v", err)
		return
	}

	select {
	case c.send <- data:
	default:
		logrus.Warnf("客户端 %s 发送缓冲区已满，丢弃消息", c.id)
	}
}

// sendError 发送错误消息给客户端
func (c *Client) sendError(code, errMsg, details string) {
	message := Message{
		Type:     MessageTypeError,
		DataType: "system",
		Data: ErrorMessage{
			Error:   errMsg,
			Code:    code,
			Details: details,
		},
		Timestamp: time.Now().UnixMilli(),
		ClientID:  c.id,
	}
	c.sendMessage(&message)
}
