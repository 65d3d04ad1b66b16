package notify_sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/pkg/logger"
)

const (
	// Time 写入超时时间
	writeWait = 10 * time.Second

	// Time pong超时时间
	pongWait = 60 * time.Second

	// Send 对应的ping 必须小于pong
	pingPeriod = (pongWait * 9) / 10

	// Maximum 对等端允许消息大小
	maxMessageSize = 4096

	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for SDK
	},
}

// Client ws和hub的连接
type Client struct {
	hub *WsServer

	// 🔗链接
	conn *websocket.Conn

	// 消息缓冲区，满了直接丢弃
	send chan []byte

	// UserID 和用户关联
	UserID string

	// ChannelID 非空表示频道消息连接
	ChannelID string

	done      chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.cancel != nil {
			c.cancel()
		}
	})
}

// enqueue 非阻塞写入发送缓冲
func (c *Client) enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		logger.Warn("ws send buffer full, drop frame", zap.String("user_id", c.UserID))
		return false
	}
}

func (c *Client) sendEnvelope(env message.Envelope) bool {
	b, err := json.Marshal(env)
	if err != nil {
		logger.Error("ws marshal envelope failed", zap.String("type", env.Type), zap.Error(err))
		return false
	}
	return c.enqueue(b)
}

// readPump 将消息从client (websocket 连接) 到hub管理。
func (c *Client) readPump() {
	defer func() {
		c.close()
		c.hub.leave(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { _ = c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.handleMessage(c, msg)
	}
}

// writePump 将消息从hub管理写到具体的client (websocket 连接)。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("ws write ping failed", zap.String("user_id", c.UserID), zap.Error(err))
				return
			}
		}
	}
}

// flush 关闭前把缓冲里剩下的帧写完（例如 error 帧）
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// pump 把总线订阅转成 ws 帧，连接关闭时取消订阅
func pump[T any](c *Client, sub *bus.Subscription[T], typ string) {
	defer sub.Close()
	for {
		select {
		case <-c.done:
			return
		case v, ok := <-sub.C():
			if !ok {
				return
			}
			env, err := message.NewEnvelope(typ, v)
			if err != nil {
				logger.Error("ws encode event failed", zap.String("type", typ), zap.Error(err))
				continue
			}
			c.sendEnvelope(env)
		}
	}
}

// WsServer 连接管理。推送走总线订阅，这里只负责登记和关停。
type WsServer struct {
	clients map[*Client]bool
	// 用户ID ->该用户所有活跃的Websocket连接（支持多设备）
	userClients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	mu         sync.RWMutex
	// 回调处理消息
	onMessage func(client *Client, msg []byte)
}

func NewWsServer() *WsServer {
	return &WsServer{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		quit:        make(chan struct{}),
		clients:     make(map[*Client]bool),
		userClients: make(map[string][]*Client),
	}
}

// Run 处理连接登记，ctx 结束时关闭全部连接
func (h *WsServer) Run(ctx context.Context) {
	defer close(h.quit)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.close()
			}
			h.clients = make(map[*Client]bool)
			h.userClients = make(map[string][]*Client)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				conns := h.userClients[client.UserID]
				for i, conn := range conns {
					if conn == client {
						conns = append(conns[:i], conns[i+1:]...)
						break
					}
				}
				if len(conns) == 0 {
					delete(h.userClients, client.UserID)
				} else {
					h.userClients[client.UserID] = conns
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *WsServer) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *WsServer) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *WsServer) handleMessage(client *Client, msg []byte) {
	if h.onMessage != nil {
		h.onMessage(client, msg)
	}
}

func (h *WsServer) SetOnMessage(fn func(client *Client, msg []byte)) {
	h.onMessage = fn
}

// Connections 某个用户当前的连接数
func (h *WsServer) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}

// NotificationSubscriber 按用户订阅通知
type NotificationSubscriber interface {
	Subscribe(ctx context.Context, userID string) (*bus.Subscription[message.Notification], error)
}

// ChatSubscriber 按频道订阅消息
type ChatSubscriber interface {
	Subscribe(ctx context.Context, channelID string) (*bus.Subscription[message.ChatMessage], error)
}

// ServeNotifications 升级连接并推送该用户的通知。
// 建立订阅后先发 ready 帧，订阅失败发 error 帧后关闭。
func (h *WsServer) ServeNotifications(w http.ResponseWriter, r *http.Request, userID string, subs NotificationSubscriber) {
	c, ctx, ok := h.accept(w, r, userID, "")
	if !ok {
		return
	}
	sub, err := subs.Subscribe(ctx, userID)
	if err != nil {
		h.reject(c, err)
		return
	}
	c.sendEnvelope(readyEnvelope(map[string]string{"userId": userID}))
	go pump(c, sub, message.WsTypeNotification)

	logger.Debug("ws notification subscriber joined", zap.String("user_id", userID), zap.Int("conns", h.Connections(userID)))
}

// ServeChannel 升级连接并推送某个频道的消息
func (h *WsServer) ServeChannel(w http.ResponseWriter, r *http.Request, userID, channelID string, subs ChatSubscriber) {
	c, ctx, ok := h.accept(w, r, userID, channelID)
	if !ok {
		return
	}
	sub, err := subs.Subscribe(ctx, channelID)
	if err != nil {
		h.reject(c, err)
		return
	}
	c.sendEnvelope(readyEnvelope(map[string]string{"userId": userID, "channelId": channelID}))
	go pump(c, sub, message.WsTypeChatMessage)
}

func (h *WsServer) accept(w http.ResponseWriter, r *http.Request, userID, channelID string) (*Client, context.Context, bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("ws upgrade failed", zap.Error(err))
		return nil, nil, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		UserID:    userID,
		ChannelID: channelID,
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	if !h.join(c) {
		cancel()
		_ = conn.Close()
		return nil, nil, false
	}
	go c.writePump()
	go c.readPump()
	return c, ctx, true
}

func (h *WsServer) reject(c *Client, err error) {
	logger.Warn("ws subscribe failed", zap.String("user_id", c.UserID), zap.Error(err))
	c.sendEnvelope(message.ErrorEnvelope(message.CodeInternalServerError, "subscribe failed"))
	c.close()
}

func readyEnvelope(data any) message.Envelope {
	env, err := message.NewEnvelope(message.WsTypeReady, data)
	if err != nil {
		return message.Envelope{Type: message.WsTypeReady}
	}
	return env
}
