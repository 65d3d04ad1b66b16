// Package client 订阅端：连接状态机、错误分类、断线补齐和未读计数。
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/pkg/logger"
)

var (
	// ErrInvalidState 当前状态不允许该操作（例如非 error 状态下 Retry）
	ErrInvalidState = errors.New("client: invalid state for operation")
	// ErrNotConnected 没有可用连接
	ErrNotConnected = errors.New("client: not connected")
)

type Option func(*Client)

// WithReconnectDelay 传输层自动重连的延迟，只对超时类错误生效；0 表示不自动重连（默认）。
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

// WithCatchUp 每次订阅建立后拉取一次未读
func WithCatchUp(cu CatchUp) Option {
	return func(c *Client) { c.catchUp = cu }
}

// OnNotification 新通知回调（包括补齐拉到的），在读循环 goroutine 中调用
func OnNotification(fn func(message.Notification)) Option {
	return func(c *Client) { c.onNotification = fn }
}

// OnStatus 状态变化回调
func OnStatus(fn func(Status)) Option {
	return func(c *Client) { c.onStatus = fn }
}

// OnError 出错回调，附带分类和提示文案
func OnError(fn func(*TransportError, Classification)) Option {
	return func(c *Client) { c.onError = fn }
}

// Client 单个用户的实时订阅。
// 回调在内部 goroutine 中执行，不要在回调里调用 Disconnect。
type Client struct {
	transport      Transport
	reconnectDelay time.Duration
	catchUp        CatchUp

	onNotification func(message.Notification)
	onStatus       func(Status)
	onError        func(*TransportError, Classification)

	mu         sync.Mutex
	status     Status
	lastErr    *TransportError
	gen        uint64
	parent     context.Context
	stopParent func() bool
	cancel     context.CancelFunc
	stream     Stream
	timer      *time.Timer

	store *store
	// done 当前这次读循环结束时关闭，之前的读循环都结束后才会关闭
	done chan struct{}
}

func New(t Transport, opts ...Option) *Client {
	c := &Client{transport: t, status: StatusIdle, store: newStore()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status 当前状态
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err 最近一次错误，非 error 状态时为 nil
func (c *Client) Err() *TransportError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect idle -> connecting，开始订阅。ctx 结束时自动断开回到 idle。
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	next, ok := Transition(c.status, EventConnect)
	if !ok {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.status = next
	c.lastErr = nil
	c.parent = ctx
	c.stopParent = context.AfterFunc(ctx, c.Disconnect)
	c.startLocked()
	c.mu.Unlock()

	c.emitStatus(next)
	return nil
}

// Retry error -> connecting，只能在 error 状态下调用。
func (c *Client) Retry() error {
	c.mu.Lock()
	next, ok := Transition(c.status, EventRetry)
	if !ok {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.stopAttemptLocked()
	c.status = next
	c.lastErr = nil
	c.startLocked()
	c.mu.Unlock()

	c.emitStatus(next)
	return nil
}

// Disconnect 任意状态 -> idle，关闭连接并等待读循环退出。
func (c *Client) Disconnect() {
	c.mu.Lock()
	prev := c.status
	c.gen++
	c.stopAttemptLocked()
	if c.stopParent != nil {
		c.stopParent()
		c.stopParent = nil
	}
	c.status, _ = Transition(c.status, EventTeardown)
	c.lastErr = nil
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
	if prev != StatusIdle {
		c.emitStatus(StatusIdle)
	}
}

// MarkAsRead 发送 read_ack 并更新本地未读
func (c *Client) MarkAsRead(id string) error {
	c.mu.Lock()
	s := c.stream
	c.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}
	if err := s.Send(message.ReadAckReq{Type: message.WsTypeReadAck, ID: id}); err != nil {
		return err
	}
	c.store.markRead(id)
	return nil
}

// UnreadCount 本地未读数
func (c *Client) UnreadCount() int { return c.store.unreadCount() }

// Notifications 已收到的通知，新的在前
func (c *Client) Notifications() []message.Notification { return c.store.all() }

// Grouped 按类型分组
func (c *Client) Grouped() Grouped { return c.store.grouped() }

func (c *Client) startLocked() {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	prev, done := c.done, make(chan struct{})
	c.done = done
	go func() {
		defer close(done)
		c.run(ctx, gen)
		if prev != nil {
			<-prev
		}
	}()
}

func (c *Client) stopAttemptLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stream = nil
}

func (c *Client) run(ctx context.Context, gen uint64) {
	stream, err := c.transport.Dial(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.fail(gen, err)
		}
		return
	}
	defer stream.Close()
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	if !c.attach(gen, stream) {
		return
	}

	for {
		env, err := stream.Recv()
		if err != nil {
			if ctx.Err() == nil {
				c.fail(gen, err)
			}
			return
		}
		switch env.Type {
		case message.WsTypeReady:
			if c.fire(gen, EventOpened) {
				c.runCatchUp(ctx)
			}
		case message.WsTypeNotification:
			var n message.Notification
			if err := json.Unmarshal(env.Data, &n); err != nil {
				logger.Warn("client: invalid notification frame", zap.Error(err))
				continue
			}
			c.deliver(n)
		case message.WsTypeError:
			c.fail(gen, &TransportError{Code: env.Code, Message: env.Message})
			return
		}
	}
}

func (c *Client) attach(gen uint64, s Stream) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.stream = s
	return true
}

// fire 对当前代的连接应用事件，过期代或不允许的转移返回 false
func (c *Client) fire(gen uint64, e Event) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	next, ok := Transition(c.status, e)
	if !ok {
		c.mu.Unlock()
		return false
	}
	changed := next != c.status
	c.status = next
	if next != StatusError {
		c.lastErr = nil
	}
	c.mu.Unlock()

	if changed {
		c.emitStatus(next)
	}
	return true
}

func (c *Client) fail(gen uint64, err error) {
	te := asTransportError(err)
	cls := Classify(te)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	next, ok := Transition(c.status, EventFailed)
	if !ok {
		c.mu.Unlock()
		return
	}
	changed := next != c.status
	c.status = next
	c.lastErr = te
	c.stream = nil
	if cls.Class == ClassTransient && c.reconnectDelay > 0 {
		c.timer = time.AfterFunc(c.reconnectDelay, func() { c.reconnect(gen) })
	}
	c.mu.Unlock()

	logger.Warn("client: subscription error",
		zap.String("code", te.Code), zap.String("class", cls.Class.String()), zap.String("message", te.Message))
	if changed {
		c.emitStatus(next)
	}
	if c.onError != nil {
		c.onError(te, cls)
	}
}

// reconnect 传输层自动重连：状态保持 error，连上后直接回到 pending
func (c *Client) reconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.status != StatusError {
		return
	}
	c.timer = nil
	if c.cancel != nil {
		c.cancel()
	}
	c.startLocked()
}

func (c *Client) runCatchUp(ctx context.Context) {
	if c.catchUp == nil {
		return
	}
	items, err := c.catchUp.Unread(ctx)
	if err != nil {
		logger.Warn("client: catch-up failed", zap.Error(err))
		return
	}
	for _, n := range items {
		c.deliver(n)
	}
}

func (c *Client) deliver(n message.Notification) {
	if !c.store.add(n) {
		return
	}
	if c.onNotification != nil {
		c.onNotification(n)
	}
}

func (c *Client) emitStatus(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

// Grouped 按事件类型分组的视图
type Grouped struct {
	Follow  []message.Notification
	Like    []message.Notification
	Comment []message.Notification
}

type store struct {
	mu    sync.Mutex
	items map[string]message.Notification
}

func newStore() *store {
	return &store{items: make(map[string]message.Notification)}
}

func (s *store) add(n message.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[n.ID]; ok {
		return false
	}
	s.items[n.ID] = n
	return true
}

func (s *store) markRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.items[id]; ok {
		n.Read = true
		s.items[id] = n
	}
}

func (s *store) unreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cnt := 0
	for _, n := range s.items {
		if !n.Read {
			cnt++
		}
	}
	return cnt
}

func (s *store) all() []message.Notification {
	s.mu.Lock()
	out := make([]message.Notification, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, n)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *store) grouped() Grouped {
	var g Grouped
	for _, n := range s.all() {
		switch n.EventKind {
		case cons.KindFollow:
			g.Follow = append(g.Follow, n)
		case cons.KindLike:
			g.Like = append(g.Like, n)
		case cons.KindComment:
			g.Comment = append(g.Comment, n)
		}
	}
	return g
}
