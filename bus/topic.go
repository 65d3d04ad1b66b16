package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/pkg/logger"
)

// ErrTooManyListeners 超过 topic 的监听者上限
var ErrTooManyListeners = errors.New("bus: too many listeners")

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Topic 单个主题，Emit 同步依次调用当前注册的所有监听者。
// 监听者里不能做阻塞操作，需要异步的走 Subscribe（带缓冲）。
type Topic[T any] struct {
	name         string
	maxListeners int // 0 不限制

	mu        sync.RWMutex
	listeners []listener[T]
	nextID    uint64

	dropped atomic.Uint64
}

// NewTopic 创建主题
func NewTopic[T any](name string, maxListeners int) *Topic[T] {
	if maxListeners < 0 {
		maxListeners = 0
	}
	return &Topic[T]{name: name, maxListeners: maxListeners}
}

func (t *Topic[T]) Name() string { return t.name }

// On 注册监听者，返回的函数用于注销（可重复调用）。
func (t *Topic[T]) On(fn func(T)) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxListeners > 0 && len(t.listeners) >= t.maxListeners {
		return nil, ErrTooManyListeners
	}
	t.nextID++
	id := t.nextID
	t.listeners = append(t.listeners, listener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { t.off(id) })
	}, nil
}

func (t *Topic[T]) off(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, l := range t.listeners {
		if l.id == id {
			t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
			return
		}
	}
}

// Emit 广播。没有监听者时直接丢弃。
func (t *Topic[T]) Emit(v T) {
	t.mu.RLock()
	snapshot := t.listeners
	t.mu.RUnlock()

	for _, l := range snapshot {
		t.call(l, v)
	}
}

// call 单个监听者 panic 不影响发布方和其他监听者
func (t *Topic[T]) call(l listener[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("bus listener panic",
				zap.String("topic", t.name),
				zap.Uint64("listener", l.id),
				zap.Any("panic", r))
		}
	}()
	l.fn(v)
}

// ListenerCount 当前监听者数量
func (t *Topic[T]) ListenerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners)
}

// Dropped 因订阅缓冲区满而丢弃的事件总数
func (t *Topic[T]) Dropped() uint64 { return t.dropped.Load() }

// Subscribe 注册一个带缓冲的订阅，只接收 match 返回 true 的事件（match 为 nil 时全收）。
// ctx 结束或调用 Close 时自动注销并关闭 C。
// 缓冲满时丢弃该订阅者的事件，不会阻塞发布方。
func (t *Topic[T]) Subscribe(ctx context.Context, match func(T) bool, buffer int) (*Subscription[T], error) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription[T]{
		ch:   make(chan T, buffer),
		done: make(chan struct{}),
	}
	off, err := t.On(func(v T) {
		if match != nil && !match(v) {
			return
		}
		if !s.offer(v) {
			t.dropped.Add(1)
			logger.Warn("subscription buffer full, drop event",
				zap.String("topic", t.name),
				zap.Uint64("dropped", s.dropped.Load()))
		}
	})
	if err != nil {
		return nil, err
	}
	s.off = off

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}
