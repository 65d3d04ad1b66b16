package bus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer 订阅默认缓冲区大小（与 ws 连接的 send 缓冲一致）
const DefaultBuffer = 256

// Subscription 一个订阅者。C 在 Close 后被关闭。
type Subscription[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool

	off       func()
	done      chan struct{}
	closeOnce sync.Once

	dropped atomic.Uint64
}

// C 事件通道
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Done 订阅结束信号
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Dropped 该订阅丢弃的事件数
func (s *Subscription[T]) Dropped() uint64 { return s.dropped.Load() }

// offer 非阻塞投递
func (s *Subscription[T]) offer(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- v:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Close 注销监听并关闭通道，可重复调用。
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		if s.off != nil {
			s.off()
		}
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		close(s.done)
	})
}
