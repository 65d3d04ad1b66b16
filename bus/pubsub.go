package bus

import (
	"context"
	"sync/atomic"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
)

// Options 总线配置
type Options struct {
	// MaxListeners 每个 topic 的监听者上限，0 不限制
	MaxListeners int
	// Buffer 每个订阅的缓冲区大小
	Buffer int
}

type Option func(*Options)

func WithMaxListeners(n int) Option {
	return func(o *Options) { o.MaxListeners = n }
}

func WithBuffer(n int) Option {
	return func(o *Options) { o.Buffer = n }
}

// forwarder 把本地发布的事件转发出去（跨实例）
type forwarder interface {
	forward(topic string, v any)
}

// PubSub 进程内发布订阅服务，显式创建后注入各个服务，不做全局单例。
type PubSub struct {
	opts Options

	Notifications *Topic[message.Notification]
	ChatMessages  *Topic[message.ChatMessage]

	fwd atomic.Pointer[forwarder]
}

// New 创建总线
func New(opts ...Option) *PubSub {
	o := Options{Buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	return &PubSub{
		opts:          o,
		Notifications: NewTopic[message.Notification](cons.TopicNotification, o.MaxListeners),
		ChatMessages:  NewTopic[message.ChatMessage](cons.TopicChatMessage, o.MaxListeners),
	}
}

// PublishNotification 发布一条通知（同步分发给本地监听者，有 relay 时再转发）
func (p *PubSub) PublishNotification(n message.Notification) {
	p.Notifications.Emit(n)
	if f := p.fwd.Load(); f != nil {
		(*f).forward(cons.TopicNotification, n)
	}
}

// PublishChatMessage 发布一条频道消息
func (p *PubSub) PublishChatMessage(m message.ChatMessage) {
	p.ChatMessages.Emit(m)
	if f := p.fwd.Load(); f != nil {
		(*f).forward(cons.TopicChatMessage, m)
	}
}

// SubscribeUser 订阅某个用户的通知
func (p *PubSub) SubscribeUser(ctx context.Context, userID string) (*Subscription[message.Notification], error) {
	return p.Notifications.Subscribe(ctx, func(n message.Notification) bool {
		return n.UserID == userID
	}, p.opts.Buffer)
}

// SubscribeChannel 订阅某个频道的消息
func (p *PubSub) SubscribeChannel(ctx context.Context, channelID string) (*Subscription[message.ChatMessage], error) {
	return p.ChatMessages.Subscribe(ctx, func(m message.ChatMessage) bool {
		return m.ChannelID == channelID
	}, p.opts.Buffer)
}

func (p *PubSub) setForwarder(f forwarder) {
	if f == nil {
		p.fwd.Store(nil)
		return
	}
	p.fwd.Store(&f)
}
