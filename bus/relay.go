package bus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/pkg/logger"
)

// DefaultRelayChannel redis 频道名
const DefaultRelayChannel = "notify:bus"

type relayFrame struct {
	Origin string          `json:"origin"`
	Topic  string          `json:"topic"`
	Data   json.RawMessage `json:"data"`
}

type relayJob struct {
	topic string
	data  any
}

// Relay 通过 redis pub/sub 在多个实例之间同步总线事件。
// 本地发布的事件写到 redis，其他实例收到后只在本地 Emit，不再回写，origin 用来过滤自己发出的消息。
type Relay struct {
	rdb     *redis.Client
	ps      *PubSub
	channel string
	origin  string
	queue   chan relayJob
}

// NewRelay 创建 relay，channel 为空使用 DefaultRelayChannel，queueSize <= 0 时默认 1024。
func NewRelay(rdb *redis.Client, ps *PubSub, channel string, queueSize int) *Relay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Relay{
		rdb:     rdb,
		ps:      ps,
		channel: channel,
		origin:  uuid.NewString(),
		queue:   make(chan relayJob, queueSize),
	}
}

// Origin 本实例标识
func (r *Relay) Origin() string { return r.origin }

// Start 订阅 redis 频道并挂到总线上。订阅确认后才返回，ctx 结束时停止。
func (r *Relay) Start(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	r.ps.setForwarder(r)

	go r.publishLoop(ctx)
	go func() {
		defer func() {
			r.ps.setForwarder(nil)
			_ = sub.Close()
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.dispatch(msg.Payload)
			}
		}
	}()
	return nil
}

func (r *Relay) forward(topic string, v any) {
	select {
	case r.queue <- relayJob{topic: topic, data: v}:
	default:
		logger.Warn("relay queue full, drop event", zap.String("topic", topic))
	}
}

func (r *Relay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-r.queue:
			data, err := json.Marshal(job.data)
			if err != nil {
				logger.Error("relay marshal failed", zap.String("topic", job.topic), zap.Error(err))
				continue
			}
			frame, _ := json.Marshal(relayFrame{Origin: r.origin, Topic: job.topic, Data: data})
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = r.rdb.Publish(pctx, r.channel, frame).Err()
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("relay publish failed", zap.String("topic", job.topic), zap.Error(err))
			}
		}
	}
}

func (r *Relay) dispatch(payload string) {
	var f relayFrame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		logger.Warn("relay invalid frame", zap.Error(err))
		return
	}
	if f.Origin == r.origin {
		return
	}
	switch f.Topic {
	case cons.TopicNotification:
		var n message.Notification
		if err := json.Unmarshal(f.Data, &n); err != nil {
			logger.Warn("relay invalid notification", zap.Error(err))
			return
		}
		r.ps.Notifications.Emit(n)
	case cons.TopicChatMessage:
		var m message.ChatMessage
		if err := json.Unmarshal(f.Data, &m); err != nil {
			logger.Warn("relay invalid chat message", zap.Error(err))
			return
		}
		r.ps.ChatMessages.Emit(m)
	default:
		logger.Debug("relay unknown topic", zap.String("topic", f.Topic))
	}
}
