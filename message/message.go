package message

import (
	"time"

	"github.com/cydxin/notify-sdk/cons"
)

// Actor 操作者展示信息，随事件一起推送，订阅端不需要再查一次用户。
type Actor struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Image    *string `json:"image"`
}

// Notification 推送给订阅端的一条通知（总线事件 / WS / SSE 的统一结构）
type Notification struct {
	ID         string          `json:"id"`
	EventKind  cons.EventKind  `json:"eventKind"`
	EntityType cons.EntityType `json:"entityType"`
	EntityID   string          `json:"entityId"`
	CommentID  *string         `json:"commentId,omitempty"`
	UserID     string          `json:"userId"`
	ActorID    string          `json:"actorId"`
	Read       bool            `json:"read"`
	CreatedAt  time.Time       `json:"createdAt"`
	Actor      Actor           `json:"actor"`
}

// ChatMessage 频道消息事件
type ChatMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    Actor     `json:"sender"`
}
