package models

import (
	"time"

	"github.com/cydxin/notify-sdk/cons"
)

// Notification 通知记录，每个接收者一条。
// 只会被创建一次，之后唯一的变更是 read: false -> true，不做删除。
//
// 约束：
// - ActorID != UserID（工厂在落库前已经剔除操作者）
// - CommentID 当且仅当 Type = new_comment 时必填
type Notification struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	UserID     string          `gorm:"size:64;not null;index:idx_user_read_created,priority:1" json:"userId"` // 接收者
	ActorID    string          `gorm:"size:64;not null;index" json:"actorId"`                                 // 操作者
	Type       cons.EventKind  `gorm:"column:type;type:varchar(32);not null" json:"eventKind"`
	EntityType cons.EntityType `gorm:"size:20;not null" json:"entityType"`
	EntityID   string          `gorm:"size:64;not null" json:"entityId"`
	CommentID  *string         `gorm:"size:64" json:"commentId,omitempty"`
	Read       bool            `gorm:"not null;default:false;index:idx_user_read_created,priority:2" json:"read"`
	CreatedAt  time.Time       `gorm:"index:idx_user_read_created,priority:3" json:"createdAt"`

	// 列表查询时 Preload，用于展示操作者
	Actor *User `gorm:"foreignKey:ActorID;-:migration" json:"actor,omitempty"`
}

func (Notification) TableName() string { return prefix + "notification" }
