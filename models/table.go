package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

var prefix = "nt_"

// SetTablePrefix 修改表前缀，必须在 AutoMigrate / 第一次查询之前调用。
func SetTablePrefix(p string) {
	p = strings.TrimSpace(p)
	if p == "" || p == prefix {
		return
	}
	prefix = p
}

// TablePrefix 当前表前缀
func TablePrefix() string { return prefix }

// User 用户（只保留通知展示需要的字段，完整用户表由业务方维护）
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:100" json:"name"`
	Username  string    `gorm:"size:50;index" json:"username"`
	Image     string    `gorm:"size:500" json:"image"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string { return prefix + "user" }

// Post 帖子
type Post struct {
	ID        string `gorm:"primaryKey;size:64"`
	OwnerID   string `gorm:"size:64;index;not null"`
	CreatedAt time.Time
}

func (Post) TableName() string { return prefix + "post" }

// Grow 种植记录
type Grow struct {
	ID        string `gorm:"primaryKey;size:64"`
	OwnerID   string `gorm:"size:64;index;not null"`
	CreatedAt time.Time
}

func (Grow) TableName() string { return prefix + "grow" }

// Plant 植物
type Plant struct {
	ID        string `gorm:"primaryKey;size:64"`
	OwnerID   string `gorm:"size:64;index;not null"`
	CreatedAt time.Time
}

func (Plant) TableName() string { return prefix + "plant" }

// Image 照片
type Image struct {
	ID        string `gorm:"primaryKey;size:64"`
	OwnerID   string `gorm:"size:64;index;not null"`
	CreatedAt time.Time
}

func (Image) TableName() string { return prefix + "image" }

// Comment 评论。ParentCommentID 为空表示顶层评论。
// EntityType/EntityID 指向评论所挂靠的实体（grow/plant/photo/post）。
type Comment struct {
	ID              string  `gorm:"primaryKey;size:64"`
	UserID          string  `gorm:"size:64;index;not null"` // 作者
	EntityID        string  `gorm:"size:64;index:idx_comment_entity,priority:2;not null"`
	EntityType      string  `gorm:"size:20;index:idx_comment_entity,priority:1;not null"`
	ParentCommentID *string `gorm:"size:64;index"`
	CommentText     string  `gorm:"type:text"`
	CreatedAt       time.Time
}

func (Comment) TableName() string { return prefix + "comment" }

// ChatMessage 频道消息（按频道广播，不按用户过滤）
type ChatMessage struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	ChannelID string         `gorm:"size:64;index:idx_channel_created,priority:1;not null" json:"channelId"`
	SenderID  string         `gorm:"size:64;index;not null" json:"senderId"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Extra     datatypes.JSON `gorm:"type:json" json:"extra,omitempty" swaggertype:"object"`
	CreatedAt time.Time      `gorm:"index:idx_channel_created,priority:2" json:"createdAt"`

	Sender User `gorm:"foreignKey:SenderID;-:migration" json:"sender"`
}

func (ChatMessage) TableName() string { return prefix + "chat_message" }

// All 需要 AutoMigrate 的表
func All() []any {
	return []any{
		&User{},
		&Post{},
		&Grow{},
		&Plant{},
		&Image{},
		&Comment{},
		&Notification{},
		&ChatMessage{},
	}
}
