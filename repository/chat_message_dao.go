package repository

import (
	"context"

	"github.com/cydxin/notify-sdk/models"
	"gorm.io/gorm"
)

// ChatMessageDAO 频道消息
type ChatMessageDAO struct {
	db *gorm.DB
}

func NewChatMessageDAO(db *gorm.DB) *ChatMessageDAO {
	return &ChatMessageDAO{db: db}
}

func (dao *ChatMessageDAO) WithDB(db *gorm.DB) *ChatMessageDAO {
	if db == nil {
		return dao
	}
	return &ChatMessageDAO{db: db}
}

func (dao *ChatMessageDAO) Create(ctx context.Context, m *models.ChatMessage) error {
	return dao.db.WithContext(ctx).Omit("Sender").Create(m).Error
}

// ListByChannel 最新的 limit 条，倒序
func (dao *ChatMessageDAO) ListByChannel(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := dao.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Preload("Sender").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
