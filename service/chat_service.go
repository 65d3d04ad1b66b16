package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/pkg/logger"
	"github.com/cydxin/notify-sdk/repository"
)

const (
	defaultChatLimit = 50
	maxChatContent   = 4000
)

// ChatService 频道消息：先落库再广播到频道订阅者
type ChatService struct {
	*Service
	dao   *repository.ChatMessageDAO
	users *repository.UserDAO
}

func NewChatService(s *Service) *ChatService {
	return &ChatService{
		Service: s,
		dao:     repository.NewChatMessageDAO(s.DB),
		users:   repository.NewUserDAO(s.DB),
	}
}

// SendMessage 发送频道消息。extra 为可选的附加 JSON。
func (s *ChatService) SendMessage(ctx context.Context, channelID, senderID, content string, extra json.RawMessage) (*message.ChatMessage, error) {
	channelID = strings.TrimSpace(channelID)
	content = strings.TrimSpace(content)
	switch {
	case channelID == "":
		return nil, &ValidationError{Field: "channelId", Msg: "channel id is required"}
	case senderID == "":
		return nil, &ValidationError{Field: "senderId", Msg: "sender id is required"}
	case content == "":
		return nil, &ValidationError{Field: "content", Msg: "content is required"}
	case len(content) > maxChatContent:
		return nil, &ValidationError{Field: "content", Msg: "content is too long"}
	}
	if len(extra) > 0 && !json.Valid(extra) {
		return nil, &ValidationError{Field: "extra", Msg: "extra must be valid json"}
	}

	m := &models.ChatMessage{
		ID:        newID(),
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if len(extra) > 0 {
		m.Extra = datatypes.JSON(extra)
	}
	if err := s.dao.Create(ctx, m); err != nil {
		return nil, err
	}

	sender := message.Actor{ID: senderID}
	if u, err := s.users.GetByID(ctx, senderID); err == nil {
		sender = actorOf(u)
	} else if !errors.Is(err, ErrNotFound) {
		logger.Warn("load chat sender failed", zap.String("sender_id", senderID), zap.Error(err))
	}

	out := message.ChatMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Sender:    sender,
	}
	if s.Bus != nil {
		s.Bus.PublishChatMessage(out)
	}
	return &out, nil
}

// ListMessages 频道最近的消息，新的在前
func (s *ChatService) ListMessages(ctx context.Context, channelID string, limit int) ([]message.ChatMessage, error) {
	if channelID == "" {
		return nil, &ValidationError{Field: "channelId", Msg: "channel id is required"}
	}
	if limit <= 0 {
		limit = defaultChatLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	rows, err := s.dao.ListByChannel(ctx, channelID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]message.ChatMessage, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		sender := message.Actor{ID: r.SenderID}
		if r.Sender.ID != "" {
			sender = actorOf(&r.Sender)
		}
		out = append(out, message.ChatMessage{
			ID:        r.ID,
			ChannelID: r.ChannelID,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
			Sender:    sender,
		})
	}
	return out, nil
}

// Subscribe 订阅频道
func (s *ChatService) Subscribe(ctx context.Context, channelID string) (*bus.Subscription[message.ChatMessage], error) {
	if channelID == "" {
		return nil, &ValidationError{Field: "channelId", Msg: "channel id is required"}
	}
	if s.Bus == nil {
		return nil, errors.New("chat bus is not configured")
	}
	return s.Bus.SubscribeChannel(ctx, channelID)
}
