package notify_sdk

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/pkg/logger"
)

const wsHandlerTimeout = 5 * time.Second

// bindWsHandlersOnMessage 处理客户端上行帧：
// 通知连接上的 read_ack 标记已读，频道连接上的 chat_message 发送消息。
func (e *NotifyEngine) bindWsHandlersOnMessage() {
	e.WsServer.SetOnMessage(func(client *Client, msg []byte) {
		if client == nil {
			return
		}
		var typeProbe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &typeProbe); err != nil {
			logger.Debug("ws invalid frame", zap.String("user_id", client.UserID), zap.Error(err))
			return
		}

		switch typeProbe.Type {
		case message.WsTypeReadAck:
			e.onReadAck(client, msg)
		case message.WsTypeChatMessage:
			e.onChatSend(client, msg)
		case message.WsTypePing:
			// 读超时已在 readPump 刷新
		default:
			logger.Debug("ws unknown frame type", zap.String("type", typeProbe.Type))
		}
	})
}

func (e *NotifyEngine) onReadAck(client *Client, msg []byte) {
	var ack message.ReadAckReq
	if err := json.Unmarshal(msg, &ack); err != nil || ack.ID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsHandlerTimeout)
	defer cancel()
	if err := e.NotificationService.MarkAsRead(ctx, client.UserID, ack.ID); err != nil {
		logger.Info("ws read_ack failed",
			zap.String("user_id", client.UserID), zap.String("notification_id", ack.ID), zap.Error(err))
	}
}

func (e *NotifyEngine) onChatSend(client *Client, msg []byte) {
	if client.ChannelID == "" {
		return
	}
	var req message.ChatSendReq
	if err := json.Unmarshal(msg, &req); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsHandlerTimeout)
	defer cancel()
	if _, err := e.ChatService.SendMessage(ctx, client.ChannelID, client.UserID, req.Content, req.Extra); err != nil {
		logger.Info("ws chat send failed",
			zap.String("user_id", client.UserID), zap.String("channel_id", client.ChannelID), zap.Error(err))
	}
}
