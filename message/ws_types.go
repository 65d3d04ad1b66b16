package message

import "encoding/json"

// WS 下行消息类型（server -> client）
const (
	WsTypeReady        = "ready"        // 订阅已建立
	WsTypeNotification = "notification" // 新通知
	WsTypeChatMessage  = "chat_message" // 频道消息
	WsTypeError        = "error"        // 服务端错误，随后连接会被关闭
)

// WS 上行消息类型（client -> server）
const (
	WsTypeReadAck = "read_ack" // 标记一条通知已读
	WsTypePing    = "ping"
)

// 错误码，客户端据此做错误分类
const (
	CodeTimeout             = "TIMEOUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeBadRequest          = "BAD_REQUEST"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// Envelope 下行消息外层
type Envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewEnvelope 序列化 data 并包装
func NewEnvelope(typ string, data any) (Envelope, error) {
	env := Envelope{Type: typ}
	if data == nil {
		return env, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return env, err
	}
	env.Data = b
	return env, nil
}

// ErrorEnvelope 构造错误帧。message 里带上 code，方便只看 message 的客户端也能分类。
func ErrorEnvelope(code, msg string) Envelope {
	return Envelope{Type: WsTypeError, Code: code, Message: code + ": " + msg}
}

// ReadAckReq 已读回执：把一条通知标记为已读。
type ReadAckReq struct {
	Type     string `json:"type"`      // read_ack
	ID       string `json:"id"`        // 通知 ID
	PacketID string `json:"packet_id"` // 可选：客户端匹配 ack
}

// ChatSendReq 频道连接上发送消息（type=chat_message）
type ChatSendReq struct {
	Type     string          `json:"type"`
	Content  string          `json:"content"`
	Extra    json.RawMessage `json:"extra,omitempty"`
	PacketID string          `json:"packet_id"`
}
