package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cydxin/notify-sdk/message"
)

const (
	writeWait = 10 * time.Second
	// 服务端每 54s ping 一次，超过这个时间没有任何消息视为超时
	defaultReadTimeout = 60 * time.Second
)

// Transport 建立订阅连接
type Transport interface {
	Dial(ctx context.Context) (Stream, error)
}

// Stream 一条订阅连接
type Stream interface {
	// Recv 阻塞读取下一条下行消息
	Recv() (message.Envelope, error)
	// Send 发送上行消息（例如 read_ack）
	Send(v any) error
	Close() error
}

// WebsocketTransport gorilla websocket 实现。token 通过 query 传递（浏览器 ws 不能带 header）。
type WebsocketTransport struct {
	URL         string
	Token       string
	Dialer      *websocket.Dialer
	Header      http.Header
	ReadTimeout time.Duration
}

func NewWebsocketTransport(rawURL, token string) *WebsocketTransport {
	return &WebsocketTransport{URL: rawURL, Token: token, Dialer: websocket.DefaultDialer}
}

func (t *WebsocketTransport) Dial(ctx context.Context) (Stream, error) {
	u, err := url.Parse(t.URL)
	if err != nil {
		return nil, err
	}
	if t.Token != "" {
		q := u.Query()
		q.Set("token", t.Token)
		u.RawQuery = q.Encode()
	}
	d := t.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}

	conn, resp, err := d.DialContext(ctx, u.String(), t.Header)
	if err != nil {
		if resp != nil {
			return nil, handshakeError(resp, err)
		}
		return nil, err
	}

	timeout := t.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	s := &wsStream{conn: conn, timeout: timeout}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	return s, nil
}

func handshakeError(resp *http.Response, err error) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &TransportError{Code: message.CodeUnauthorized, Message: message.CodeUnauthorized + ": " + resp.Status}
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return &TransportError{Code: message.CodeTimeout, Message: message.CodeTimeout + ": " + resp.Status}
	}
	if resp.StatusCode >= 500 {
		return &TransportError{Code: message.CodeInternalServerError, Message: resp.Status}
	}
	return &TransportError{Code: fmt.Sprintf("HTTP_%d", resp.StatusCode), Message: err.Error()}
}

type wsStream struct {
	conn    *websocket.Conn
	timeout time.Duration
	wmu     sync.Mutex
}

func (s *wsStream) Recv() (message.Envelope, error) {
	var env message.Envelope
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return env, err
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(s.timeout))
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode frame: %w", err)
	}
	return env, nil
}

func (s *wsStream) Send(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *wsStream) Close() error {
	s.wmu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	s.wmu.Unlock()
	return s.conn.Close()
}
