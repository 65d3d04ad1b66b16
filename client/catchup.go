package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cydxin/notify-sdk/message"
)

// CatchUp 重连后拉取错过的未读通知
type CatchUp interface {
	Unread(ctx context.Context) ([]message.Notification, error)
}

// HTTPCatchUp 调用 GET {BaseURL}/notification/unread
type HTTPCatchUp struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPCatchUp(baseURL, token string) *HTTPCatchUp {
	return &HTTPCatchUp{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Code int                    `json:"code"`
	Msg  string                 `json:"msg"`
	Data []message.Notification `json:"data"`
}

func (h *HTTPCatchUp) Unread(ctx context.Context) ([]message.Notification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/notification/unread", nil)
	if err != nil {
		return nil, err
	}
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}
	hc := h.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &TransportError{Code: message.CodeUnauthorized, Message: message.CodeUnauthorized + ": " + resp.Status}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catch-up: unexpected status %s", resp.Status)
	}
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catch-up: decode: %w", err)
	}
	if body.Code != 0 {
		return nil, fmt.Errorf("catch-up: code %d: %s", body.Code, body.Msg)
	}
	return body.Data, nil
}
