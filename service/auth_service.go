package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Authenticator 把 token 解析成 userID。中间件和 ws 只依赖这个接口。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthService 基于 redis token 的鉴权核心能力，供调用方自建中间件/拦截器使用。
// Gin 中间件见 middleware 包。
type AuthService struct {
	token *TokenService
}

func NewAuthService(rdb *redis.Client) *AuthService {
	return &AuthService{token: NewTokenService(rdb)}
}

// ExtractToken 从 HTTP 请求中提取 token：优先 Authorization: Bearer，其次 query: token。
func ExtractToken(r *http.Request) string {
	if r == nil {
		return ""
	}

	// Authorization: Bearer <token>
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah != "" {
		parts := strings.SplitN(ah, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// query: ?token=xxx
	if r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// ExtractToken 同包级 ExtractToken
func (a *AuthService) ExtractToken(r *http.Request) string {
	return ExtractToken(r)
}

// Authenticate 根据 token 获取 userID。
func (a *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("missing token")
	}
	return a.token.GetUserIDByToken(ctx, token)
}

// Login 为用户签发 token（用户身份由调用方校验）
func (a *AuthService) Login(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", &ValidationError{Field: "userId", Msg: "user id is required"}
	}
	return a.token.IssueToken(ctx, userID, ttl)
}

// RevokeToken 注销单个 token。
func (a *AuthService) RevokeToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return a.token.RevokeToken(ctx, token)
}

// RevokeAllTokensByUser 注销用户全部 token。
func (a *AuthService) RevokeAllTokensByUser(ctx context.Context, userID string) error {
	return a.token.RevokeAllTokensByUser(ctx, userID)
}

// RefreshTokenTTL 对 token 续期（滑动过期）。
func (a *AuthService) RefreshTokenTTL(ctx context.Context, token string, ttl time.Duration) error {
	return a.token.RefreshTokenTTL(ctx, token, ttl)
}
