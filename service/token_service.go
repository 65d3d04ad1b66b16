package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/blake2b"
)

const (
	// 默认 token 过期时间
	defaultTokenTTL = 7 * 24 * time.Hour
)

// ErrTokenInvalid token 不存在或已过期
var ErrTokenInvalid = errors.New("token invalid or expired")

// TokenService 负责 token 的生成、存储、校验与注销。
// Redis Key 设计（token 不直接落 key，只存 blake2b 摘要）：
// - nt:token:{digest} -> userID (String, TTL)
// - nt:user_tokens:{userID} -> Set(digest1, digest2, ...)
type TokenService struct {
	rdb *redis.Client
}

func NewTokenService(rdb *redis.Client) *TokenService {
	return &TokenService{rdb: rdb}
}

func (s *TokenService) ensure() error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	return nil
}

func digest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokenKey(d string) string {
	return "nt:token:" + d
}

func userTokensKey(userID string) string {
	return "nt:user_tokens:" + userID
}

// GenerateToken 生成一个随机 token（不包含任何用户信息）。
func (s *TokenService) GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// StoreToken 保存 token -> userID 映射，并把 token 加入 user 的 token 集合。
func (s *TokenService) StoreToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.ensure(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	d := digest(token)

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, tokenKey(d), userID, ttl)
	pipe.SAdd(ctx, userTokensKey(userID), d)
	// user token set 的 TTL 略大于 token TTL，方便自动清理
	pipe.Expire(ctx, userTokensKey(userID), ttl+24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// IssueToken 生成并保存 token
func (s *TokenService) IssueToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token, err := s.GenerateToken()
	if err != nil {
		return "", err
	}
	if err := s.StoreToken(ctx, token, userID, ttl); err != nil {
		return "", err
	}
	return token, nil
}

// GetUserIDByToken 根据 token 取 userID。
func (s *TokenService) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	if err := s.ensure(); err != nil {
		return "", err
	}
	val, err := s.rdb.Get(ctx, tokenKey(digest(token))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenInvalid
		}
		return "", err
	}
	return val, nil
}

// RefreshTokenTTL 对 token 续期（同时延长 user token set TTL）。
func (s *TokenService) RefreshTokenTTL(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.ensure(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	uid, err := s.GetUserIDByToken(ctx, token)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Expire(ctx, tokenKey(digest(token)), ttl)
	pipe.Expire(ctx, userTokensKey(uid), ttl+24*time.Hour)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeToken 注销单个 token（同时从用户集合移除）。
func (s *TokenService) RevokeToken(ctx context.Context, token string) error {
	if err := s.ensure(); err != nil {
		return err
	}
	d := digest(token)
	uid, err := s.rdb.Get(ctx, tokenKey(d)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, tokenKey(d))
	if uid != "" {
		pipe.SRem(ctx, userTokensKey(uid), d)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAllTokensByUser 注销用户全部 token。
func (s *TokenService) RevokeAllTokensByUser(ctx context.Context, userID string) error {
	if err := s.ensure(); err != nil {
		return err
	}
	digests, err := s.rdb.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, d := range digests {
		pipe.Del(ctx, tokenKey(d))
	}
	pipe.Del(ctx, userTokensKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
