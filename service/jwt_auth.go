package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultJWTIssuer = "notify-sdk"

// JWTClaims token 载荷
type JWTClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// JWTAuthenticator 无状态鉴权（HS256），不依赖 redis。
type JWTAuthenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTAuthenticator(secret, issuer string, ttl time.Duration) *JWTAuthenticator {
	if issuer == "" {
		issuer = defaultJWTIssuer
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTAuthenticator{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Generate 签发 token
func (a *JWTAuthenticator) Generate(userID string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Authenticate 校验签名、过期时间和签发方
func (a *JWTAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("missing token")
	}
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
	)
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if claims.UserID == "" {
		return "", errors.New("token has no user id")
	}
	return claims.UserID, nil
}
