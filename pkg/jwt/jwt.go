// Package jwt 访问令牌签发与校验
//
// 设计说明：
// 1. HS256签名，Access/Refresh两种令牌通过TokenType区分，Refresh令牌不能当Access使用
// 2. 每个令牌带唯一ID（jti），登出时把jti写入Redis黑名单
// 3. Role写入Claims，管理员接口据此鉴权，不再查库
package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

const issuer = "bookstore-orders"

// TokenType 令牌类型
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Identity 令牌携带的用户身份
type Identity struct {
	UserID   uint
	Email    string
	Nickname string
	Role     string
}

// Claims JWT载荷
type Claims struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Identity 从Claims还原身份
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Nickname: c.Nickname, Role: c.Role}
}

// TokenPair 登录返回的令牌对
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Manager 令牌管理器
type Manager struct {
	secret        []byte
	accessExpire  time.Duration
	refreshExpire time.Duration
	now           func() time.Time
}

// NewManager 创建令牌管理器
func NewManager(secret string, accessExpire, refreshExpire time.Duration) *Manager {
	return &Manager{
		secret:        []byte(secret),
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
		now:           time.Now,
	}
}

// GenerateToken 签发Access+Refresh令牌对
func (m *Manager) GenerateToken(id Identity) (*TokenPair, error) {
	access, err := m.sign(id, AccessToken, m.accessExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to issue access token")
	}

	// Refresh令牌只保留UserID，刷新时由Access令牌的身份信息重建
	refresh, err := m.sign(Identity{UserID: id.UserID, Role: id.Role}, RefreshToken, m.refreshExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to issue refresh token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessExpire.Seconds()),
	}, nil
}

// ParseToken 校验Access令牌
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, AccessToken)
}

// RefreshAccessToken 用Refresh令牌换新的Access令牌
func (m *Manager) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := m.parse(refreshToken, RefreshToken)
	if err != nil {
		return "", err
	}
	token, err := m.sign(claims.Identity(), AccessToken, m.accessExpire)
	if err != nil {
		return "", apperrors.Wrap(err, "Failed to refresh token")
	}
	return token, nil
}

func (m *Manager) sign(id Identity, typ TokenType, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:    id.UserID,
		Email:     id.Email,
		Nickname:  id.Nickname,
		Role:      id.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}
	if !token.Valid || claims.TokenType != want {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
