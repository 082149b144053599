package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/internal/domain/user"
	"github.com/xiebiao/bookstore-orders/pkg/jwt"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
)

// SessionStore 由redis.SessionStore实现
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, jti, email string, ttl time.Duration) error
	Revoke(ctx context.Context, userID uint, jti string, ttl time.Duration) error
}

// LoginUseCase 用户登录
// 1. 验证邮箱密码
// 2. 生成JWT Token对(携带角色)
// 3. 保存会话到Redis,失败不影响登录
type LoginUseCase struct {
	userService   user.Service
	jwtManager    *jwt.Manager
	sessions      SessionStore
	sessionExpire time.Duration
}

func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager, sessions SessionStore, sessionExpire time.Duration) *LoginUseCase {
	return &LoginUseCase{
		userService:   userService,
		jwtManager:    jwtManager,
		sessions:      sessions,
		sessionExpire: sessionExpire,
	}
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResponse struct {
	User         *UserInfo `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"` // Access Token有效期(秒)
}

func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	pair, err := uc.jwtManager.GenerateToken(jwt.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	})
	if err != nil {
		return nil, err
	}

	claims, err := uc.jwtManager.ParseToken(pair.AccessToken)
	if err == nil {
		if err := uc.sessions.SaveSession(ctx, u.ID, claims.ID, u.Email, uc.sessionExpire); err != nil {
			logger.FromCtx(ctx).Warn("save session failed", zap.Uint("user_id", u.ID), zap.Error(err))
		}
	}

	return &LoginResponse{
		User:         toUserInfo(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// LogoutUseCase 删除会话,access token在剩余有效期内进入黑名单
type LogoutUseCase struct {
	sessions SessionStore
	now      func() time.Time
}

func NewLogoutUseCase(sessions SessionStore) *LogoutUseCase {
	return &LogoutUseCase{sessions: sessions, now: time.Now}
}

func (uc *LogoutUseCase) Execute(ctx context.Context, claims *jwt.Claims) error {
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(uc.now())
	}
	return uc.sessions.Revoke(ctx, claims.UserID, claims.ID, ttl)
}
