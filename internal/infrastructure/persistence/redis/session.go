package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// SessionStore 登录会话与JWT黑名单
// Key设计:
//   - session:{user_id}  hash{jti, email, login_at},过期时间与Refresh Token一致
//   - blacklist:{jti}    登出后的access token,过期时间为token剩余有效期
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// SaveSession 登录成功后记录会话
func (s *SessionStore) SaveSession(ctx context.Context, userID uint, jti, email string, ttl time.Duration) error {
	key := sessionKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"jti":      jti,
		"email":    email,
		"login_at": time.Now().UTC().Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "保存会话失败")
	}
	return nil
}

// GetSession 会话不存在时返回ErrUnauthorized
func (s *SessionStore) GetSession(ctx context.Context, userID uint) (map[string]string, error) {
	result, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "获取会话失败")
	}
	if len(result) == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	return result, nil
}

// Revoke 登出:删除会话并把jti加入黑名单
func (s *SessionStore) Revoke(ctx context.Context, userID uint, jti string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(userID))
	if ttl > 0 {
		pipe.Set(ctx, blacklistKey(jti), "revoked", ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "注销会话失败")
	}
	return nil
}

// IsRevoked 检查jti是否在黑名单中
func (s *SessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "检查黑名单失败")
	}
	return n > 0, nil
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("session:%d", userID)
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}
