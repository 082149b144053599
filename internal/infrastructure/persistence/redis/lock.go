package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Locker 基于 SET NX PX 的单实例分布式锁
type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// TryLock 获取成功时返回释放函数;锁被占用时返回ok=false
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		return nil, false, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "获取锁失败")
	}
	if !ok {
		return nil, false, nil
	}

	unlock = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{"lock:" + key}, token).Err(); err != nil {
			return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "释放锁失败")
		}
		return nil
	}
	return unlock, true, nil
}
