package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

const deliveryKeyPrefix = "payment:webhook:"

// DeliveryGuard 支付回调去重
// 以 data+signature 的SHA-256作为指纹,SET NX 抢占。
// 只是快速路径,订单确认本身仍依赖行锁+状态判断保证幂等。
type DeliveryGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeliveryGuard(client *redis.Client, ttl time.Duration) *DeliveryGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DeliveryGuard{client: client, ttl: ttl}
}

// Claim 第一次出现返回true
func (g *DeliveryGuard) Claim(ctx context.Context, data, signature string) (bool, error) {
	ok, err := g.client.SetNX(ctx, deliveryKey(data, signature), 1, g.ttl).Result()
	if err != nil {
		return false, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "记录回调指纹失败")
	}
	return ok, nil
}

// Release 处理失败时释放指纹,允许网关重试
func (g *DeliveryGuard) Release(ctx context.Context, data, signature string) error {
	if err := g.client.Del(ctx, deliveryKey(data, signature)).Err(); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "释放回调指纹失败")
	}
	return nil
}

func deliveryKey(data, signature string) string {
	sum := sha256.Sum256([]byte(data + "." + signature))
	return deliveryKeyPrefix + hex.EncodeToString(sum[:])
}
