package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
)

const promoKeyPrefix = "promo:active:"

// cachedPromoRepository 优惠码读缓存(装饰器)
// 1. 只缓存FindActiveByCode,校验优惠码是高频公开接口
// 2. 写操作先落库再删缓存,旧code和新code都删
// 3. Redis故障时降级为直接查库
type cachedPromoRepository struct {
	promo.Repository
	client *redis.Client
	ttl    time.Duration
}

func NewCachedPromoRepository(inner promo.Repository, client *redis.Client, ttl time.Duration) promo.Repository {
	if ttl <= 0 {
		return inner
	}
	return &cachedPromoRepository{Repository: inner, client: client, ttl: ttl}
}

func (r *cachedPromoRepository) FindActiveByCode(ctx context.Context, code string) (*promo.PromoCode, error) {
	key := promoKeyPrefix + code
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p promo.PromoCode
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return &p, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.FromCtx(ctx).Warn("promo cache read failed", zap.String("code", code), zap.Error(err))
	}

	p, err := r.Repository.FindActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if data, jsonErr := json.Marshal(p); jsonErr == nil {
		if setErr := r.client.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			logger.FromCtx(ctx).Warn("promo cache write failed", zap.String("code", code), zap.Error(setErr))
		}
	}
	return p, nil
}

func (r *cachedPromoRepository) Update(ctx context.Context, p *promo.PromoCode) error {
	old, err := r.Repository.FindByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := r.Repository.Update(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx, old.Code, p.Code)
	return nil
}

func (r *cachedPromoRepository) Delete(ctx context.Context, id uint) error {
	old, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.Repository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, old.Code)
	return nil
}

func (r *cachedPromoRepository) invalidate(ctx context.Context, codes ...string) {
	keys := make([]string, 0, len(codes))
	for _, c := range codes {
		keys = append(keys, promoKeyPrefix+c)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logger.FromCtx(ctx).Warn("promo cache invalidation failed", zap.Strings("codes", codes), zap.Error(err))
	}
}
