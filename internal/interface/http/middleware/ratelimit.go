package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/xiebiao/bookstore-orders/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
	"github.com/xiebiao/bookstore-orders/pkg/response"
)

const (
	tierGeneral = "general"
	tierStrict  = "strict"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端IP的令牌桶限流
// 两档配额:general用于普通接口,strict用于优惠码校验、订单确认、注册登录
type RateLimiter struct {
	enabled bool
	tiers   map[string]rateTier
	ttl     time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastPrune time.Time
	now       func() time.Time
}

type rateTier struct {
	limit rate.Limit
	burst int
}

func NewRateLimiter(cfg *config.Config) *RateLimiter {
	rl := cfg.RateLimit
	ttl := rl.VisitorTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &RateLimiter{
		enabled: rl.Enabled,
		tiers: map[string]rateTier{
			tierGeneral: {limit: rate.Limit(rl.RPS), burst: rl.Burst},
			tierStrict:  {limit: rate.Limit(rl.StrictRPS), burst: rl.StrictBurst},
		},
		ttl:      ttl,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// General 普通接口限流
func (l *RateLimiter) General() gin.HandlerFunc {
	return l.handler(tierGeneral)
}

// Strict 敏感接口限流
func (l *RateLimiter) Strict() gin.HandlerFunc {
	return l.handler(tierStrict)
}

func (l *RateLimiter) handler(tier string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.enabled {
			c.Next()
			return
		}
		if !l.allow(tier+":"+c.ClientIP(), l.tiers[tier]) {
			c.Header("Retry-After", "1")
			response.Error(c, apperrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string, t rateTier) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > l.ttl {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.visitors, k)
			}
		}
		l.lastPrune = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
