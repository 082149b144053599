package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/pkg/logger"
)

const reaperLockKey = "housekeeping:pending-orders"

// Locker 由redis.Locker实现,保证多实例部署时只有一个实例执行清理
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error)
}

// Reaper 由application/order.ReapPendingUseCase实现
type Reaper interface {
	Execute(ctx context.Context) (int64, error)
}

// PendingOrderReaper 定时删除超时未确认的订单
type PendingOrderReaper struct {
	reaper   Reaper
	locker   Locker
	interval time.Duration
	lockTTL  time.Duration
}

func NewPendingOrderReaper(reaper Reaper, locker Locker, interval, lockTTL time.Duration) *PendingOrderReaper {
	if interval <= 0 {
		interval = time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = interval / 2
	}
	return &PendingOrderReaper{reaper: reaper, locker: locker, interval: interval, lockTTL: lockTTL}
}

// Run 阻塞直到ctx取消,启动时先执行一次
func (w *PendingOrderReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.L().Info("pending order reaper started", zap.Duration("interval", w.interval))
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.L().Info("pending order reaper stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce 抢到锁才执行;返回是否执行了清理
func (w *PendingOrderReaper) RunOnce(ctx context.Context) bool {
	log := logger.FromCtx(ctx)

	unlock, ok, err := w.locker.TryLock(ctx, reaperLockKey, w.lockTTL)
	if err != nil {
		log.Warn("reaper lock failed", zap.Error(err))
		return false
	}
	if !ok {
		log.Debug("reaper lock held by another instance")
		return false
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warn("reaper unlock failed", zap.Error(err))
		}
	}()

	if _, err := w.reaper.Execute(ctx); err != nil {
		log.Error("reap pending orders failed", zap.Error(err))
	}
	return true
}
