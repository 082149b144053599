package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
)

// UpdateOrderUseCase 管理员修改收件人与配送信息
type UpdateOrderUseCase struct {
	orders order.Repository
}

func NewUpdateOrderUseCase(orders order.Repository) *UpdateOrderUseCase {
	return &UpdateOrderUseCase{orders: orders}
}

func (uc *UpdateOrderUseCase) Execute(ctx context.Context, id string, patch order.Patch) (*order.Order, error) {
	o, err := uc.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.ApplyPatch(patch)
	if err := uc.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// DeleteOrderUseCase 硬删除,与状态无关
type DeleteOrderUseCase struct {
	orders order.Repository
}

func NewDeleteOrderUseCase(orders order.Repository) *DeleteOrderUseCase {
	return &DeleteOrderUseCase{orders: orders}
}

func (uc *DeleteOrderUseCase) Execute(ctx context.Context, id string) error {
	if _, err := uc.orders.FindByID(ctx, id); err != nil {
		return err
	}
	if err := uc.orders.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("order deleted", zap.String("order_id", id))
	return nil
}

// ListOrdersUseCase 按条件查询全部匹配订单
type ListOrdersUseCase struct {
	orders order.Repository
}

func NewListOrdersUseCase(orders order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orders: orders}
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	return uc.orders.List(ctx, filter)
}

// ReapPendingUseCase 删除超过TTL仍未确认的订单
type ReapPendingUseCase struct {
	orders order.Repository
	ttl    time.Duration
	now    func() time.Time
}

func NewReapPendingUseCase(orders order.Repository, ttl time.Duration) *ReapPendingUseCase {
	return &ReapPendingUseCase{orders: orders, ttl: ttl, now: time.Now}
}

func (uc *ReapPendingUseCase) Execute(ctx context.Context) (int64, error) {
	cutoff := uc.now().Add(-uc.ttl)
	n, err := uc.orders.DeletePendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.PendingOrdersReapedTotal.Add(float64(n))
		logger.FromCtx(ctx).Info("expired pending orders deleted", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
