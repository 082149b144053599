package order

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
	"github.com/xiebiao/bookstore-orders/pkg/tracing"
)

// 确认来源,用于指标与日志
const (
	SourceToken   = "token"
	SourcePayment = "payment"
)

// MessageConfirmed 令牌确认成功的提示
const MessageConfirmed = "Order has been confirmed."

// errLostRace 持锁后条件更新仍未命中,说明订单已被其他事务确认
var errLostRace = errors.New("order confirmed concurrently")

// ConfirmOrderUseCase 订单确认用例(现金令牌与支付回调共用)
//
// 一个事务内完成:
//  1. SELECT ... FOR UPDATE 锁定订单行
//  2. 已确认 → 直接返回,不再动库存
//  3. 库存台账逐本扣减(available_books-1, sales_count+1)
//  4. UPDATE orders SET status='confirmed', confirmation_token=NULL WHERE id=? AND status='pending'
//
// 第4步未命中时回滚第3步。提交之后才通知店员,通知失败只记日志。
type ConfirmOrderUseCase struct {
	tx     TxManager
	orders order.Repository
	ledger book.Ledger
	sink   order.NotificationSink
}

func NewConfirmOrderUseCase(tx TxManager, orders order.Repository, ledger book.Ledger, sink order.NotificationSink) *ConfirmOrderUseCase {
	return &ConfirmOrderUseCase{tx: tx, orders: orders, ledger: ledger, sink: sink}
}

// ConfirmResult 确认结果
type ConfirmResult struct {
	OrderID          string
	AlreadyConfirmed bool // 重复确认(例如重复的支付回调),库存未变化
}

// ByToken 现金订单:店员点击确认链接
// 令牌在确认后被清空,同一令牌第二次调用返回ErrConfirmationTokenNotFound
func (uc *ConfirmOrderUseCase) ByToken(ctx context.Context, token string) (*ConfirmResult, error) {
	return uc.confirm(ctx, SourceToken, func(ctx context.Context) (*order.Order, error) {
		return uc.orders.LockByToken(ctx, token)
	})
}

// ByPayment 银行卡订单:支付回调验签通过后调用,重复回调是no-op
func (uc *ConfirmOrderUseCase) ByPayment(ctx context.Context, orderID string) (*ConfirmResult, error) {
	return uc.confirm(ctx, SourcePayment, func(ctx context.Context) (*order.Order, error) {
		return uc.orders.LockByID(ctx, orderID)
	})
}

func (uc *ConfirmOrderUseCase) confirm(ctx context.Context, source string, lock func(context.Context) (*order.Order, error)) (*ConfirmResult, error) {
	ctx, span := tracing.StartSpan(ctx, "order.confirm", trace.WithAttributes(attribute.String("confirm.source", source)))
	defer span.End()
	start := time.Now()

	var target *order.Order
	already := false
	err := uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		o, err := lock(txCtx)
		if err != nil {
			return err
		}
		target = o
		if o.IsConfirmed() {
			already = true
			return nil
		}

		if err := uc.ledger.ApplyConfirmation(txCtx, o.BookIDs()); err != nil {
			return err
		}
		changed, err := uc.orders.MarkConfirmed(txCtx, o.ID)
		if err != nil {
			return err
		}
		if !changed {
			return errLostRace
		}
		return o.Confirm()
	})
	metrics.OrderConfirmationDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, errLostRace) {
		already, err = true, nil
	}
	if err != nil {
		metrics.OrderConfirmationsTotal.WithLabelValues(source, confirmFailure(err)).Inc()
		tracing.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", target.ID), attribute.Bool("order.already_confirmed", already))
	log := logger.FromCtx(ctx).With(zap.String("order_id", target.ID), zap.String("source", source))
	if already {
		metrics.OrderConfirmationsTotal.WithLabelValues(source, "already_confirmed").Inc()
		log.Info("order already confirmed, stock untouched")
		return &ConfirmResult{OrderID: target.ID, AlreadyConfirmed: true}, nil
	}

	metrics.OrderConfirmationsTotal.WithLabelValues(source, "confirmed").Inc()
	log.Info("order confirmed", zap.Int("books", len(target.Books)))

	if err := uc.sink.Notify(ctx, order.NewNotification(order.KindConfirmed, target, "")); err != nil {
		log.Warn("confirmation notification failed", zap.Error(err))
	}
	return &ConfirmResult{OrderID: target.ID}, nil
}

// RecordUnfulfilledPayment 网关已收款但订单无法确认(缺货等业务错误)
// 订单保持pending并记录收款时间,清理任务不会删除它;店员收到通知后人工处理
func (uc *ConfirmOrderUseCase) RecordUnfulfilledPayment(ctx context.Context, orderID string, cause error) error {
	o, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := uc.orders.MarkPaymentReceived(ctx, o.ID, now); err != nil {
		return err
	}
	o.PaidAt = &now

	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID))
	log.Warn("payment received for unfulfillable order", zap.Error(cause))

	n := order.NewNotification(order.KindPaymentUnfulfilled, o, "")
	n.Reason = apperrors.GetAppError(cause).Message
	if err := uc.sink.Notify(ctx, n); err != nil {
		log.Warn("unfulfilled payment notification failed", zap.Error(err))
	}
	return nil
}

func confirmFailure(err error) string {
	switch {
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, order.ErrConfirmationTokenNotFound):
		return "not_found"
	case errors.Is(err, book.ErrInsufficientStock):
		return "out_of_stock"
	default:
		return "failed"
	}
}
