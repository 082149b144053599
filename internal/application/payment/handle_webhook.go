package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apporder "github.com/xiebiao/bookstore-orders/internal/application/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/payment"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
)

// Confirmer 由apporder.ConfirmOrderUseCase实现
type Confirmer interface {
	ByPayment(ctx context.Context, orderID string) (*apporder.ConfirmResult, error)
	RecordUnfulfilledPayment(ctx context.Context, orderID string, cause error) error
}

// DeliveryGuard 回调指纹去重(redis.DeliveryGuard)
type DeliveryGuard interface {
	Claim(ctx context.Context, data, signature string) (bool, error)
	Release(ctx context.Context, data, signature string) error
}

// HandleWebhookUseCase 处理支付网关的服务端回调
//
// 1. 先验签,签名不符直接返回Handled=false,不解码data
// 2. 状态不是success(沙箱模式下也接受sandbox)时Handled=false
// 3. 指纹已存在 → 重复投递,不再进入确认流程
// 4. 确认订单;重复回调由确认事务内的状态判断兜底
// 5. 确认失败且是业务错误(如缺货)时钱已收到,记录收款并通知店员,仍返回Handled,
//    避免网关重试;只有服务端错误才返回error并释放指纹
type HandleWebhookUseCase struct {
	signer       *payment.Signer
	confirmer    Confirmer
	guard        DeliveryGuard
	allowSandbox bool
}

// NewHandleWebhookUseCase guard可以为nil
func NewHandleWebhookUseCase(merchant payment.Merchant, confirmer Confirmer, guard DeliveryGuard) *HandleWebhookUseCase {
	return &HandleWebhookUseCase{
		signer:       payment.NewSigner(merchant.PrivateKey),
		confirmer:    confirmer,
		guard:        guard,
		allowSandbox: merchant.Sandbox,
	}
}

// WebhookResult Handled=false时HTTP层重定向回首页
type WebhookResult struct {
	Handled     bool
	OrderID     string
	Duplicate   bool
	Unfulfilled bool // 已收款但订单未确认,等待人工处理
}

func (uc *HandleWebhookUseCase) Execute(ctx context.Context, data, signature string) (*WebhookResult, error) {
	log := logger.FromCtx(ctx)

	if !uc.signer.Verify(data, signature) {
		return uc.done(log, "invalid_signature", &WebhookResult{}), nil
	}

	cb, err := payment.DecodeCallback(data)
	if err != nil {
		log.Warn("malformed payment callback", zap.Error(err))
		return uc.done(log, "malformed", &WebhookResult{}), nil
	}
	log = log.With(zap.String("order_id", cb.OrderID), zap.String("status", cb.Status))

	if !cb.Succeeded(uc.allowSandbox) {
		return uc.done(log, "not_successful", &WebhookResult{OrderID: cb.OrderID}), nil
	}

	if uc.guard != nil {
		first, err := uc.guard.Claim(ctx, data, signature)
		switch {
		case err != nil:
			log.Warn("webhook fingerprint unavailable, relying on order status", zap.Error(err))
		case !first:
			return uc.done(log, "duplicate", &WebhookResult{Handled: true, OrderID: cb.OrderID, Duplicate: true}), nil
		}
	}

	res, err := uc.confirmer.ByPayment(ctx, cb.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			uc.release(ctx, log, data, signature)
			return uc.done(log, "unknown_order", &WebhookResult{OrderID: cb.OrderID}), nil
		}
		if apperrors.IsClientError(err) {
			recErr := uc.confirmer.RecordUnfulfilledPayment(ctx, cb.OrderID, err)
			if recErr == nil {
				log.Warn("payment received but order not confirmed", zap.Error(err))
				return uc.done(log, "unfulfilled", &WebhookResult{Handled: true, OrderID: cb.OrderID, Unfulfilled: true}), nil
			}
			err = recErr
		}
		uc.release(ctx, log, data, signature)
		metrics.PaymentWebhooksTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if res.AlreadyConfirmed {
		return uc.done(log, "duplicate", &WebhookResult{Handled: true, OrderID: res.OrderID, Duplicate: true}), nil
	}
	log.Info("payment received",
		zap.String("amount", cb.Amount.StringFixed(2)),
		zap.String("currency", cb.Currency),
		zap.Int64("payment_id", cb.PaymentID),
	)
	return uc.done(log, "confirmed", &WebhookResult{Handled: true, OrderID: res.OrderID}), nil
}

// release 处理失败时删除指纹,让网关的重试能再次进入确认流程
func (uc *HandleWebhookUseCase) release(ctx context.Context, log *zap.Logger, data, signature string) {
	if uc.guard == nil {
		return
	}
	if err := uc.guard.Release(ctx, data, signature); err != nil {
		log.Warn("release webhook fingerprint failed", zap.Error(err))
	}
}

func (uc *HandleWebhookUseCase) done(log *zap.Logger, outcome string, res *WebhookResult) *WebhookResult {
	metrics.PaymentWebhooksTotal.WithLabelValues(outcome).Inc()
	if !res.Handled {
		log.Info("payment callback not handled", zap.String("outcome", outcome))
	}
	return res
}
