// Package notify 订单通知投递
//
// RabbitSink 把通知发布到topic exchange(routing key即通知类型),
// 由cmd/notifier消费后渲染成店员消息;未启用RabbitMQ时使用LogSink。
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/pkg/circuitbreaker"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/mq"
)

// Publisher mq.Publisher的最小接口
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// RabbitSink 经熔断器发布通知
// broker不可用时熔断器打开,后续通知直接失败,不阻塞下单与确认
type RabbitSink struct {
	pub     Publisher
	breaker *circuitbreaker.Breaker
}

func NewRabbitSink(pub Publisher, breaker *circuitbreaker.Breaker) *RabbitSink {
	return &RabbitSink{pub: pub, breaker: breaker}
}

func (s *RabbitSink) Notify(ctx context.Context, n order.Notification) error {
	return s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.pub.Publish(ctx, string(n.Kind), n)
	})
}

// LogSink 只写日志
type LogSink struct{}

func NewLogSink() LogSink {
	return LogSink{}
}

func (LogSink) Notify(ctx context.Context, n order.Notification) error {
	logger.FromCtx(ctx).Info("staff notification",
		zap.String("kind", string(n.Kind)),
		zap.String("order_id", n.OrderID),
		zap.String("message", order.RenderStaffMessage(n)),
	)
	return nil
}

// StaffHandler cmd/notifier的消息处理器
// 消息体无法解析时返回mq.Permanent,消息被丢弃而不是无限重投
func StaffHandler(deliver order.NotificationSink) mq.Handler {
	return func(ctx context.Context, d mq.Delivery) error {
		var n order.Notification
		if err := json.Unmarshal(d.Body, &n); err != nil {
			return mq.Permanent(fmt.Errorf("decode notification %s: %w", d.MessageID, err))
		}
		if n.Kind == "" {
			n.Kind = order.Kind(d.RoutingKey)
		}
		return deliver.Notify(ctx, n)
	}
}
