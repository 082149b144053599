// Package mq RabbitMQ消息发布与消费
//
// 订单事件（order.placed / order.confirmed）通过topic exchange发布，
// cmd/notifier 订阅后投递给店员与客户。
//
// 设计说明：
// 1. 消息持久化（DeliveryMode=Persistent），exchange与queue均为durable
// 2. 消费端手动ACK，Qos(prefetch=1)
// 3. 处理失败默认重新入队；返回ErrPermanent包装的错误则丢弃，避免毒消息无限重试
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
)

// ErrPermanent 处理器用它包装不可重试的错误（如消息体无法解析）
var ErrPermanent = errors.New("permanent failure")

// Permanent 把err标记为不可重试
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Config 连接配置
type Config struct {
	URL          string
	Exchange     string
	ExchangeType string
}

// Delivery 交给处理器的消息
type Delivery struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	Timestamp  time.Time
}

// Handler 消息处理函数
type Handler func(ctx context.Context, d Delivery) error

// =========================================
// 发布者
// =========================================

// Publisher 消息发布者
// amqp.Channel不是并发安全的，发布时加锁
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher 连接RabbitMQ并声明exchange
func NewPublisher(cfg Config) (*Publisher, error) {
	conn, channel, err := open(cfg)
	if err != nil {
		return nil, err
	}

	logger.L().Info("message publisher ready",
		zap.String("exchange", cfg.Exchange),
		zap.String("type", cfg.ExchangeType),
	)
	return &Publisher{conn: conn, channel: channel, exchange: cfg.Exchange}, nil
}

// Publish 以JSON发布消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()

	if err != nil {
		metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey, "error").Inc()
		return fmt.Errorf("发布消息失败: %w", err)
	}

	metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey, "ok").Inc()
	logger.FromCtx(ctx).Debug("message published",
		zap.String("routing_key", routingKey),
		zap.String("message_id", msg.MessageId),
	)
	return nil
}

// Close 关闭连接
func (p *Publisher) Close() error {
	return closeAll(p.channel, p.conn)
}

// =========================================
// 消费者
// =========================================

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer 声明durable queue并按routingKeys绑定到exchange
func NewConsumer(cfg Config, queue string, routingKeys []string) (*Consumer, error) {
	conn, channel, err := open(cfg)
	if err != nil {
		return nil, err
	}

	q, err := channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	logger.L().Info("message consumer ready",
		zap.String("queue", q.Name),
		zap.Strings("routing_keys", routingKeys),
	)
	return &Consumer{conn: conn, channel: channel, queue: q.Name}, nil
}

// Consume 阻塞消费，直到ctx取消（返回nil）或连接断开（返回错误）
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	log := logger.L().With(zap.String("queue", c.queue))
	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("消息Channel已关闭")
			}
			c.dispatch(ctx, log, msg, handler)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, log *zap.Logger, msg amqp.Delivery, handler Handler) {
	start := time.Now()
	err := handler(ctx, Delivery{
		MessageID:  msg.MessageId,
		RoutingKey: msg.RoutingKey,
		Body:       msg.Body,
		Timestamp:  msg.Timestamp,
	})
	metrics.MessageProcessingDuration.Observe(time.Since(start).Seconds())

	action := Disposition(err)
	metrics.MessagesConsumedTotal.WithLabelValues(c.queue, action.String()).Inc()

	switch action {
	case Ack:
		_ = msg.Ack(false)
	case Requeue:
		log.Warn("message handling failed, requeued",
			zap.String("message_id", msg.MessageId), zap.Error(err))
		_ = msg.Nack(false, true)
	case Drop:
		log.Error("message dropped",
			zap.String("message_id", msg.MessageId), zap.Error(err))
		_ = msg.Nack(false, false)
	}
}

// Close 关闭连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}

// Action 消息确认方式
type Action int

const (
	Ack Action = iota
	Requeue
	Drop
)

func (a Action) String() string {
	switch a {
	case Ack:
		return "ack"
	case Requeue:
		return "requeue"
	default:
		return "drop"
	}
}

// Disposition 根据处理结果决定确认方式
func Disposition(err error) Action {
	switch {
	case err == nil:
		return Ack
	case errors.Is(err, ErrPermanent):
		return Drop
	default:
		return Requeue
	}
}

func open(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := channel.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
		_ = closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	var errs []error
	if channel != nil {
		errs = append(errs, channel.Close())
	}
	if conn != nil {
		errs = append(errs, conn.Close())
	}
	return errors.Join(errs...)
}
