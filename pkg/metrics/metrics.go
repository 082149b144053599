// Package metrics Prometheus指标
//
// 指标在包初始化时通过promauto注册到默认Registry，
// 业务代码直接使用导出的变量，/metrics端点由Handler()暴露。
//
// 命名规范：
//   - Counter 以 _total 结尾
//   - Histogram 以单位结尾（_seconds）
//   - 标签只使用有限取值（method、route、result），不使用order_id等高基数字段
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookstore"

// =========================================
// HTTP指标
// =========================================

var (
	// HTTPRequestsTotal 标签：method、route（路由模板）、status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP请求总数",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration 桶：1ms ~ 10s
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求耗时（秒）",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_progress",
			Help:      "正在处理的HTTP请求数",
		},
	)
)

// =========================================
// 订单业务指标
// =========================================

var (
	// OrdersCreatedTotal 标签：payment_method（cash/card）
	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "订单创建总数",
		},
		[]string{"payment_method"},
	)

	// OrderConfirmationsTotal 标签：source（token/payment）、result（confirmed/already_confirmed/not_found/out_of_stock/failed）
	OrderConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_confirmations_total",
			Help:      "订单确认次数",
		},
		[]string{"source", "result"},
	)

	OrderConfirmationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_confirmation_duration_seconds",
			Help:      "订单确认事务耗时（秒）",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// PendingOrdersReapedTotal 过期未确认订单清理数
	PendingOrdersReapedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_orders_reaped_total",
			Help:      "清理的过期待确认订单数",
		},
	)

	// PaymentWebhooksTotal 标签：outcome（invalid_signature/malformed/not_successful/duplicate/unknown_order/confirmed/unfulfilled/failed）
	PaymentWebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhooks_total",
			Help:      "支付回调处理结果",
		},
		[]string{"outcome"},
	)

	// PromoEvaluationsTotal 标签：result（applied/not_found/expired/minimum_not_met/error）
	PromoEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_evaluations_total",
			Help:      "优惠码计算次数",
		},
		[]string{"result"},
	)
)

// =========================================
// 熔断器与消息队列指标
// =========================================

var (
	// CircuitBreakerState 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	// CircuitBreakerRequests 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_requests_total",
			Help:      "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_processing_duration_seconds",
			Help:      "消息处理耗时（秒）",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
)

// Handler 暴露/metrics端点
func Handler() http.Handler {
	return promhttp.Handler()
}
