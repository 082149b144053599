package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind 通知类型,同时作为消息的routing key
type Kind string

const (
	KindPlaced    Kind = "order.placed"    // 现金订单已创建,等待店员确认
	KindConfirmed Kind = "order.confirmed" // 订单已确认(令牌或支付回调)

	KindPaymentUnfulfilled Kind = "order.payment_unfulfilled" // 已收款但无法确认,需人工处理
)

// Notification 发给店员的订单通知
type Notification struct {
	Kind          Kind            `json:"kind"`
	OrderID       string          `json:"orderId"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	TotalSum      decimal.Decimal `json:"totalSum"`
	Quantity      int             `json:"quantity"`
	Recipient     Recipient       `json:"recipient"`
	Books         []OrderedBook   `json:"books"`
	ConfirmLink   string          `json:"confirmLink,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// NewNotification 从订单生成通知,confirmLink只对待确认的现金订单有意义
func NewNotification(kind Kind, o *Order, confirmLink string) Notification {
	return Notification{
		Kind:          kind,
		OrderID:       o.ID,
		PaymentMethod: o.PaymentMethod,
		TotalSum:      o.TotalSum,
		Quantity:      o.Quantity,
		Recipient:     o.Recipient,
		Books:         o.Books,
		ConfirmLink:   confirmLink,
		OccurredAt:    time.Now(),
	}
}

// NotificationSink 通知投递端口
// 投递是尽力而为的:订单状态已提交后,投递失败只记录日志,不回滚
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// ConfirmLink 拼接店面确认链接: <clientURL>confirm/<token>
func ConfirmLink(clientURL, token string) string {
	if clientURL != "" && !strings.HasSuffix(clientURL, "/") {
		clientURL += "/"
	}
	return clientURL + "confirm/" + token
}

// RenderStaffMessage 渲染发给店员的纯文本消息
func RenderStaffMessage(n Notification) string {
	var sb strings.Builder
	sb.WriteString("-----------------------------------------\n")
	fmt.Fprintf(&sb, "Order: %s\n", n.OrderID)
	fmt.Fprintf(&sb, "Name: %s\n", n.Recipient.Name)
	fmt.Fprintf(&sb, "Last name: %s\n", n.Recipient.LastName)
	fmt.Fprintf(&sb, "Phone number: %s\n", n.Recipient.Phone)
	fmt.Fprintf(&sb, "Email: %s\n", n.Recipient.Email)
	fmt.Fprintf(&sb, "City: %s\n", n.Recipient.City)
	fmt.Fprintf(&sb, "Payment method: %s\n", n.PaymentMethod)
	fmt.Fprintf(&sb, "Total sum: %s\n", n.TotalSum.StringFixed(2))
	fmt.Fprintf(&sb, "Delivery method: %s\n", n.Recipient.DeliveryMethod)
	fmt.Fprintf(&sb, "Branch address: %s\n", n.Recipient.BranchAddress)
	fmt.Fprintf(&sb, "Total amount: %d\n", n.Quantity)
	sb.WriteString("Books:\n")
	for _, b := range n.Books {
		sb.WriteString("-----------------------\n")
		fmt.Fprintf(&sb, "name:%s\n", b.Title)
		fmt.Fprintf(&sb, "price:%s\n", b.Price.StringFixed(2))
		fmt.Fprintf(&sb, "discounted price:%s\n", b.DiscountedPrice.StringFixed(2))
		fmt.Fprintf(&sb, "genre:%s\n", b.Genre)
	}
	sb.WriteString("-----------------------\n")

	switch {
	case n.Kind == KindPaymentUnfulfilled:
		sb.WriteString("Payment received but the order could not be confirmed")
		if n.Reason != "" {
			sb.WriteString(": " + n.Reason)
		}
		sb.WriteString(". Contact the customer.")
	case n.Kind == KindConfirmed || n.PaymentMethod == PaymentCard:
		sb.WriteString("Order has been confirmed")
	default:
		sb.WriteString("link to confirm order:" + n.ConfirmLink)
	}
	return sb.String()
}
