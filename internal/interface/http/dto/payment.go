package dto

// WebhookRequest 支付网关回调,支持JSON与表单两种编码
type WebhookRequest struct {
	Data      string `json:"data" form:"data"`
	Signature string `json:"signature" form:"signature"`
}

// PaymentFormQuery amount可省略,省略时使用订单金额
type PaymentFormQuery struct {
	Amount string `form:"amount" binding:"omitempty,numeric"`
}
