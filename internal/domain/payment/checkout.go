package payment

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	APIVersion         = 3
	ActionPay          = "pay"
	DefaultDescription = "Payment"
	DefaultCheckoutURL = "https://www.liqpay.ua/api/3/checkout"
)

// 回调状态
const (
	StatusSuccess = "success"
	StatusSandbox = "sandbox" // 沙箱模式下的成功支付
)

// Merchant 商户配置
type Merchant struct {
	PublicKey   string
	PrivateKey  string
	Currency    string
	ServerURL   string // 支付回调地址
	ResultURL   string // 支付完成后浏览器跳转地址
	CheckoutURL string
	Sandbox     bool
}

// Checkout 支付请求载荷
type Checkout struct {
	Version     int         `json:"version"`
	PublicKey   string      `json:"public_key"`
	Action      string      `json:"action"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Description string      `json:"description"`
	OrderID     string      `json:"order_id"`
	ServerURL   string      `json:"server_url,omitempty"`
	ResultURL   string      `json:"result_url,omitempty"`
	Sandbox     int         `json:"sandbox,omitempty"`
}

// NewCheckout 构造订单的支付请求
func NewCheckout(m Merchant, orderID string, amount decimal.Decimal) Checkout {
	c := Checkout{
		Version:     APIVersion,
		PublicKey:   m.PublicKey,
		Action:      ActionPay,
		Amount:      json.Number(amount.StringFixed(2)),
		Currency:    m.Currency,
		Description: DefaultDescription,
		OrderID:     orderID,
		ServerURL:   m.ServerURL,
		ResultURL:   m.ResultURL,
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if m.Sandbox {
		c.Sandbox = 1
	}
	return c
}

// EncodeCheckout base64(JSON)
func EncodeCheckout(c Checkout) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode checkout: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Form 渲染自动提交表单所需的字段
type Form struct {
	Action    string
	Data      string
	Signature string
}

// BuildForm 编码并签名支付请求
func BuildForm(m Merchant, c Checkout) (*Form, error) {
	data, err := EncodeCheckout(c)
	if err != nil {
		return nil, err
	}
	action := m.CheckoutURL
	if action == "" {
		action = DefaultCheckoutURL
	}
	return &Form{
		Action:    action,
		Data:      data,
		Signature: NewSigner(m.PrivateKey).Sign(data),
	}, nil
}

// Callback 支付回调中我们关心的字段
type Callback struct {
	OrderID       string
	Status        string
	Amount        decimal.Decimal
	Currency      string
	PaymentID     int64
	TransactionID int64
	ErrCode       string
}

type callbackWire struct {
	OrderID       string      `json:"order_id"`
	Status        string      `json:"status"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	PaymentID     int64       `json:"payment_id"`
	TransactionID int64       `json:"transaction_id"`
	ErrCode       string      `json:"err_code"`
}

// DecodeCallback 解码回调data字段,调用前必须已验签
func DecodeCallback(data string) (*Callback, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, ErrMalformedCallback.WithMessage("Callback data is not valid base64")
	}

	var w callbackWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, ErrMalformedCallback.WithMessage("Callback data is not valid JSON")
	}
	if w.OrderID == "" {
		return nil, ErrMalformedCallback.WithMessage("Callback has no order_id")
	}

	cb := &Callback{
		OrderID:       w.OrderID,
		Status:        w.Status,
		Currency:      w.Currency,
		PaymentID:     w.PaymentID,
		TransactionID: w.TransactionID,
		ErrCode:       w.ErrCode,
	}
	if w.Amount != "" {
		if cb.Amount, err = decimal.NewFromString(w.Amount.String()); err != nil {
			return nil, ErrMalformedCallback.WithMessage("Callback amount is not a number")
		}
	}
	return cb, nil
}

// Succeeded 支付是否成功,allowSandbox时沙箱状态也算成功
func (c *Callback) Succeeded(allowSandbox bool) bool {
	return c.Status == StatusSuccess || (allowSandbox && c.Status == StatusSandbox)
}
