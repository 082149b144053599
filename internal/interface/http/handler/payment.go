package handler

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"

	apppayment "github.com/xiebiao/bookstore-orders/internal/application/payment"
	"github.com/xiebiao/bookstore-orders/internal/domain/payment"
	"github.com/xiebiao/bookstore-orders/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/response"
)

//go:embed templates/payment_form.html
var templatesFS embed.FS

var paymentFormTemplate = template.Must(template.ParseFS(templatesFS, "templates/payment_form.html"))

type paymentFormBuilder interface {
	Execute(ctx context.Context, orderID string, amount decimal.NullDecimal) (*payment.Form, error)
}

type webhookHandler interface {
	Execute(ctx context.Context, data, signature string) (*apppayment.WebhookResult, error)
}

// PaymentHandler 支付表单与支付网关回调
type PaymentHandler struct {
	form    paymentFormBuilder
	webhook webhookHandler
	homeURL string
}

func NewPaymentHandler(form *apppayment.PaymentFormUseCase, webhook *apppayment.HandleWebhookUseCase, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{form: form, webhook: webhook, homeURL: cfg.Storefront.HomeURL}
}

// PaymentForm 返回自动提交到支付网关的HTML表单
// @Summary      获取支付表单
// @Tags         支付
// @Produce      html
// @Param        orderId path string true "订单ID"
// @Param        amount query number false "支付金额,必须与订单金额一致"
// @Success      200 {string} string "HTML表单"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /payments/pay/{orderId} [get]
func (h *PaymentHandler) PaymentForm(c *gin.Context) {
	var q dto.PaymentFormQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, err)
		return
	}

	form, err := h.form.Execute(c.Request.Context(), c.Param("orderId"), dto.ParseNullDecimal(q.Amount))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Render(http.StatusOK, render.HTML{Template: paymentFormTemplate, Name: "payment_form.html", Data: form})
}

// Webhook 支付网关回调
// 签名不匹配或支付未成功时重定向到首页;内部错误返回500,由网关重试
// @Summary      支付回调
// @Tags         支付
// @Accept       json,x-www-form-urlencoded
// @Param        request body dto.WebhookRequest true "data与signature"
// @Success      200
// @Success      302
// @Router       /payments/handle-webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBind(&req); err != nil || req.Data == "" || req.Signature == "" {
		logger.FromCtx(c.Request.Context()).Warn("payment webhook without data or signature")
		c.Redirect(http.StatusFound, h.homeURL)
		return
	}

	result, err := h.webhook.Execute(c.Request.Context(), req.Data, req.Signature)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Handled {
		c.Redirect(http.StatusFound, h.homeURL)
		return
	}
	c.Status(http.StatusOK)
}
