package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookstore-orders/internal/application/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-orders/pkg/response"
)

const messageOrderDeleted = "Order has been deleted."

type orderCreator interface {
	Execute(ctx context.Context, req apporder.CreateOrderRequest) (*apporder.CreateOrderResponse, error)
}

type tokenConfirmer interface {
	ByToken(ctx context.Context, token string) (*apporder.ConfirmResult, error)
}

type orderUpdater interface {
	Execute(ctx context.Context, id string, patch order.Patch) (*order.Order, error)
}

type orderDeleter interface {
	Execute(ctx context.Context, id string) error
}

type orderLister interface {
	Execute(ctx context.Context, filter order.Filter) ([]*order.Order, error)
}

// OrderHandler 订单HTTP处理器
// Handler只负责解析请求、调用应用层、返回响应
type OrderHandler struct {
	create  orderCreator
	confirm tokenConfirmer
	update  orderUpdater
	delete  orderDeleter
	list    orderLister
}

func NewOrderHandler(
	create *apporder.CreateOrderUseCase,
	confirm *apporder.ConfirmOrderUseCase,
	update *apporder.UpdateOrderUseCase,
	del *apporder.DeleteOrderUseCase,
	list *apporder.ListOrdersUseCase,
) *OrderHandler {
	return &OrderHandler{create: create, confirm: confirm, update: update, delete: del, list: list}
}

// Checkout 下单
// @Summary      下单
// @Description  匿名或登录用户下单。现金订单返回受理提示并通知店员;银行卡订单返回orderId,随后获取支付表单
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateOrderRequest true "收件人、图书与支付方式"
// @Success      201 {object} response.Response{data=apporder.CreateOrderResponse}
// @Failure      400 {object} response.Response "参数错误或优惠码不可用"
// @Failure      404 {object} response.Response "用户或优惠码不存在"
// @Router       /orders/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	var userID *uint
	if id := middleware.GetUserID(c); id != 0 {
		userID = &id
	}

	result, err := h.create.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		UserID:        userID,
		BookIDs:       req.Books,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		PromoCode:     req.PromoCode,
		Recipient:     req.Recipient(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Confirm 店员通过确认链接确认现金订单
// @Summary      确认订单
// @Tags         订单
// @Produce      json
// @Param        token path string true "确认令牌"
// @Success      200 {object} response.Response "Order has been confirmed."
// @Failure      404 {object} response.Response "令牌不存在或已使用"
// @Failure      400 {object} response.Response "库存不足"
// @Router       /orders/confirm/{token} [post]
func (h *OrderHandler) Confirm(c *gin.Context) {
	result, err := h.confirm.ByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, apporder.MessageConfirmed, gin.H{"orderId": result.OrderID})
}

// Update 修改收件人与配送信息
// @Summary      修改订单
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Param        request body dto.UpdateOrderRequest true "修改字段"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	o, err := h.update.Execute(c.Request.Context(), c.Param("id"), req.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(o))
}

// Delete 硬删除订单
// @Summary      删除订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.delete.Execute(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, messageOrderDeleted, nil)
}

// List 订单列表,按创建时间倒序,不分页
// @Summary      订单列表
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "pending | confirmed"
// @Param        paymentMethod query string false "cash | card"
// @Param        city query string false "城市"
// @Param        username query string false "收件人名"
// @Param        createdAt query string false "创建日期 YYYY-MM-DD"
// @Success      200 {object} response.Response{data=[]dto.OrderResponse}
// @Router       /orders/all [get]
func (h *OrderHandler) List(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	orders, err := h.list.Execute(c.Request.Context(), req.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderList(orders))
}
