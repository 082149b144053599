package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-orders/internal/domain/order"
)

// CreateOrderRequest HTTP下单请求
// totalSum与quantityOfBooks只做格式校验,金额和数量由服务端根据图书快照重新计算
type CreateOrderRequest struct {
	Username        string           `json:"username" binding:"required,max=100" example:"Taras"`
	LastName        string           `json:"lastName" binding:"required,max=100" example:"Shevchenko"`
	PhoneNumber     string           `json:"phoneNumber" binding:"required,e164" example:"+380501234567"`
	Email           string           `json:"email" binding:"required,email"`
	City            string           `json:"city" binding:"required,max=100" example:"Kyiv"`
	PaymentMethod   string           `json:"paymentMethod" binding:"required,oneof=cash card" example:"cash"`
	TotalSum        *decimal.Decimal `json:"totalSum" binding:"required" swaggertype:"number" example:"100.00"`
	Books           []uint           `json:"books" binding:"required,min=1,dive,min=1"`
	DeliveryMethod  string           `json:"deliveryMethod" binding:"required,max=100" example:"post"`
	BranchAddress   string           `json:"branchAddress" binding:"required,max=255"`
	PromoCode       string           `json:"promoCode" binding:"omitempty,max=64"`
	QuantityOfBooks int              `json:"quantityOfBooks" binding:"min=0"`
}

// Recipient 转换为领域对象
func (r *CreateOrderRequest) Recipient() order.Recipient {
	return order.Recipient{
		Name:           r.Username,
		LastName:       r.LastName,
		Phone:          r.PhoneNumber,
		Email:          r.Email,
		City:           r.City,
		DeliveryMethod: r.DeliveryMethod,
		BranchAddress:  r.BranchAddress,
	}
}

// UpdateOrderRequest 只允许修改收件人与配送字段
type UpdateOrderRequest struct {
	Username       *string `json:"username" binding:"omitempty,min=1,max=100"`
	LastName       *string `json:"lastName" binding:"omitempty,min=1,max=100"`
	PhoneNumber    *string `json:"phoneNumber" binding:"omitempty,e164"`
	Email          *string `json:"email" binding:"omitempty,email"`
	City           *string `json:"city" binding:"omitempty,min=1,max=100"`
	DeliveryMethod *string `json:"deliveryMethod" binding:"omitempty,min=1,max=100"`
	BranchAddress  *string `json:"branchAddress" binding:"omitempty,min=1,max=255"`
}

func (r *UpdateOrderRequest) Patch() order.Patch {
	return order.Patch{
		Name:           r.Username,
		LastName:       r.LastName,
		Phone:          r.PhoneNumber,
		Email:          r.Email,
		City:           r.City,
		DeliveryMethod: r.DeliveryMethod,
		BranchAddress:  r.BranchAddress,
	}
}

// ListOrdersRequest 订单列表过滤条件
type ListOrdersRequest struct {
	Status        string `form:"status" binding:"omitempty,oneof=pending confirmed"`
	PaymentMethod string `form:"paymentMethod" binding:"omitempty,oneof=cash card"`
	City          string `form:"city"`
	Username      string `form:"username"`
	CreatedAt     string `form:"createdAt" binding:"omitempty,datetime=2006-01-02" example:"2024-05-01"`
}

func (r *ListOrdersRequest) Filter() order.Filter {
	f := order.Filter{
		Status:        order.Status(r.Status),
		PaymentMethod: order.PaymentMethod(r.PaymentMethod),
		City:          r.City,
		Name:          r.Username,
	}
	if r.CreatedAt != "" {
		if day, err := time.Parse(time.DateOnly, r.CreatedAt); err == nil {
			f.CreatedOn = &day
		}
	}
	return f
}

// OrderResponse 订单详情
type OrderResponse struct {
	ID            string              `json:"id"`
	UserID        *uint               `json:"userId,omitempty"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"paymentMethod"`
	PromoCode     string              `json:"promoCode,omitempty"`
	TotalSum      decimal.Decimal     `json:"totalSum" swaggertype:"string"`
	Quantity      int                 `json:"quantityOfBooks"`
	Recipient     order.Recipient     `json:"recipient"`
	Books         []order.OrderedBook `json:"orderedBooks"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func NewOrderResponse(o *order.Order) *OrderResponse {
	return &OrderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		PromoCode:     o.PromoCode,
		TotalSum:      o.TotalSum,
		Quantity:      o.Quantity,
		Recipient:     o.Recipient,
		Books:         o.Books,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func NewOrderList(orders []*order.Order) []*OrderResponse {
	list := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		list = append(list, NewOrderResponse(o))
	}
	return list
}
