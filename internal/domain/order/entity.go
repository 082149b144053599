package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 订单状态
// 教学要点:
// 1. 只有两个状态: pending → confirmed,confirmed是终态
// 2. 没有取消状态,删除是独立的硬删除操作
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

// Valid 是否为已知状态
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusConfirmed
}

// PaymentMethod 支付方式,创建后不可修改
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash" // 货到付款,店员电话确认后点击确认链接
	PaymentCard PaymentMethod = "card" // 在线支付,支付回调确认
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

// Recipient 收件人与配送信息
type Recipient struct {
	Name           string `json:"username"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phoneNumber"`
	Email          string `json:"email"`
	City           string `json:"city"`
	DeliveryMethod string `json:"deliveryMethod"`
	BranchAddress  string `json:"branchAddress"`
}

// OrderedBook 下单时的图书快照
// 教学要点:
// 1. 不是对Book的引用,之后修改图书信息不影响历史订单
// 2. Price记录下单时的原价,DiscountedPrice记录折后价(0表示未打折)
type OrderedBook struct {
	BookID          uint            `json:"bookId"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	Genre           string          `json:"genre"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
}

// UnitPrice 实际成交单价
func (b OrderedBook) UnitPrice() decimal.Decimal {
	if b.DiscountedPrice.IsPositive() && b.DiscountedPrice.LessThan(b.Price) {
		return b.DiscountedPrice
	}
	return b.Price
}

// Order 订单实体(聚合根)
// 教学要点:
// 1. Order独占Books快照列表
// 2. ConfirmationToken只在pending的现金订单上存在,确认时清空
// 3. TotalSum是扣除优惠后的金额,由服务端计算
type Order struct {
	ID                string
	UserID            *uint // 匿名下单时为nil
	Status            Status
	PaymentMethod     PaymentMethod
	ConfirmationToken *string
	PromoCode         string
	TotalSum          decimal.Decimal
	Quantity          int
	Recipient
	Books []OrderedBook
	// PaidAt 网关已确认收款但订单未能确认(例如缺货)时记录,清理任务跳过此类订单
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 创建新订单(工厂方法),初始状态为pending
func NewOrder(id string, userID *uint, method PaymentMethod, recipient Recipient, books []OrderedBook, quantity int) *Order {
	if quantity <= 0 {
		quantity = len(books)
	}
	now := time.Now()
	o := &Order{
		ID:            id,
		UserID:        userID,
		Status:        StatusPending,
		PaymentMethod: method,
		Quantity:      quantity,
		Recipient:     recipient,
		Books:         books,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.TotalSum = o.Subtotal()
	return o
}

// AwaitingFulfilment 已收款但仍是pending,需要店员人工处理
func (o *Order) AwaitingFulfilment() bool {
	return o.PaidAt != nil && o.Status == StatusPending
}

// Subtotal 快照单价之和(未扣优惠)
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range o.Books {
		total = total.Add(b.UnitPrice())
	}
	return total.Round(2)
}

// AssignConfirmationToken 现金订单在持久化前生成确认令牌
func (o *Order) AssignConfirmationToken(token string) {
	o.ConfirmationToken = &token
}

// CanTransitionTo 检查是否可以转换到目标状态
func (o *Order) CanTransitionTo(target Status) bool {
	return o.Status == StatusPending && target == StatusConfirmed
}

// TransitionTo 状态转换
func (o *Order) TransitionTo(target Status) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Confirm 确认订单并清空确认令牌
func (o *Order) Confirm() error {
	if err := o.TransitionTo(StatusConfirmed); err != nil {
		return err
	}
	o.ConfirmationToken = nil
	return nil
}

// IsConfirmed 是否已确认
func (o *Order) IsConfirmed() bool {
	return o.Status == StatusConfirmed
}

// BookIDs 快照中的图书ID
func (o *Order) BookIDs() []uint {
	ids := make([]uint, 0, len(o.Books))
	for _, b := range o.Books {
		ids = append(ids, b.BookID)
	}
	return ids
}

// Patch 可修改字段,nil表示不修改
// 状态、支付方式、图书快照和金额不在其中,只能通过下单和确认流程变化
type Patch struct {
	Name           *string
	LastName       *string
	Phone          *string
	Email          *string
	City           *string
	DeliveryMethod *string
	BranchAddress  *string
}

// ApplyPatch 合并修改
func (o *Order) ApplyPatch(p Patch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&o.Name, p.Name)
	set(&o.LastName, p.LastName)
	set(&o.Phone, p.Phone)
	set(&o.Email, p.Email)
	set(&o.City, p.City)
	set(&o.DeliveryMethod, p.DeliveryMethod)
	set(&o.BranchAddress, p.BranchAddress)
	o.UpdatedAt = time.Now()
}
