package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/payment"
)

// PaymentFormUseCase 生成跳转支付网关的表单
// 金额以订单TotalSum为准,客户端传了amount时必须一致
type PaymentFormUseCase struct {
	orders   order.Repository
	merchant payment.Merchant
}

func NewPaymentFormUseCase(orders order.Repository, merchant payment.Merchant) *PaymentFormUseCase {
	return &PaymentFormUseCase{orders: orders, merchant: merchant}
}

func (uc *PaymentFormUseCase) Execute(ctx context.Context, orderID string, amount decimal.NullDecimal) (*payment.Form, error) {
	o, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.IsConfirmed() {
		return nil, order.ErrInvalidStatusTransition
	}
	if amount.Valid && !amount.Decimal.Round(2).Equal(o.TotalSum.Round(2)) {
		return nil, payment.ErrAmountMismatch
	}
	return payment.BuildForm(uc.merchant, payment.NewCheckout(uc.merchant, o.ID, o.TotalSum))
}
