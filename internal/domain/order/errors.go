package order

import (
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// 订单领域错误定义
var (
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "Order doesn't exist")

	// ErrConfirmationTokenNotFound 令牌不存在或订单已确认(令牌已清空)
	ErrConfirmationTokenNotFound = apperrors.New(apperrors.ErrCodeConfirmationTokenNotFound, "Order doesn't exist or has already been confirmed")

	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "Order status does not allow this operation")

	// ErrNoBooksResolved 请求中的图书ID全部不存在
	ErrNoBooksResolved = apperrors.New(apperrors.ErrCodeNoBooksResolved, "None of the requested books exist")

	ErrInvalidPaymentMethod = apperrors.New(apperrors.ErrCodeInvalidPaymentMethod, "Payment method must be cash or card")
)
