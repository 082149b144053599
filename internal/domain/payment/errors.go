package payment

import (
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

var (
	ErrInvalidSignature = apperrors.New(apperrors.ErrCodeInvalidSignature, "Payment signature mismatch")

	ErrMalformedCallback = apperrors.New(apperrors.ErrCodeMalformedCallback, "Malformed payment callback")

	// ErrAmountMismatch 请求金额与订单金额不一致
	ErrAmountMismatch = apperrors.New(apperrors.ErrCodeAmountMismatch, "Payment amount does not match the order total")
)
