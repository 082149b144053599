package promo

import (
	"errors"

	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// 优惠码领域错误定义
var (
	// ErrPromoCodeNotFound 不存在或已停用
	ErrPromoCodeNotFound = apperrors.New(apperrors.ErrCodePromoCodeNotFound, "Promo code is invalid.")

	ErrPromoCodeExpired = apperrors.New(apperrors.ErrCodePromoCodeExpired, "Promo code has expired")

	// ErrMinimumNotMet 与MinimumNotMet()同码,可用errors.Is判断
	ErrMinimumNotMet = apperrors.New(apperrors.ErrCodePromoMinimumNotMet, "Order total is below the promo code minimum")

	ErrCodeTaken = apperrors.New(apperrors.ErrCodePromoCodeDuplicate, "Promo code is taken")

	ErrEmptyCode      = apperrors.New(apperrors.ErrCodeEmptyPromoCode, "Promo code must not be empty")
	ErrInvalidPercent = apperrors.New(apperrors.ErrCodeInvalidDiscountPercent, "Discount percent must be between 0 and 100")
	ErrInvalidAmount  = apperrors.New(apperrors.ErrCodeNegativeAmount, "Amounts must not be negative")
)

// MinimumNotMet 带最低金额的提示
func MinimumNotMet(min decimal.Decimal) error {
	return ErrMinimumNotMet.WithMessage("Minimum order amount for this promotional code: " + min.String())
}

// Outcome 把Evaluate的结果归类为指标标签
func Outcome(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, ErrPromoCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrPromoCodeExpired):
		return "expired"
	case errors.Is(err, ErrMinimumNotMet):
		return "minimum_not_met"
	default:
		return "error"
	}
}
