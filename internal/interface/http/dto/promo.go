package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
)

// CheckPromoCodeRequest 优惠码试算
type CheckPromoCodeRequest struct {
	TotalSum *decimal.Decimal `json:"totalSum" binding:"required" swaggertype:"number" example:"100.00"`
	Code     string           `json:"code" binding:"required,max=64" example:"SPRING20"`
}

// CheckPromoCodeResponse 折后金额
type CheckPromoCodeResponse struct {
	TotalSum decimal.Decimal `json:"totalSum" swaggertype:"string" example:"85"`
}

// CreatePromoCodeRequest 创建优惠码
type CreatePromoCodeRequest struct {
	Code            string           `json:"code" binding:"required,max=64" example:"SPRING20"`
	DiscountPercent *int             `json:"discountPercent" binding:"required,min=0,max=100" example:"20"`
	MaxDiscount     *decimal.Decimal `json:"maxDiscount" swaggertype:"number" example:"15"`
	MinOrderAmount  *decimal.Decimal `json:"minOrderAmount" swaggertype:"number" example:"50"`
	ExpirationDate  *time.Time       `json:"expirationDate"`
	IsActive        *bool            `json:"isActive"`
}

// UpdatePromoCodeRequest 合并修改,未出现的字段不变
// clearMaxDiscount/clearMinOrderAmount/clearExpirationDate 用于去掉可选约束
type UpdatePromoCodeRequest struct {
	Code                *string          `json:"code" binding:"omitempty,min=1,max=64"`
	DiscountPercent     *int             `json:"discountPercent" binding:"omitempty,min=0,max=100"`
	MaxDiscount         *decimal.Decimal `json:"maxDiscount" swaggertype:"number"`
	MinOrderAmount      *decimal.Decimal `json:"minOrderAmount" swaggertype:"number"`
	ExpirationDate      *time.Time       `json:"expirationDate"`
	IsActive            *bool            `json:"isActive"`
	ClearMaxDiscount    bool             `json:"clearMaxDiscount"`
	ClearMinOrderAmount bool             `json:"clearMinOrderAmount"`
	ClearExpirationDate bool             `json:"clearExpirationDate"`
}

func (r *UpdatePromoCodeRequest) Patch() promo.Patch {
	p := promo.Patch{
		Code:            r.Code,
		DiscountPercent: r.DiscountPercent,
		ExpirationDate:  r.ExpirationDate,
		ClearExpiration: r.ClearExpirationDate,
		IsActive:        r.IsActive,
	}
	p.MaxDiscount = nullablePatch(r.MaxDiscount, r.ClearMaxDiscount)
	p.MinOrderAmount = nullablePatch(r.MinOrderAmount, r.ClearMinOrderAmount)
	return p
}

func nullablePatch(v *decimal.Decimal, clear bool) *decimal.NullDecimal {
	switch {
	case clear:
		return &decimal.NullDecimal{}
	case v != nil:
		return &decimal.NullDecimal{Decimal: *v, Valid: true}
	default:
		return nil
	}
}

// NullDecimal 可选金额
func NullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

// ListPromoCodesRequest 优惠码列表过滤条件
type ListPromoCodesRequest struct {
	DiscountPercent *int   `form:"discountPercent" binding:"omitempty,min=0,max=100"`
	MaxDiscount     string `form:"maxDiscount" binding:"omitempty,numeric"`
	MinOrderAmount  string `form:"minOrderAmount" binding:"omitempty,numeric"`
	IsActive        *bool  `form:"isActive"`
	ExpirationDate  string `form:"expirationDate" binding:"omitempty,datetime=2006-01-02"`
}

func (r *ListPromoCodesRequest) Filter() promo.Filter {
	f := promo.Filter{
		DiscountPercent: r.DiscountPercent,
		MaxDiscount:     ParseNullDecimal(r.MaxDiscount),
		MinOrderAmount:  ParseNullDecimal(r.MinOrderAmount),
		IsActive:        r.IsActive,
	}
	if r.ExpirationDate != "" {
		if day, err := time.Parse(time.DateOnly, r.ExpirationDate); err == nil {
			f.ExpiresOn = &day
		}
	}
	return f
}

// ParseNullDecimal 空串或非法数字返回Valid=false
func ParseNullDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
