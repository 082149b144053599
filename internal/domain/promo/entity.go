package promo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode 优惠码实体
// 设计说明:
// 1. Code全局唯一,比较时区分大小写(与录入一致)
// 2. MaxDiscount/MinOrderAmount/ExpirationDate都是可选约束
// 3. 停用(IsActive=false)或过期后不可再使用;删除为硬删除
type PromoCode struct {
	ID              uint
	Code            string
	DiscountPercent int
	MaxDiscount     decimal.NullDecimal
	MinOrderAmount  decimal.NullDecimal
	ExpirationDate  *time.Time
	IsActive        bool
	CreatedBy       uint
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate 校验字段取值
func (p *PromoCode) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return ErrEmptyCode
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return ErrInvalidPercent
	}
	if p.MaxDiscount.Valid && p.MaxDiscount.Decimal.IsNegative() {
		return ErrInvalidAmount
	}
	if p.MinOrderAmount.Valid && p.MinOrderAmount.Decimal.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// IsExpired 过期时间早于now
func (p *PromoCode) IsExpired(now time.Time) bool {
	return p.ExpirationDate != nil && p.ExpirationDate.Before(now)
}

// Evaluate 计算使用优惠码后的订单金额
//
// 校验顺序:
// 1. 已停用 → ErrPromoCodeNotFound
// 2. 已过期 → ErrPromoCodeExpired(在任何金额计算之前)
// 3. 未达到最低金额 → ErrMinimumNotMet,消息中带最低金额
//
// 折扣 = total × percent / 100,超过MaxDiscount时取MaxDiscount。
// 返回精确差值,不取整;入库和展示时才保留两位小数。
// 纯函数,不修改优惠码。
func (p *PromoCode) Evaluate(total decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !p.IsActive {
		return decimal.Zero, ErrPromoCodeNotFound
	}
	if p.IsExpired(now) {
		return decimal.Zero, ErrPromoCodeExpired
	}
	if p.MinOrderAmount.Valid && total.LessThan(p.MinOrderAmount.Decimal) {
		return decimal.Zero, MinimumNotMet(p.MinOrderAmount.Decimal)
	}

	discount := total.Mul(decimal.NewFromInt(int64(p.DiscountPercent))).Div(decimal.NewFromInt(100))
	if p.MaxDiscount.Valid && discount.GreaterThan(p.MaxDiscount.Decimal) {
		discount = p.MaxDiscount.Decimal
	}
	return total.Sub(discount), nil
}

// Patch 修改字段,nil表示不修改
type Patch struct {
	Code            *string
	DiscountPercent *int
	MaxDiscount     *decimal.NullDecimal // 非nil且Valid=false表示去掉上限
	MinOrderAmount  *decimal.NullDecimal
	ExpirationDate  *time.Time
	ClearExpiration bool
	IsActive        *bool
}

// ApplyPatch 合并修改
func (p *PromoCode) ApplyPatch(patch Patch) {
	if patch.Code != nil {
		p.Code = strings.TrimSpace(*patch.Code)
	}
	if patch.DiscountPercent != nil {
		p.DiscountPercent = *patch.DiscountPercent
	}
	if patch.MaxDiscount != nil {
		p.MaxDiscount = *patch.MaxDiscount
	}
	if patch.MinOrderAmount != nil {
		p.MinOrderAmount = *patch.MinOrderAmount
	}
	if patch.ClearExpiration {
		p.ExpirationDate = nil
	} else if patch.ExpirationDate != nil {
		t := *patch.ExpirationDate
		p.ExpirationDate = &t
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	p.UpdatedAt = time.Now()
}
