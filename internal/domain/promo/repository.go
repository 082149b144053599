package promo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository 优惠码仓储接口
type Repository interface {
	// Create 唯一索引冲突时返回ErrCodeTaken
	Create(ctx context.Context, p *PromoCode) error

	// FindByID 不存在时返回ErrPromoCodeNotFound
	FindByID(ctx context.Context, id uint) (*PromoCode, error)

	// FindByCode 不区分是否启用
	FindByCode(ctx context.Context, code string) (*PromoCode, error)

	// FindActiveByCode 只查 is_active = true
	FindActiveByCode(ctx context.Context, code string) (*PromoCode, error)

	Update(ctx context.Context, p *PromoCode) error

	Delete(ctx context.Context, id uint) error

	// List created_at倒序,不分页
	List(ctx context.Context, filter Filter) ([]*PromoCode, error)
}

// Filter 列表过滤条件,零值表示不过滤
type Filter struct {
	DiscountPercent *int
	MaxDiscount     decimal.NullDecimal
	MinOrderAmount  decimal.NullDecimal
	IsActive        *bool
	ExpiresOn       *time.Time // 按过期日期(当天)过滤
}
