package promo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
)

// PromoCodeItem 优惠码展示DTO
type PromoCodeItem struct {
	ID              uint                `json:"id"`
	Code            string              `json:"code"`
	DiscountPercent int                 `json:"discountPercent"`
	MaxDiscount     decimal.NullDecimal `json:"maxDiscount"`
	MinOrderAmount  decimal.NullDecimal `json:"minOrderAmount"`
	ExpirationDate  *time.Time          `json:"expirationDate"`
	IsActive        bool                `json:"isActive"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toItem(p *promo.PromoCode) *PromoCodeItem {
	return &PromoCodeItem{
		ID:              p.ID,
		Code:            p.Code,
		DiscountPercent: p.DiscountPercent,
		MaxDiscount:     p.MaxDiscount,
		MinOrderAmount:  p.MinOrderAmount,
		ExpirationDate:  p.ExpirationDate,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// CheckPromoCodeUseCase 公开接口:计算使用优惠码后的金额
type CheckPromoCodeUseCase struct {
	service promo.Service
}

func NewCheckPromoCodeUseCase(service promo.Service) *CheckPromoCodeUseCase {
	return &CheckPromoCodeUseCase{service: service}
}

func (uc *CheckPromoCodeUseCase) Execute(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error) {
	discounted, err := uc.service.Evaluate(ctx, code, total)
	metrics.PromoEvaluationsTotal.WithLabelValues(promo.Outcome(err)).Inc()
	return discounted, err
}

// CreatePromoCodeRequest 创建参数
type CreatePromoCodeRequest struct {
	Code            string
	DiscountPercent int
	MaxDiscount     decimal.NullDecimal
	MinOrderAmount  decimal.NullDecimal
	ExpirationDate  *time.Time
	IsActive        *bool // 默认启用
	CreatedBy       uint
}

// ManagePromoCodesUseCase 管理员维护优惠码
type ManagePromoCodesUseCase struct {
	service promo.Service
}

func NewManagePromoCodesUseCase(service promo.Service) *ManagePromoCodesUseCase {
	return &ManagePromoCodesUseCase{service: service}
}

func (uc *ManagePromoCodesUseCase) Create(ctx context.Context, req CreatePromoCodeRequest) (*PromoCodeItem, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := &promo.PromoCode{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		MaxDiscount:     req.MaxDiscount,
		MinOrderAmount:  req.MinOrderAmount,
		ExpirationDate:  req.ExpirationDate,
		IsActive:        active,
		CreatedBy:       req.CreatedBy,
	}
	if err := uc.service.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.FromCtx(ctx).Info("promo code created", zap.String("code", p.Code), zap.Uint("by", req.CreatedBy))
	return toItem(p), nil
}

func (uc *ManagePromoCodesUseCase) Update(ctx context.Context, id uint, patch promo.Patch) (*PromoCodeItem, error) {
	p, err := uc.service.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return toItem(p), nil
}

func (uc *ManagePromoCodesUseCase) Delete(ctx context.Context, id uint) error {
	return uc.service.Delete(ctx, id)
}

func (uc *ManagePromoCodesUseCase) List(ctx context.Context, filter promo.Filter) ([]*PromoCodeItem, error) {
	codes, err := uc.service.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]*PromoCodeItem, 0, len(codes))
	for _, p := range codes {
		items = append(items, toItem(p))
	}
	return items, nil
}
