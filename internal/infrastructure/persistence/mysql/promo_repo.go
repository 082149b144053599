package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// promoRepository 优惠码仓储实现
type promoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) promo.Repository {
	return &promoRepository{db: db}
}

func (r *promoRepository) Create(ctx context.Context, p *promo.PromoCode) error {
	model := toPromoModel(p)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return promo.ErrCodeTaken
		}
		return apperrors.Wrap(err, "创建优惠码失败")
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *promoRepository) FindByID(ctx context.Context, id uint) (*promo.PromoCode, error) {
	return r.first(getDB(ctx, r.db).Where("id = ?", id))
}

func (r *promoRepository) FindByCode(ctx context.Context, code string) (*promo.PromoCode, error) {
	return r.first(getDB(ctx, r.db).Where("code = ?", code))
}

func (r *promoRepository) FindActiveByCode(ctx context.Context, code string) (*promo.PromoCode, error) {
	return r.first(getDB(ctx, r.db).Where("code = ? AND is_active = ?", code, true))
}

func (r *promoRepository) first(query *gorm.DB) (*promo.PromoCode, error) {
	var model PromoCodeModel
	if err := query.First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, promo.ErrPromoCodeNotFound
		}
		return nil, apperrors.Wrap(err, "查询优惠码失败")
	}
	return toPromoEntity(&model), nil
}

func (r *promoRepository) Update(ctx context.Context, p *promo.PromoCode) error {
	result := getDB(ctx, r.db).Model(&PromoCodeModel{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"code":             p.Code,
		"discount_percent": p.DiscountPercent,
		"max_discount":     p.MaxDiscount,
		"min_order_amount": p.MinOrderAmount,
		"expiration_date":  p.ExpirationDate,
		"is_active":        p.IsActive,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return promo.ErrCodeTaken
		}
		return apperrors.Wrap(result.Error, "更新优惠码失败")
	}
	if result.RowsAffected == 0 {
		return promo.ErrPromoCodeNotFound
	}
	return nil
}

func (r *promoRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&PromoCodeModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除优惠码失败")
	}
	if result.RowsAffected == 0 {
		return promo.ErrPromoCodeNotFound
	}
	return nil
}

func (r *promoRepository) List(ctx context.Context, f promo.Filter) ([]*promo.PromoCode, error) {
	query := getDB(ctx, r.db).Model(&PromoCodeModel{})
	if f.DiscountPercent != nil {
		query = query.Where("discount_percent = ?", *f.DiscountPercent)
	}
	if f.MaxDiscount.Valid {
		query = query.Where("max_discount = ?", f.MaxDiscount.Decimal)
	}
	if f.MinOrderAmount.Valid {
		query = query.Where("min_order_amount = ?", f.MinOrderAmount.Decimal)
	}
	if f.IsActive != nil {
		query = query.Where("is_active = ?", *f.IsActive)
	}
	if f.ExpiresOn != nil {
		query = query.Where("DATE(expiration_date) = ?", dateOnly(*f.ExpiresOn))
	}

	var models []PromoCodeModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询优惠码列表失败")
	}
	codes := make([]*promo.PromoCode, 0, len(models))
	for i := range models {
		codes = append(codes, toPromoEntity(&models[i]))
	}
	return codes, nil
}

func toPromoModel(p *promo.PromoCode) *PromoCodeModel {
	return &PromoCodeModel{
		ID:              p.ID,
		Code:            p.Code,
		DiscountPercent: p.DiscountPercent,
		MaxDiscount:     p.MaxDiscount,
		MinOrderAmount:  p.MinOrderAmount,
		ExpirationDate:  p.ExpirationDate,
		IsActive:        p.IsActive,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toPromoEntity(m *PromoCodeModel) *promo.PromoCode {
	return &promo.PromoCode{
		ID:              m.ID,
		Code:            m.Code,
		DiscountPercent: m.DiscountPercent,
		MaxDiscount:     m.MaxDiscount,
		MinOrderAmount:  m.MinOrderAmount,
		ExpirationDate:  m.ExpirationDate,
		IsActive:        m.IsActive,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
