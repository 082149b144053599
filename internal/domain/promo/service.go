package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service 优惠码领域服务
type Service interface {
	// Evaluate 按code查找启用中的优惠码并计算折后金额
	Evaluate(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error)

	// Create 创建优惠码,code已存在返回ErrCodeTaken
	Create(ctx context.Context, p *PromoCode) error

	// Update 合并修改,修改code时同样检查唯一性
	Update(ctx context.Context, id uint, patch Patch) (*PromoCode, error)

	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filter Filter) ([]*PromoCode, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService 创建优惠码服务,now为nil时使用time.Now
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Evaluate(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error) {
	p, err := s.repo.FindActiveByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return decimal.Zero, err
	}
	return p.Evaluate(total, s.now())
}

func (s *service) Create(ctx context.Context, p *PromoCode) error {
	p.Code = strings.TrimSpace(p.Code)
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.ensureCodeFree(ctx, p.Code, 0); err != nil {
		return err
	}

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.repo.Create(ctx, p)
}

func (s *service) Update(ctx context.Context, id uint, patch Patch) (*PromoCode, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.ApplyPatch(patch)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if patch.Code != nil {
		if err := s.ensureCodeFree(ctx, p.Code, p.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*PromoCode, error) {
	return s.repo.List(ctx, filter)
}

// ensureCodeFree code未被其他优惠码占用(selfID为自身ID,创建时为0)
func (s *service) ensureCodeFree(ctx context.Context, code string, selfID uint) error {
	existing, err := s.repo.FindByCode(ctx, code)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrCodeTaken
	case err != nil && !errors.Is(err, ErrPromoCodeNotFound):
		return err
	}
	return nil
}
