package book

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Service 图书领域服务接口
type Service interface {
	// PublishBook 上架图书
	// 业务规则:
	// - 书名不能为空且不能重复
	// - 价格必须>0,折后价在[0, 价格)之间
	// - 库存必须>=0
	PublishBook(ctx context.Context, params PublishParams) (*Book, error)

	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// ListBooks 分页查询(公开接口)
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

// PublishParams 上架参数
type PublishParams struct {
	Title           string
	Author          string
	Genre           string
	Description     string
	CoverURL        string
	Price           decimal.Decimal
	DiscountedPrice decimal.Decimal
	Stock           int
	PublicationYear int
	PublisherID     uint
}

type service struct {
	repo Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// PublishBook 上架图书
func (s *service) PublishBook(ctx context.Context, p PublishParams) (*Book, error) {
	title := strings.TrimSpace(p.Title)

	// 1. 价格与库存校验
	if !p.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if p.DiscountedPrice.IsNegative() || (p.DiscountedPrice.IsPositive() && !p.DiscountedPrice.LessThan(p.Price)) {
		return nil, ErrInvalidDiscount
	}
	if p.Stock < 0 {
		return nil, ErrInvalidStock
	}

	// 2. 书名唯一
	existing, err := s.repo.FindByTitle(ctx, title)
	if err == nil && existing != nil {
		return nil, ErrTitleDuplicate
	}
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		return nil, err
	}

	// 3. 创建并持久化
	book := NewBook(title, p.Author, p.Genre, p.Description, p.CoverURL,
		p.Price.Round(2), p.DiscountedPrice.Round(2), p.Stock, p.PublisherID)
	book.PublicationYear = p.PublicationYear
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// ListBooks 规范化分页参数后查询
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	switch params.SortBy {
	case SortPriceAsc, SortPriceDesc, SortSalesDesc, SortCreatedAtDesc, SortIDAsc:
	default:
		params.SortBy = SortCreatedAtDesc
	}
	if params.MinYear > 0 && params.MaxYear > 0 && params.MinYear > params.MaxYear {
		params.MinYear, params.MaxYear = params.MaxYear, params.MinYear
	}
	return s.repo.List(ctx, params)
}
