package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
)

// PublishBookUseCase 管理员上架图书,设置初始库存
type PublishBookUseCase struct {
	bookService book.Service
}

func NewPublishBookUseCase(bookService book.Service) *PublishBookUseCase {
	return &PublishBookUseCase{bookService: bookService}
}

type PublishBookRequest struct {
	Title           string
	Author          string
	Genre           string
	Description     string
	CoverURL        string
	Price           decimal.Decimal
	DiscountedPrice decimal.Decimal // 0表示不打折
	Stock           int
	PublicationYear int
	PublisherID     uint // 从认证中间件获取
}

func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*BookItem, error) {
	b, err := uc.bookService.PublishBook(ctx, book.PublishParams{
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		Description:     req.Description,
		CoverURL:        req.CoverURL,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Stock:           req.Stock,
		PublicationYear: req.PublicationYear,
		PublisherID:     req.PublisherID,
	})
	if err != nil {
		return nil, err
	}
	item := toBookItem(b)
	return &item, nil
}

// GetBookUseCase 图书详情
type GetBookUseCase struct {
	bookService book.Service
}

func NewGetBookUseCase(bookService book.Service) *GetBookUseCase {
	return &GetBookUseCase{bookService: bookService}
}

func (uc *GetBookUseCase) Execute(ctx context.Context, id uint) (*BookItem, error) {
	b, err := uc.bookService.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item := toBookItem(b)
	return &item, nil
}
