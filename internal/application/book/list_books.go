package book

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
)

// ListBooksUseCase 图书列表(公开)
type ListBooksUseCase struct {
	bookService book.Service
}

func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{bookService: bookService}
}

type ListBooksRequest struct {
	Page        int
	PageSize    int
	Keyword     string // 匹配书名、作者
	Genre       string
	Author      string
	MinPrice    decimal.NullDecimal
	MaxPrice    decimal.NullDecimal
	MinYear     int
	MaxYear     int
	New         bool // 最近一周上架
	Bestseller  bool // 销量达到畅销门槛
	MinSales    int
	Discounted  bool
	InStock     bool
	SortBy      string // price_asc | price_desc | sales_desc | created_at_desc | id_asc
	Cursor      uint
	RequestedAt time.Time // 计算"新书"窗口的基准时间,零值取当前时间
}

type ListBooksResponse struct {
	List       []BookItem
	Total      int64
	Page       int
	PageSize   int
	NextCursor *uint // 游标模式下还有下一页时非空
}

func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	params := book.ListParams{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Keyword:    req.Keyword,
		Genre:      req.Genre,
		Author:     req.Author,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		MinYear:    req.MinYear,
		MaxYear:    req.MaxYear,
		MinSales:   req.MinSales,
		Discounted: req.Discounted,
		InStock:    req.InStock,
		SortBy:     req.SortBy,
		Cursor:     req.Cursor,
	}
	if req.New {
		now := req.RequestedAt
		if now.IsZero() {
			now = time.Now()
		}
		params.NewSince = now.Add(-book.NewArrivalWindow)
	}
	if req.Bestseller && params.MinSales < book.BestsellerMinSales {
		params.MinSales = book.BestsellerMinSales
	}

	books, total, err := uc.bookService.ListBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := &ListBooksResponse{Total: total, Page: req.Page, PageSize: req.PageSize}
	if params.Keyset() {
		resp.Page = 0
		if len(books) > req.PageSize {
			books = books[:req.PageSize]
			next := books[len(books)-1].ID
			resp.NextCursor = &next
		}
	}

	resp.List = make([]BookItem, 0, len(books))
	for _, b := range books {
		resp.List = append(resp.List, toBookItem(b))
	}
	return resp, nil
}
