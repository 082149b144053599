package book

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
)

// BookItem 图书展示DTO
type BookItem struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	Genre           string          `json:"genre"`
	Description     string          `json:"description,omitempty"`
	CoverURL        string          `json:"coverUrl,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	AvailableBooks  int             `json:"availableBooks"`
	SalesCount      int             `json:"salesCount"`
	PublicationYear int             `json:"publicationYear,omitempty"`
	CreatedAt       string          `json:"createdAt"`
}

func toBookItem(b *book.Book) BookItem {
	return BookItem{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		Description:     b.Description,
		CoverURL:        b.CoverURL,
		Price:           b.Price,
		DiscountedPrice: b.DiscountedPrice,
		AvailableBooks:  b.AvailableBooks,
		SalesCount:      b.SalesCount,
		PublicationYear: b.PublicationYear,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}
