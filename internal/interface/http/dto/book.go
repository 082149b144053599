package dto

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PublishBookRequest HTTP上架请求
type PublishBookRequest struct {
	Title           string           `json:"title" binding:"required,max=200" example:"The Go Programming Language"`
	Author          string           `json:"author" binding:"required,max=100" example:"Alan Donovan"`
	Genre           string           `json:"genre" binding:"omitempty,max=50" example:"programming"`
	Description     string           `json:"description" binding:"max=5000"`
	CoverURL        string           `json:"coverUrl" binding:"omitempty,url,max=500"`
	Price           *decimal.Decimal `json:"price" binding:"required" swaggertype:"number" example:"49.99"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice" swaggertype:"number" example:"39.99"`
	Stock           int              `json:"availableBooks" binding:"min=0" example:"10"`
	PublicationYear int              `json:"publicationYear" binding:"omitempty,min=1000,max=2100" example:"2015"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"pageSize" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword    string `form:"keyword" binding:"omitempty,max=100"`
	Genre      string `form:"genre" binding:"omitempty,max=50"`
	Author     string `form:"author" binding:"omitempty,max=100" example:"Frank-Herbert"`
	MinPrice   string `form:"minPrice" binding:"omitempty,numeric"`
	MaxPrice   string `form:"maxPrice" binding:"omitempty,numeric"`
	MinYear    int    `form:"minYear" binding:"omitempty,min=1000,max=2100" example:"2019"`
	MaxYear    int    `form:"maxYear" binding:"omitempty,min=1000,max=2100" example:"2023"`
	New        bool   `form:"new"`
	Bestseller bool   `form:"bestseller"`
	MinSales   int    `form:"minSales" binding:"omitempty,min=0"`
	Discounted bool   `form:"discounted"`
	InStock    bool   `form:"inStock"`
	SortBy     string `form:"sortBy" binding:"omitempty,oneof=price_asc price_desc sales_desc created_at_desc id_asc" example:"sales_desc"`
	Cursor     uint   `form:"cursor" example:"120"`
}

// AuthorName 作者参数支持"Frank-Herbert"形式的路径片段
func (r ListBooksRequest) AuthorName() string {
	return strings.TrimSpace(strings.ReplaceAll(r.Author, "-", " "))
}
