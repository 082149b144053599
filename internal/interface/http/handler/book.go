package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appbook "github.com/xiebiao/bookstore-orders/internal/application/book"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/dto"
	"github.com/xiebiao/bookstore-orders/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-orders/pkg/response"
)

type bookPublisher interface {
	Execute(ctx context.Context, req appbook.PublishBookRequest) (*appbook.BookItem, error)
}

type bookGetter interface {
	Execute(ctx context.Context, id uint) (*appbook.BookItem, error)
}

type bookLister interface {
	Execute(ctx context.Context, req appbook.ListBooksRequest) (*appbook.ListBooksResponse, error)
}

// BookHandler 图书HTTP处理器
type BookHandler struct {
	publish bookPublisher
	get     bookGetter
	list    bookLister
}

func NewBookHandler(publish *appbook.PublishBookUseCase, get *appbook.GetBookUseCase, list *appbook.ListBooksUseCase) *BookHandler {
	return &BookHandler{publish: publish, get: get, list: list}
}

// PublishBook 上架图书
// @Summary      上架图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=appbook.BookItem}
// @Failure      409 {object} response.Response "书名已存在"
// @Router       /books [post]
func (h *BookHandler) PublishBook(c *gin.Context) {
	var req dto.PublishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	discounted := decimal.Zero
	if req.DiscountedPrice != nil {
		discounted = *req.DiscountedPrice
	}

	item, err := h.publish.Execute(c.Request.Context(), appbook.PublishBookRequest{
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		Description:     req.Description,
		CoverURL:        req.CoverURL,
		Price:           *req.Price,
		DiscountedPrice: discounted,
		Stock:           req.Stock,
		PublicationYear: req.PublicationYear,
		PublisherID:     middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookItem}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.get.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// ListBooks 图书列表
// @Summary      图书列表
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码"
// @Param        pageSize query int false "每页数量"
// @Param        keyword query string false "书名或作者"
// @Param        genre query string false "类别"
// @Param        minPrice query number false "最低价"
// @Param        maxPrice query number false "最高价"
// @Param        discounted query bool false "只看打折"
// @Param        inStock query bool false "只看有货"
// @Param        author query string false "作者(空格可写成-)"
// @Param        minYear query int false "出版年份下限"
// @Param        maxYear query int false "出版年份上限"
// @Param        new query bool false "最近一周上架"
// @Param        bestseller query bool false "只看畅销书"
// @Param        minSales query int false "最低销量"
// @Param        cursor query int false "上一页返回的nextCursor"
// @Param        sortBy query string false "price_asc | price_desc | sales_desc | created_at_desc | id_asc"
// @Success      200 {object} response.Response{data=response.PageData}
// @Router       /books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	result, err := h.list.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Keyword:    req.Keyword,
		Genre:      req.Genre,
		Author:     req.AuthorName(),
		MinPrice:   dto.ParseNullDecimal(req.MinPrice),
		MaxPrice:   dto.ParseNullDecimal(req.MaxPrice),
		MinYear:    req.MinYear,
		MaxYear:    req.MaxYear,
		New:        req.New,
		Bestseller: req.Bestseller,
		MinSales:   req.MinSales,
		Discounted: req.Discounted,
		InStock:    req.InStock,
		SortBy:     req.SortBy,
		Cursor:     req.Cursor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	page := response.NewPageData(result.List, result.Total, result.Page, result.PageSize)
	page.NextCursor = result.NextCursor
	response.Success(c, page)
}
