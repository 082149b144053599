package book

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) PublishBook(ctx context.Context, p book.PublishParams) (*book.Book, error) {
	args := m.Called(ctx, p)
	b, _ := args.Get(0).(*book.Book)
	return b, args.Error(1)
}

func (m *mockService) GetBookByID(ctx context.Context, id uint) (*book.Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*book.Book)
	return b, args.Error(1)
}

func (m *mockService) ListBooks(ctx context.Context, p book.ListParams) ([]*book.Book, int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]*book.Book), args.Get(1).(int64), args.Error(2)
}

func TestListBooks_NormalizesPaging(t *testing.T) {
	svc := new(mockService)
	b := book.NewBook("Dune", "Herbert", "sci-fi", "", "", decimal.NewFromInt(20), decimal.NewFromInt(15), 3, 1)
	svc.On("ListBooks", mock.Anything, mock.MatchedBy(func(p book.ListParams) bool {
		return p.Page == 1 && p.PageSize == 20 && p.Discounted && p.SortBy == book.SortSalesDesc
	})).Return([]*book.Book{b}, int64(1), nil)

	resp, err := NewListBooksUseCase(svc).Execute(context.Background(), ListBooksRequest{
		PageSize: 500, Discounted: true, SortBy: book.SortSalesDesc,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, resp.PageSize)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "Dune", resp.List[0].Title)
	assert.True(t, resp.List[0].DiscountedPrice.Equal(decimal.NewFromInt(15)))
}

func TestListBooks_CatalogFilters(t *testing.T) {
	svc := new(mockService)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	svc.On("ListBooks", mock.Anything, mock.MatchedBy(func(p book.ListParams) bool {
		return p.Author == "Frank Herbert" &&
			p.MinYear == 2019 && p.MaxYear == 2023 &&
			p.NewSince.Equal(now.Add(-7*24*time.Hour)) &&
			p.MinSales == book.BestsellerMinSales
	})).Return([]*book.Book{}, int64(0), nil)

	_, err := NewListBooksUseCase(svc).Execute(context.Background(), ListBooksRequest{
		Author: "Frank Herbert", MinYear: 2019, MaxYear: 2023,
		New: true, Bestseller: true, MinSales: 5, RequestedAt: now,
	})
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestListBooks_CursorPages(t *testing.T) {
	svc := new(mockService)
	page := []*book.Book{{ID: 41}, {ID: 45}, {ID: 47}}
	svc.On("ListBooks", mock.Anything, mock.MatchedBy(func(p book.ListParams) bool {
		return p.Cursor == 40 && p.PageSize == 2
	})).Return(page, int64(10), nil)
	svc.On("ListBooks", mock.Anything, mock.MatchedBy(func(p book.ListParams) bool {
		return p.Cursor == 45
	})).Return([]*book.Book{{ID: 47}}, int64(10), nil)
	uc := NewListBooksUseCase(svc)

	resp, err := uc.Execute(context.Background(), ListBooksRequest{PageSize: 2, Cursor: 40})
	require.NoError(t, err)
	require.Len(t, resp.List, 2)
	assert.Equal(t, uint(45), resp.List[1].ID)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, uint(45), *resp.NextCursor)

	resp, err = uc.Execute(context.Background(), ListBooksRequest{PageSize: 2, Cursor: *resp.NextCursor})
	require.NoError(t, err)
	assert.Len(t, resp.List, 1)
	assert.Nil(t, resp.NextCursor)
}

func TestPublishBook_PassesParams(t *testing.T) {
	svc := new(mockService)
	svc.On("PublishBook", mock.Anything, mock.MatchedBy(func(p book.PublishParams) bool {
		return p.Title == "Dune" && p.Stock == 4 && p.PublisherID == 9
	})).Return(&book.Book{ID: 3, Title: "Dune", AvailableBooks: 4}, nil)

	item, err := NewPublishBookUseCase(svc).Execute(context.Background(), PublishBookRequest{
		Title: "Dune", Price: decimal.NewFromInt(20), Stock: 4, PublisherID: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(3), item.ID)
	assert.Equal(t, 4, item.AvailableBooks)
}
