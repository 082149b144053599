package book

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, b *Book) error {
	args := m.Called(ctx, b)
	if args.Error(0) == nil {
		b.ID = 1
	}
	return args.Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id uint) (*Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*Book)
	return b, args.Error(1)
}

func (m *mockRepo) FindByIDs(ctx context.Context, ids []uint) ([]*Book, error) {
	args := m.Called(ctx, ids)
	b, _ := args.Get(0).([]*Book)
	return b, args.Error(1)
}

func (m *mockRepo) FindByTitle(ctx context.Context, title string) (*Book, error) {
	args := m.Called(ctx, title)
	b, _ := args.Get(0).(*Book)
	return b, args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	args := m.Called(ctx, params)
	b, _ := args.Get(0).([]*Book)
	return b, args.Get(1).(int64), args.Error(2)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBook_EffectivePrice(t *testing.T) {
	b := &Book{Price: dec("20.00")}
	assert.True(t, b.EffectivePrice().Equal(dec("20")))

	b.DiscountedPrice = dec("15.50")
	assert.True(t, b.IsDiscounted())
	assert.True(t, b.EffectivePrice().Equal(dec("15.5")))

	// 折后价不低于原价视为未打折
	b.DiscountedPrice = dec("25")
	assert.False(t, b.IsDiscounted())
	assert.True(t, b.EffectivePrice().Equal(dec("20")))
}

func TestBook_ApplySale(t *testing.T) {
	b := &Book{AvailableBooks: 1, SalesCount: 4}
	require.NoError(t, b.ApplySale())
	assert.Equal(t, 0, b.AvailableBooks)
	assert.Equal(t, 5, b.SalesCount)

	assert.ErrorIs(t, b.ApplySale(), ErrInsufficientStock)
	assert.Equal(t, 0, b.AvailableBooks)
	assert.Equal(t, 5, b.SalesCount)
}

func TestService_PublishBook(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("FindByTitle", ctx, "Dune").Return(nil, ErrBookNotFound)
		repo.On("Create", ctx, mock.AnythingOfType("*book.Book")).Return(nil)

		b, err := NewService(repo).PublishBook(ctx, PublishParams{
			Title: " Dune ", Author: "Frank Herbert", Price: dec("12.999"), Stock: 3, PublisherID: 9,
		})
		require.NoError(t, err)
		assert.Equal(t, "Dune", b.Title)
		assert.Equal(t, "13", b.Price.String())
		assert.Equal(t, 3, b.AvailableBooks)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate title", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("FindByTitle", ctx, "Dune").Return(&Book{ID: 2, Title: "Dune"}, nil)

		_, err := NewService(repo).PublishBook(ctx, PublishParams{Title: "Dune", Price: dec("10")})
		assert.ErrorIs(t, err, ErrTitleDuplicate)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid values", func(t *testing.T) {
		svc := NewService(new(mockRepo))
		_, err := svc.PublishBook(ctx, PublishParams{Title: "x", Price: decimal.Zero})
		assert.ErrorIs(t, err, ErrInvalidPrice)

		_, err = svc.PublishBook(ctx, PublishParams{Title: "x", Price: dec("10"), DiscountedPrice: dec("10")})
		assert.ErrorIs(t, err, ErrInvalidDiscount)

		_, err = svc.PublishBook(ctx, PublishParams{Title: "x", Price: dec("10"), Stock: -1})
		assert.ErrorIs(t, err, ErrInvalidStock)
	})
}

func TestService_ListBooksNormalizesParams(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	want := ListParams{Page: 1, PageSize: 20, SortBy: SortCreatedAtDesc, Genre: "sci-fi"}
	repo.On("List", ctx, want).Return([]*Book{{ID: 1}}, int64(1), nil)

	books, total, err := NewService(repo).ListBooks(ctx, ListParams{PageSize: 500, SortBy: "random", Genre: "sci-fi"})
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, int64(1), total)
	repo.AssertExpectations(t)
}

func TestService_ListBooksYearRangeAndKeyset(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	want := ListParams{Page: 1, PageSize: 20, SortBy: SortIDAsc, MinYear: 2019, MaxYear: 2023}
	repo.On("List", ctx, want).Return([]*Book{}, int64(0), nil)

	_, _, err := NewService(repo).ListBooks(ctx, ListParams{SortBy: SortIDAsc, MinYear: 2023, MaxYear: 2019})
	require.NoError(t, err)
	repo.AssertExpectations(t)

	assert.True(t, want.Keyset())
	assert.True(t, ListParams{Cursor: 3}.Keyset())
	assert.False(t, ListParams{SortBy: SortSalesDesc}.Keyset())
}
