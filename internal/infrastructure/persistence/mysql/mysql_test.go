package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	"github.com/xiebiao/bookstore-orders/internal/domain/user"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

var stockUpdateSQL = regexp.QuoteMeta("UPDATE `books` SET `available_books`=available_books - 1,`sales_count`=sales_count + 1 WHERE id = ? AND available_books >= 1")

func TestStockLedger_AppliesInIDOrder(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(stockUpdateSQL).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(stockUpdateSQL).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(stockUpdateSQL).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewStockLedger(db).ApplyConfirmation(context.Background(), []uint{3, 1, 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_OutOfStock(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(stockUpdateSQL).WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `books` WHERE id = ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

	err := NewStockLedger(db).ApplyConfirmation(context.Background(), []uint{2})
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_SkipsMissingBook(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(stockUpdateSQL).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `books` WHERE id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec(stockUpdateSQL).WithArgs(10).WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewStockLedger(db).ApplyConfirmation(context.Background(), []uint{10, 9})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_MarkConfirmed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	markSQL := regexp.QuoteMeta("UPDATE `orders` SET")

	mock.ExpectExec(markSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	changed, err := repo.MarkConfirmed(context.Background(), "order-1")
	require.NoError(t, err)
	assert.True(t, changed)

	mock.ExpectExec(markSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	changed, err = repo.MarkConfirmed(context.Background(), "order-1")
	require.NoError(t, err)
	assert.False(t, changed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_MarkPaymentReceived(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	paidSQL := regexp.QuoteMeta("UPDATE `orders` SET `paid_at`=?")

	mock.ExpectExec(paidSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkPaymentReceived(context.Background(), "order-1", time.Now()))

	mock.ExpectExec(paidSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkPaymentReceived(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_LockByTokenNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE confirmation_token = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewOrderRepository(db).LockByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, order.ErrConfirmationTokenNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_DeletePendingBeforeNothingExpired(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `orders` WHERE status = ? AND created_at < ? AND paid_at IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	n, err := NewOrderRepository(db).DeletePendingBefore(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'a@b.io' for key 'users.idx_users_email'"))

	err := NewUserRepository(db).Create(context.Background(), user.NewUser("a@b.io", "hash", "nick", user.RoleCustomer))
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoRepository_FindActiveByCodeNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `promo_codes` WHERE code = ? AND is_active = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewPromoRepository(db).FindActiveByCode(context.Background(), "SPRING")
	assert.ErrorIs(t, err, promo.ErrPromoCodeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_CommitAndRollback(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()
	err := tm.Transaction(context.Background(), func(ctx context.Context) error {
		_, ok := ctx.Value(txKey{}).(*gorm.DB)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = tm.Transaction(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderModelRoundTrip(t *testing.T) {
	token := "abc"
	uid := uint(5)
	o := order.NewOrder("id-1", &uid, order.PaymentCash, order.Recipient{Name: "Ann", City: "Kyiv"}, []order.OrderedBook{
		{BookID: 2, Title: "B"},
		{BookID: 1, Title: "A"},
	}, 0)
	o.AssignConfirmationToken(token)

	m := toOrderModel(o)
	assert.Equal(t, 0, m.Books[0].Position)
	assert.Equal(t, 1, m.Books[1].Position)
	assert.Equal(t, "id-1", m.Books[1].OrderID)

	back := toOrderEntity(m)
	assert.Equal(t, []uint{2, 1}, back.BookIDs())
	assert.Equal(t, "Kyiv", back.City)
	assert.Equal(t, &token, back.ConfirmationToken)
}

func TestOrderModel_RoundsTotalToCents(t *testing.T) {
	o := order.NewOrder("id-2", nil, order.PaymentCard, order.Recipient{Name: "Ann"}, []order.OrderedBook{{BookID: 1, Title: "A"}}, 0)
	o.TotalSum = decimal.RequireFromString("84.9915")

	assert.True(t, decimal.RequireFromString("84.99").Equal(toOrderModel(o).TotalSum))
}

func TestBookRepository_ListFilters(t *testing.T) {
	cases := []struct {
		name   string
		params book.ListParams
		where  string
		args   []interface{}
	}{
		{"author", book.ListParams{Author: "Frank Herbert"}, "author = ?", []interface{}{"Frank Herbert"}},
		{"publication year range", book.ListParams{MinYear: 2019, MaxYear: 2023}, "publication_year >= ? AND publication_year <= ?", []interface{}{2019, 2023}},
		{"new arrivals", book.ListParams{NewSince: time.Now().Add(-book.NewArrivalWindow)}, "created_at >= ?", []interface{}{sqlmock.AnyArg()}},
		{"sales threshold", book.ListParams{MinSales: book.BestsellerMinSales}, "sales_count >= ?", []interface{}{book.BestsellerMinSales}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.params.Page, tc.params.PageSize = 1, 20
			driverArgs := make([]driver.Value, len(tc.args))
			for i, a := range tc.args {
				driverArgs[i] = a
			}

			mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `books` WHERE " + tc.where)).
				WithArgs(driverArgs...).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `books` WHERE " + tc.where + " ORDER BY created_at DESC, id DESC")).
				WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "Dune"))

			books, total, err := NewBookRepository(db).List(context.Background(), tc.params)
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
			require.Len(t, books, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookRepository_ListCursor(t *testing.T) {
	db, mock := newMockDB(t)
	params := book.ListParams{Page: 1, PageSize: 2, InStock: true, Cursor: 40}

	// 总数不受游标影响
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `books` WHERE available_books > 0")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `books` WHERE available_books > 0 AND id > ? ORDER BY id ASC LIMIT")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41).AddRow(45).AddRow(47))

	books, total, err := NewBookRepository(db).List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	require.Len(t, books, 3)
	assert.Equal(t, uint(41), books[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookModel_PublicationYear(t *testing.T) {
	b := &book.Book{Title: "Dune", PublicationYear: 1965}
	assert.Equal(t, 1965, toBookEntity(toBookModel(b)).PublicationYear)
}
