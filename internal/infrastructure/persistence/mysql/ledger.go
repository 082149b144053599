package mysql

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
)

// stockLedger 库存台账
// 每本书一条原子UPDATE:
//
//	UPDATE books SET available_books = available_books - 1, sales_count = sales_count + 1
//	WHERE id = ? AND available_books >= 1
//
// 影响行数为0时再查一次区分"书不存在"和"库存不足"。
// 按ID升序执行,并发确认不同订单时加锁顺序一致。
type stockLedger struct {
	db *gorm.DB
}

func NewStockLedger(db *gorm.DB) book.Ledger {
	return &stockLedger{db: db}
}

func (l *stockLedger) ApplyConfirmation(ctx context.Context, bookIDs []uint) error {
	ids := append([]uint(nil), bookIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	db := getDB(ctx, l.db)
	for _, id := range ids {
		result := db.Model(&BookModel{}).
			Where("id = ? AND available_books >= 1", id).
			UpdateColumns(map[string]interface{}{
				"available_books": gorm.Expr("available_books - 1"),
				"sales_count":     gorm.Expr("sales_count + 1"),
			})
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "更新库存失败")
		}
		if result.RowsAffected > 0 {
			continue
		}

		var count int64
		if err := db.Model(&BookModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询图书失败")
		}
		if count == 0 {
			logger.FromCtx(ctx).Warn("ordered book no longer exists, skipping stock update", zap.Uint("book_id", id))
			continue
		}
		return book.ErrInsufficientStock
	}
	return nil
}
