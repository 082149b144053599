package book

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于Mock测试,不依赖具体数据库实现
type Repository interface {
	Create(ctx context.Context, book *Book) error

	// FindByID 不存在时返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByIDs 批量查询,不存在的ID直接忽略,结果按ID升序
	FindByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	FindByTitle(ctx context.Context, title string) (*Book, error)

	// List 返回过滤后的一页和过滤后的总数
	// 游标模式(Keyset)下按id升序多取一条,调用方据此判断是否还有下一页
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

// Ledger 库存台账
//
// ApplyConfirmation 对每本书执行 available_books-1、sales_count+1。
// 必须与订单状态变更处于同一事务(事务通过ctx传递)。
// 库存为0时返回ErrInsufficientStock,调用方回滚整个确认;
// 已被删除的书跳过。
type Ledger interface {
	ApplyConfirmation(ctx context.Context, bookIDs []uint) error
}

// 排序方式
const (
	SortCreatedAtDesc = "created_at_desc"
	SortPriceAsc      = "price_asc"
	SortPriceDesc     = "price_desc"
	SortSalesDesc     = "sales_desc"
	SortIDAsc         = "id_asc" // 游标分页的排序
)

const (
	// NewArrivalWindow 上架多久以内算新书
	NewArrivalWindow = 7 * 24 * time.Hour
	// BestsellerMinSales 畅销书的销量门槛
	BestsellerMinSales = 100
)

// ListParams 列表查询参数
// 可选条件为零值时不参与过滤
type ListParams struct {
	Page       int
	PageSize   int
	Keyword    string // 匹配书名、作者
	Genre      string
	Author     string // 作者精确匹配
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
	MinYear    int // 出版年份区间(含)
	MaxYear    int
	NewSince   time.Time // 只看此时间之后上架的书
	MinSales   int
	Discounted bool // 只看打折书
	InStock    bool // 只看有货
	SortBy     string
	Cursor     uint // 上一页最后一本书的id;>0时取id更大的书
}

// Keyset 是否使用游标分页(忽略Page,按id升序)
func (p ListParams) Keyset() bool {
	return p.Cursor > 0 || p.SortBy == SortIDAsc
}
