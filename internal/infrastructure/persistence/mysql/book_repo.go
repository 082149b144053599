package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// bookRepository 图书仓储实现
type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 书名唯一索引冲突时返回ErrTitleDuplicate
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrTitleDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByIDs 一次IN查询,不存在的ID直接忽略
func (r *bookRepository) FindByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	if len(ids) == 0 {
		return []*book.Book{}, nil
	}
	var models []BookModel
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "批量查询图书失败")
	}
	books := make([]*book.Book, 0, len(models))
	for i := range models {
		books = append(books, toBookEntity(&models[i]))
	}
	return books, nil
}

func (r *bookRepository) FindByTitle(ctx context.Context, title string) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).Where("title = ?", title).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// List 分页查询
// 1. keyword 模糊匹配书名与作者
// 2. Count与Find共用同一组过滤条件,游标条件只作用于Find
// 3. 游标模式按id升序,多取一条用于判断是否有下一页
func (r *bookRepository) List(ctx context.Context, p book.ListParams) ([]*book.Book, int64, error) {
	query := applyBookFilters(getDB(ctx, r.db).Model(&BookModel{}), p)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计图书数量失败")
	}

	if p.Keyset() {
		if p.Cursor > 0 {
			query = query.Where("id > ?", p.Cursor)
		}
		query = query.Order("id ASC").Limit(p.PageSize + 1)
	} else {
		query = query.Order(orderClause(p.SortBy)).
			Offset((p.Page - 1) * p.PageSize).
			Limit(p.PageSize)
	}

	var models []BookModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, 0, len(models))
	for i := range models {
		books = append(books, toBookEntity(&models[i]))
	}
	return books, total, nil
}

func applyBookFilters(query *gorm.DB, p book.ListParams) *gorm.DB {
	if p.Keyword != "" {
		like := "%" + p.Keyword + "%"
		query = query.Where("title LIKE ? OR author LIKE ?", like, like)
	}
	if p.Genre != "" {
		query = query.Where("genre = ?", p.Genre)
	}
	if p.Author != "" {
		query = query.Where("author = ?", p.Author)
	}
	if p.MinPrice.Valid {
		query = query.Where("price >= ?", p.MinPrice.Decimal)
	}
	if p.MaxPrice.Valid {
		query = query.Where("price <= ?", p.MaxPrice.Decimal)
	}
	if p.MinYear > 0 {
		query = query.Where("publication_year >= ?", p.MinYear)
	}
	if p.MaxYear > 0 {
		query = query.Where("publication_year <= ?", p.MaxYear)
	}
	if !p.NewSince.IsZero() {
		query = query.Where("created_at >= ?", p.NewSince)
	}
	if p.MinSales > 0 {
		query = query.Where("sales_count >= ?", p.MinSales)
	}
	if p.Discounted {
		query = query.Where("discounted_price > 0 AND discounted_price < price")
	}
	if p.InStock {
		query = query.Where("available_books > 0")
	}
	return query
}

func orderClause(sortBy string) string {
	switch sortBy {
	case book.SortPriceAsc:
		return "price ASC, id ASC"
	case book.SortPriceDesc:
		return "price DESC, id ASC"
	case book.SortSalesDesc:
		return "sales_count DESC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
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
		PublisherID:     b.PublisherID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookEntity(m *BookModel) *book.Book {
	return &book.Book{
		ID:              m.ID,
		Title:           m.Title,
		Author:          m.Author,
		Genre:           m.Genre,
		Description:     m.Description,
		CoverURL:        m.CoverURL,
		Price:           m.Price,
		DiscountedPrice: m.DiscountedPrice,
		AvailableBooks:  m.AvailableBooks,
		SalesCount:      m.SalesCount,
		PublicationYear: m.PublicationYear,
		PublisherID:     m.PublisherID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
