package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. 价格使用decimal.Decimal(两位小数),避免浮点误差
// 2. Title作为业务唯一标识(数据库层唯一索引)
// 3. AvailableBooks/SalesCount构成库存台账,只在订单确认时变化
// 4. DiscountedPrice为0表示未打折
type Book struct {
	ID              uint
	Title           string
	Author          string
	Genre           string
	Description     string
	CoverURL        string
	Price           decimal.Decimal
	DiscountedPrice decimal.Decimal
	AvailableBooks  int
	SalesCount      int
	PublicationYear int  // 0表示未知
	PublisherID     uint // 上架的管理员
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBook 创建新图书(工厂方法)
func NewBook(title, author, genre, description, coverURL string, price, discountedPrice decimal.Decimal, stock int, publisherID uint) *Book {
	now := time.Now()
	return &Book{
		Title:           title,
		Author:          author,
		Genre:           genre,
		Description:     description,
		CoverURL:        coverURL,
		Price:           price,
		DiscountedPrice: discountedPrice,
		AvailableBooks:  stock,
		PublisherID:     publisherID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsDiscounted 是否打折
func (b *Book) IsDiscounted() bool {
	return b.DiscountedPrice.IsPositive() && b.DiscountedPrice.LessThan(b.Price)
}

// EffectivePrice 下单时使用的单价(打折时取折后价)
func (b *Book) EffectivePrice() decimal.Decimal {
	if b.IsDiscounted() {
		return b.DiscountedPrice
	}
	return b.Price
}

// ApplySale 记一笔销售:库存-1,销量+1
// 业务规则:库存为0时拒绝,库存不能为负数
func (b *Book) ApplySale() error {
	if b.AvailableBooks < 1 {
		return ErrInsufficientStock
	}
	b.AvailableBooks--
	b.SalesCount++
	b.UpdatedAt = time.Now()
	return nil
}
