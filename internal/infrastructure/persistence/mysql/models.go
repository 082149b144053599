package mysql

import (
	"time"

	"github.com/shopspring/decimal"
)

// GORM数据模型
// 说明:
// 1. 这是infrastructure层的数据模型,包含GORM tag
// 2. domain层的实体不依赖GORM,Repository负责两者之间的转换
// 3. 金额统一使用decimal(12,2)

// UserModel 用户表
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string    `gorm:"size:255;not null;comment:密码(bcrypt)"`
	Nickname  string    `gorm:"size:50;not null;comment:昵称"`
	Role      string    `gorm:"size:16;not null;default:user;comment:角色(user/admin)"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (UserModel) TableName() string {
	return "users"
}

// BookModel 图书表
// available_books/sales_count 只在订单确认时通过原子UPDATE变化
type BookModel struct {
	ID              uint            `gorm:"primaryKey"`
	Title           string          `gorm:"uniqueIndex;size:200;not null;comment:书名"`
	Author          string          `gorm:"index;size:100;not null;comment:作者"`
	Genre           string          `gorm:"index;size:50;comment:类别"`
	Description     string          `gorm:"type:text;comment:图书描述"`
	CoverURL        string          `gorm:"size:500;comment:封面图片URL"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:原价"`
	DiscountedPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;comment:折后价(0表示不打折)"`
	AvailableBooks  int             `gorm:"not null;default:0;comment:库存"`
	SalesCount      int             `gorm:"index;not null;default:0;comment:销量"`
	PublicationYear int             `gorm:"index;not null;default:0;comment:出版年份"`
	PublisherID     uint            `gorm:"index;comment:上架管理员ID"`
	CreatedAt       time.Time       `gorm:"index;comment:创建时间"`
	UpdatedAt       time.Time       `gorm:"comment:更新时间"`
}

func (BookModel) TableName() string {
	return "books"
}

// OrderModel 订单表
// 1. 主键为UUID字符串,确认链接与支付回调都用它定位订单
// 2. confirmation_token 唯一且可为NULL,确认后清空
type OrderModel struct {
	ID                string           `gorm:"primaryKey;size:36;comment:订单ID"`
	UserID            *uint            `gorm:"index;comment:下单用户(匿名为NULL)"`
	Status            string           `gorm:"index;size:16;not null;default:pending;comment:状态(pending/confirmed)"`
	PaymentMethod     string           `gorm:"size:16;not null;comment:支付方式(cash/card)"`
	ConfirmationToken *string          `gorm:"uniqueIndex;size:64;comment:现金订单确认令牌"`
	PromoCode         string           `gorm:"size:64;comment:使用的优惠码"`
	TotalSum          decimal.Decimal  `gorm:"type:decimal(12,2);not null;comment:应付金额"`
	Quantity          int              `gorm:"not null;comment:图书数量"`
	Name              string           `gorm:"index;size:100;not null;comment:收件人名"`
	LastName          string           `gorm:"size:100;comment:收件人姓"`
	Phone             string           `gorm:"size:32;comment:电话"`
	Email             string           `gorm:"size:100;comment:邮箱"`
	City              string           `gorm:"index;size:100;comment:城市"`
	DeliveryMethod    string           `gorm:"size:50;comment:配送方式"`
	BranchAddress     string           `gorm:"size:255;comment:网点地址"`
	Books             []OrderBookModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt            *time.Time       `gorm:"comment:已收款但未能确认的时间"`
	CreatedAt         time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt         time.Time        `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderBookModel 订单图书快照
type OrderBookModel struct {
	ID              uint            `gorm:"primaryKey"`
	OrderID         string          `gorm:"index;size:36;not null;comment:订单ID"`
	BookID          uint            `gorm:"index;not null;comment:图书ID"`
	Position        int             `gorm:"not null;comment:下单顺序"`
	Title           string          `gorm:"size:200;comment:书名快照"`
	Author          string          `gorm:"size:100;comment:作者快照"`
	Genre           string          `gorm:"size:50;comment:类别快照"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:下单时原价"`
	DiscountedPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;comment:下单时折后价"`
}

func (OrderBookModel) TableName() string {
	return "order_books"
}

// PromoCodeModel 优惠码表
type PromoCodeModel struct {
	ID              uint                `gorm:"primaryKey"`
	Code            string              `gorm:"uniqueIndex;size:64;not null;comment:优惠码"`
	DiscountPercent int                 `gorm:"not null;comment:折扣百分比"`
	MaxDiscount     decimal.NullDecimal `gorm:"type:decimal(12,2);comment:最大优惠金额"`
	MinOrderAmount  decimal.NullDecimal `gorm:"type:decimal(12,2);comment:最低订单金额"`
	ExpirationDate  *time.Time          `gorm:"index;comment:过期时间"`
	IsActive        bool                `gorm:"index;not null;comment:是否启用"`
	CreatedBy       uint                `gorm:"comment:创建人"`
	CreatedAt       time.Time           `gorm:"index;comment:创建时间"`
	UpdatedAt       time.Time           `gorm:"comment:更新时间"`
}

func (PromoCodeModel) TableName() string {
	return "promo_codes"
}
