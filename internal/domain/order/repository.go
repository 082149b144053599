package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 事务通过context传递,Lock*方法必须在事务内调用
type Repository interface {
	// Create 创建订单(包含图书快照)
	Create(ctx context.Context, order *Order) error

	// FindByID 不存在时返回ErrOrderNotFound
	FindByID(ctx context.Context, id string) (*Order, error)

	// LockByID SELECT ... FOR UPDATE 锁定订单行
	LockByID(ctx context.Context, id string) (*Order, error)

	// LockByToken 按确认令牌锁定订单,不存在时返回ErrConfirmationTokenNotFound
	LockByToken(ctx context.Context, token string) (*Order, error)

	// MarkConfirmed 条件更新: WHERE id=? AND status='pending'
	// 返回是否真的发生了状态变更
	MarkConfirmed(ctx context.Context, id string) (bool, error)

	// MarkPaymentReceived 记录收款时间,不改变状态;不存在时返回ErrOrderNotFound
	MarkPaymentReceived(ctx context.Context, id string, at time.Time) error

	// Update 只更新收件人与配送字段
	Update(ctx context.Context, order *Order) error

	// Delete 硬删除订单及快照
	Delete(ctx context.Context, id string) error

	// List 按条件查询全部匹配订单,created_at倒序,不分页
	List(ctx context.Context, filter Filter) ([]*Order, error)

	// DeletePendingBefore 删除创建时间早于cutoff且未收款的pending订单,返回删除数量
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filter 列表过滤条件,零值表示不过滤
type Filter struct {
	Status        Status
	PaymentMethod PaymentMethod
	City          string
	Name          string     // 收件人名
	CreatedOn     *time.Time // 按创建日期(当天)过滤
}
