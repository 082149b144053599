package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// orderRepository 订单仓储实现
// 1. 订单与图书快照(order_books)一起读写
// 2. Lock*方法使用SELECT ... FOR UPDATE,必须在事务内调用
type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create GORM自动插入关联的Books快照
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建订单失败")
	}
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.first(getDB(ctx, r.db).Where("id = ?", id), order.ErrOrderNotFound)
}

func (r *orderRepository) LockByID(ctx context.Context, id string) (*order.Order, error) {
	query := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	return r.first(query, order.ErrOrderNotFound)
}

// LockByToken 令牌在确认后被清空,已确认订单查不到
func (r *orderRepository) LockByToken(ctx context.Context, token string) (*order.Order, error) {
	query := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("confirmation_token = ?", token)
	return r.first(query, order.ErrConfirmationTokenNotFound)
}

func (r *orderRepository) first(query *gorm.DB, notFound error) (*order.Order, error) {
	var model OrderModel
	err := query.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&model).Error
	if err != nil {
		if isNotFound(err) {
			return nil, notFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// MarkConfirmed 条件更新,只有pending订单会被修改
func (r *orderRepository) MarkConfirmed(ctx context.Context, id string) (bool, error) {
	result := getDB(ctx, r.db).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(order.StatusPending)).
		Updates(map[string]interface{}{
			"status":             string(order.StatusConfirmed),
			"confirmation_token": nil,
		})
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "确认订单失败")
	}
	return result.RowsAffected == 1, nil
}

// MarkPaymentReceived 只写paid_at,状态保持不变
func (r *orderRepository) MarkPaymentReceived(ctx context.Context, id string, at time.Time) error {
	result := getDB(ctx, r.db).Model(&OrderModel{}).Where("id = ?", id).Update("paid_at", at)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "记录收款失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// Update 只写收件人与配送字段
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	result := getDB(ctx, r.db).Model(&OrderModel{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
		"name":            o.Name,
		"last_name":       o.LastName,
		"phone":           o.Phone,
		"email":           o.Email,
		"city":            o.City,
		"delivery_method": o.DeliveryMethod,
		"branch_address":  o.BranchAddress,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// Delete 硬删除订单及快照
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	return getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&OrderBookModel{}).Error; err != nil {
			return apperrors.Wrap(err, "删除订单图书失败")
		}
		result := tx.Where("id = ?", id).Delete(&OrderModel{})
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "删除订单失败")
		}
		if result.RowsAffected == 0 {
			return order.ErrOrderNotFound
		}
		return nil
	})
}

func (r *orderRepository) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	query := getDB(ctx, r.db).Model(&OrderModel{})
	if f.Status != "" {
		query = query.Where("status = ?", string(f.Status))
	}
	if f.PaymentMethod != "" {
		query = query.Where("payment_method = ?", string(f.PaymentMethod))
	}
	if f.City != "" {
		query = query.Where("city = ?", f.City)
	}
	if f.Name != "" {
		query = query.Where("name = ?", f.Name)
	}
	if f.CreatedOn != nil {
		query = query.Where("DATE(created_at) = ?", dateOnly(*f.CreatedOn))
	}

	var models []OrderModel
	err := query.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("created_at DESC").Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toOrderEntity(&models[i]))
	}
	return orders, nil
}

// DeletePendingBefore 清理超时未确认的订单
// 先取出ID再按ID删除,删除时再次校验status,避免误删刚被确认的订单
func (r *orderRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&OrderModel{}).
			Where("status = ? AND created_at < ? AND paid_at IS NULL", string(order.StatusPending), cutoff).
			Pluck("id", &ids).Error
		if err != nil {
			return apperrors.Wrap(err, "查询过期订单失败")
		}
		if len(ids) == 0 {
			return nil
		}

		result := tx.Where("id IN ? AND status = ? AND paid_at IS NULL", ids, string(order.StatusPending)).Delete(&OrderModel{})
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "删除过期订单失败")
		}
		deleted = result.RowsAffected

		// 只删除已不存在的订单的快照
		err = tx.Where("order_id IN ? AND order_id NOT IN (?)", ids, tx.Model(&OrderModel{}).Select("id")).
			Delete(&OrderBookModel{}).Error
		if err != nil {
			return apperrors.Wrap(err, "删除过期订单图书失败")
		}
		return nil
	})
	return deleted, err
}

func toOrderModel(o *order.Order) *OrderModel {
	books := make([]OrderBookModel, 0, len(o.Books))
	for i, b := range o.Books {
		books = append(books, OrderBookModel{
			OrderID:         o.ID,
			BookID:          b.BookID,
			Position:        i,
			Title:           b.Title,
			Author:          b.Author,
			Genre:           b.Genre,
			Price:           b.Price,
			DiscountedPrice: b.DiscountedPrice,
		})
	}
	return &OrderModel{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            string(o.Status),
		PaymentMethod:     string(o.PaymentMethod),
		ConfirmationToken: o.ConfirmationToken,
		PromoCode:         o.PromoCode,
		TotalSum:          o.TotalSum.Round(2),
		Quantity:          o.Quantity,
		Name:              o.Name,
		LastName:          o.LastName,
		Phone:             o.Phone,
		Email:             o.Email,
		City:              o.City,
		DeliveryMethod:    o.DeliveryMethod,
		BranchAddress:     o.BranchAddress,
		Books:             books,
		PaidAt:            o.PaidAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toOrderEntity(m *OrderModel) *order.Order {
	books := make([]order.OrderedBook, 0, len(m.Books))
	for _, b := range m.Books {
		books = append(books, order.OrderedBook{
			BookID:          b.BookID,
			Title:           b.Title,
			Author:          b.Author,
			Genre:           b.Genre,
			Price:           b.Price,
			DiscountedPrice: b.DiscountedPrice,
		})
	}
	return &order.Order{
		ID:                m.ID,
		UserID:            m.UserID,
		Status:            order.Status(m.Status),
		PaymentMethod:     order.PaymentMethod(m.PaymentMethod),
		ConfirmationToken: m.ConfirmationToken,
		PromoCode:         m.PromoCode,
		TotalSum:          m.TotalSum,
		Quantity:          m.Quantity,
		Recipient: order.Recipient{
			Name:           m.Name,
			LastName:       m.LastName,
			Phone:          m.Phone,
			Email:          m.Email,
			City:           m.City,
			DeliveryMethod: m.DeliveryMethod,
			BranchAddress:  m.BranchAddress,
		},
		Books:     books,
		PaidAt:    m.PaidAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
