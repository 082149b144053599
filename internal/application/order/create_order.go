package order

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	"github.com/xiebiao/bookstore-orders/internal/domain/user"
	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
)

// MessageCashAccepted 现金订单创建成功后返回给客户的提示
const MessageCashAccepted = "Order is accepted, wait for a call to confirm the order."

// CreateOrderUseCase 下单用例
// 1. 下单不扣库存,库存只在确认时变化
// 2. 金额由服务端按快照单价计算,忽略客户端提交的totalSum
// 3. 现金订单生成确认令牌并通知店员;银行卡订单返回订单ID,由客户端继续发起支付
type CreateOrderUseCase struct {
	orderRepo order.Repository
	bookRepo  book.Repository
	userRepo  user.Repository
	promos    promo.Service
	sink      order.NotificationSink
	clientURL string
}

func NewCreateOrderUseCase(
	orderRepo order.Repository,
	bookRepo book.Repository,
	userRepo user.Repository,
	promos promo.Service,
	sink order.NotificationSink,
	clientURL string,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo: orderRepo,
		bookRepo:  bookRepo,
		userRepo:  userRepo,
		promos:    promos,
		sink:      sink,
		clientURL: clientURL,
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID        *uint // 登录用户,匿名下单为nil
	BookIDs       []uint
	PaymentMethod order.PaymentMethod
	PromoCode     string
	Recipient     order.Recipient
}

// CreateOrderResponse 现金订单只有Message,银行卡订单带OrderID
type CreateOrderResponse struct {
	OrderID  string          `json:"orderId,omitempty"`
	Message  string          `json:"message,omitempty"`
	TotalSum decimal.Decimal `json:"totalSum"`
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if !req.PaymentMethod.Valid() {
		return nil, order.ErrInvalidPaymentMethod
	}

	// 1. 登录用户必须存在
	if req.UserID != nil {
		if _, err := uc.userRepo.FindByID(ctx, *req.UserID); err != nil {
			return nil, err
		}
	}

	// 2. 解析图书,不存在的ID直接忽略
	books, err := uc.bookRepo.FindByIDs(ctx, uniqueIDs(req.BookIDs))
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, order.ErrNoBooksResolved
	}
	snapshot := make([]order.OrderedBook, 0, len(books))
	for _, b := range books {
		snapshot = append(snapshot, order.OrderedBook{
			BookID:          b.ID,
			Title:           b.Title,
			Author:          b.Author,
			Genre:           b.Genre,
			Price:           b.Price,
			DiscountedPrice: b.DiscountedPrice,
		})
	}

	o := order.NewOrder(order.NewOrderID(), req.UserID, req.PaymentMethod, req.Recipient, snapshot, 0)

	// 3. 优惠码:无效、过期或未达最低金额时拒绝下单
	if req.PromoCode != "" {
		total, err := uc.promos.Evaluate(ctx, req.PromoCode, o.Subtotal())
		metrics.PromoEvaluationsTotal.WithLabelValues(promo.Outcome(err)).Inc()
		if err != nil {
			return nil, err
		}
		o.PromoCode = req.PromoCode
		o.TotalSum = total
	}

	// 4. 现金订单在持久化前生成令牌
	var token string
	if o.PaymentMethod == order.PaymentCash {
		token = order.NewConfirmationToken()
		o.AssignConfirmationToken(token)
	}

	if err := uc.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	metrics.OrdersCreatedTotal.WithLabelValues(string(o.PaymentMethod)).Inc()

	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID), zap.String("payment_method", string(o.PaymentMethod)))
	log.Info("order created", zap.String("total_sum", o.TotalSum.StringFixed(2)), zap.Int("books", len(o.Books)))

	if o.PaymentMethod == order.PaymentCard {
		return &CreateOrderResponse{OrderID: o.ID, TotalSum: o.TotalSum.Round(2)}, nil
	}

	// 5. 通知店员,失败不影响下单结果
	link := order.ConfirmLink(uc.clientURL, token)
	if err := uc.sink.Notify(ctx, order.NewNotification(order.KindPlaced, o, link)); err != nil {
		log.Warn("staff notification failed", zap.Error(err))
	}
	return &CreateOrderResponse{Message: MessageCashAccepted, TotalSum: o.TotalSum.Round(2)}, nil
}

// uniqueIDs 去重并保留首次出现的顺序
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

