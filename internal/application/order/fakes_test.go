package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/promo"
	"github.com/xiebiao/bookstore-orders/internal/domain/user"
	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

// memStore 内存版订单仓储+库存台账+事务管理器
// Transaction 串行执行(相当于行锁),fn出错时恢复快照
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	orders map[string]*order.Order
	books  map[uint]*book.Book
}

func newMemStore(books ...*book.Book) *memStore {
	s := &memStore{orders: map[string]*order.Order{}, books: map[uint]*book.Book{}}
	for _, b := range books {
		s.books[b.ID] = b
	}
	return s
}

func (s *memStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	orders, books := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.orders, s.books = orders, books
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) snapshot() (map[string]*order.Order, map[uint]*book.Book) {
	orders := make(map[string]*order.Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = cloneOrder(v)
	}
	books := make(map[uint]*book.Book, len(s.books))
	for k, v := range s.books {
		cp := *v
		books[k] = &cp
	}
	return orders, books
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Books = append([]order.OrderedBook(nil), o.Books...)
	if o.ConfirmationToken != nil {
		t := *o.ConfirmationToken
		cp.ConfirmationToken = &t
	}
	if o.PaidAt != nil {
		at := *o.PaidAt
		cp.PaidAt = &at
	}
	return &cp
}

func (s *memStore) book(id uint) book.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.books[id]
}

// order.Repository

func (s *memStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *memStore) LockByID(ctx context.Context, id string) (*order.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *memStore) LockByToken(_ context.Context, token string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ConfirmationToken != nil && *o.ConfirmationToken == token {
			return cloneOrder(o), nil
		}
	}
	return nil, order.ErrConfirmationTokenNotFound
}

func (s *memStore) MarkConfirmed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != order.StatusPending {
		return false, nil
	}
	o.Status = order.StatusConfirmed
	o.ConfirmationToken = nil
	return true, nil
}

func (s *memStore) MarkPaymentReceived(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.PaidAt = &at
	return nil
}

func (s *memStore) Update(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return order.ErrOrderNotFound
	}
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return order.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *memStore) List(_ context.Context, f order.Filter) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Order
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.City != "" && o.City != f.City {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) DeletePendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, o := range s.orders {
		if o.Status == order.StatusPending && o.PaidAt == nil && o.CreatedAt.Before(cutoff) {
			delete(s.orders, id)
			n++
		}
	}
	return n, nil
}

// book.Ledger

func (s *memStore) ApplyConfirmation(_ context.Context, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		b, ok := s.books[id]
		if !ok {
			continue
		}
		if err := b.ApplySale(); err != nil {
			return err
		}
	}
	return nil
}

// book.Repository(只实现下单用到的方法)

type memBooks struct {
	book.Repository
	books map[uint]*book.Book
}

func (m *memBooks) FindByIDs(_ context.Context, ids []uint) ([]*book.Book, error) {
	var out []*book.Book
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUsers struct {
	user.Repository
	ids map[uint]bool
}

func (m *memUsers) FindByID(_ context.Context, id uint) (*user.User, error) {
	if !m.ids[id] {
		return nil, apperrors.ErrUserNotFound
	}
	return &user.User{ID: id}, nil
}

type mockPromos struct {
	promo.Service
	mock.Mock
}

func (m *mockPromos) Evaluate(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, code, total)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type recordingSink struct {
	mu  sync.Mutex
	got []order.Notification
	err error
}

func (r *recordingSink) Notify(_ context.Context, n order.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingSink) kinds() []order.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []order.Kind
	for _, n := range r.got {
		out = append(out, n.Kind)
	}
	return out
}

func newBook(id uint, price, discounted string, stock int) *book.Book {
	b := book.NewBook("title", "author", "genre", "", "",
		decimal.RequireFromString(price), decimal.RequireFromString(discounted), stock, 1)
	b.ID = id
	return b
}
