package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apporder "github.com/xiebiao/bookstore-orders/internal/application/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/book"
	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/internal/domain/payment"
)

var merchant = payment.Merchant{
	PublicKey:  "public",
	PrivateKey: "private",
	Currency:   "UAH",
	ServerURL:  "https://api.example/payments/handle-webhook",
}

type stubOrders struct {
	order.Repository
	orders map[string]*order.Order
}

func (s *stubOrders) FindByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func TestPaymentForm(t *testing.T) {
	pending := order.NewOrder("o-1", nil, order.PaymentCard, order.Recipient{},
		[]order.OrderedBook{{BookID: 1, Price: decimal.RequireFromString("12.5")}}, 0)
	done := order.NewOrder("o-2", nil, order.PaymentCard, order.Recipient{}, nil, 0)
	require.NoError(t, done.Confirm())
	uc := NewPaymentFormUseCase(&stubOrders{orders: map[string]*order.Order{"o-1": pending, "o-2": done}}, merchant)
	ctx := context.Background()

	form, err := uc.Execute(ctx, "o-1", decimal.NullDecimal{})
	require.NoError(t, err)
	assert.Equal(t, payment.DefaultCheckoutURL, form.Action)
	assert.True(t, payment.NewSigner("private").Verify(form.Data, form.Signature))

	raw, err := base64.StdEncoding.DecodeString(form.Data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":12.50`)
	assert.Contains(t, string(raw), `"order_id":"o-1"`)

	_, err = uc.Execute(ctx, "o-1", decimal.NewNullDecimal(decimal.RequireFromString("12.50")))
	assert.NoError(t, err)

	_, err = uc.Execute(ctx, "o-1", decimal.NewNullDecimal(decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, payment.ErrAmountMismatch)

	_, err = uc.Execute(ctx, "missing", decimal.NullDecimal{})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = uc.Execute(ctx, "o-2", decimal.NullDecimal{})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) ByPayment(ctx context.Context, orderID string) (*apporder.ConfirmResult, error) {
	args := m.Called(ctx, orderID)
	res, _ := args.Get(0).(*apporder.ConfirmResult)
	return res, args.Error(1)
}

func (m *mockConfirmer) RecordUnfulfilledPayment(ctx context.Context, orderID string, cause error) error {
	return m.Called(ctx, orderID, cause).Error(0)
}

type memGuard struct {
	seen     map[string]bool
	released int
	err      error
}

func (g *memGuard) Claim(_ context.Context, data, signature string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	key := data + signature
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *memGuard) Release(_ context.Context, data, signature string) error {
	delete(g.seen, data+signature)
	g.released++
	return nil
}

func signed(t *testing.T, key, payload string) (string, string) {
	t.Helper()
	data := base64.StdEncoding.EncodeToString([]byte(payload))
	return data, payment.NewSigner(key).Sign(data)
}

func TestWebhook_ConfirmsOnceAndDedupes(t *testing.T) {
	confirmer := new(mockConfirmer)
	confirmer.On("ByPayment", mock.Anything, "o-1").Return(&apporder.ConfirmResult{OrderID: "o-1"}, nil).Once()
	guard := &memGuard{seen: map[string]bool{}}
	uc := NewHandleWebhookUseCase(merchant, confirmer, guard)

	data, sig := signed(t, "private", `{"order_id":"o-1","status":"success","amount":12.5,"currency":"UAH","payment_id":77}`)
	res, err := uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.Equal(t, &WebhookResult{Handled: true, OrderID: "o-1"}, res)

	res, err = uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	confirmer.AssertNumberOfCalls(t, "ByPayment", 1)
}

func TestWebhook_AlreadyConfirmedWithoutGuard(t *testing.T) {
	confirmer := new(mockConfirmer)
	confirmer.On("ByPayment", mock.Anything, "o-1").Return(&apporder.ConfirmResult{OrderID: "o-1", AlreadyConfirmed: true}, nil)
	uc := NewHandleWebhookUseCase(merchant, confirmer, nil)

	data, sig := signed(t, "private", `{"order_id":"o-1","status":"success"}`)
	res, err := uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.True(t, res.Duplicate)
}

func TestWebhook_NotHandled(t *testing.T) {
	confirmer := new(mockConfirmer)
	uc := NewHandleWebhookUseCase(merchant, confirmer, &memGuard{seen: map[string]bool{}})
	ctx := context.Background()

	data, _ := signed(t, "private", `{"order_id":"o-1","status":"success"}`)
	res, err := uc.Execute(ctx, data, "forged")
	require.NoError(t, err)
	assert.False(t, res.Handled)

	data, sig := signed(t, "wrong-key", `{"order_id":"o-1","status":"success"}`)
	res, err = uc.Execute(ctx, data, sig)
	require.NoError(t, err)
	assert.False(t, res.Handled)

	data, sig = signed(t, "private", `{"order_id":"o-1","status":"failure"}`)
	res, err = uc.Execute(ctx, data, sig)
	require.NoError(t, err)
	assert.False(t, res.Handled)
	assert.Equal(t, "o-1", res.OrderID)

	data, sig = signed(t, "private", `{"order_id":"o-1","status":"sandbox"}`)
	res, err = uc.Execute(ctx, data, sig)
	require.NoError(t, err)
	assert.False(t, res.Handled)

	data, sig = signed(t, "private", `not json`)
	res, err = uc.Execute(ctx, data, sig)
	require.NoError(t, err)
	assert.False(t, res.Handled)

	confirmer.AssertNotCalled(t, "ByPayment", mock.Anything, mock.Anything)
}

func TestWebhook_SandboxAccepted(t *testing.T) {
	confirmer := new(mockConfirmer)
	confirmer.On("ByPayment", mock.Anything, "o-3").Return(&apporder.ConfirmResult{OrderID: "o-3"}, nil)
	sandbox := merchant
	sandbox.Sandbox = true
	uc := NewHandleWebhookUseCase(sandbox, confirmer, nil)

	data, sig := signed(t, "private", `{"order_id":"o-3","status":"sandbox"}`)
	res, err := uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.True(t, res.Handled)
}

func TestWebhook_FailureReleasesFingerprint(t *testing.T) {
	confirmer := new(mockConfirmer)
	boom := errors.New("db down")
	confirmer.On("ByPayment", mock.Anything, "o-1").Return(nil, boom).Once()
	confirmer.On("ByPayment", mock.Anything, "gone").Return(nil, order.ErrOrderNotFound).Once()
	guard := &memGuard{seen: map[string]bool{}}
	uc := NewHandleWebhookUseCase(merchant, confirmer, guard)

	data, sig := signed(t, "private", `{"order_id":"o-1","status":"success"}`)
	_, err := uc.Execute(context.Background(), data, sig)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, guard.released)
	assert.Empty(t, guard.seen)

	data, sig = signed(t, "private", `{"order_id":"gone","status":"success"}`)
	res, err := uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.False(t, res.Handled)
}

func TestWebhook_OutOfStockIsHandledAndEscalated(t *testing.T) {
	confirmer := new(mockConfirmer)
	confirmer.On("ByPayment", mock.Anything, "o-1").Return(nil, book.ErrInsufficientStock).Once()
	confirmer.On("RecordUnfulfilledPayment", mock.Anything, "o-1", book.ErrInsufficientStock).Return(nil).Once()
	guard := &memGuard{seen: map[string]bool{}}
	uc := NewHandleWebhookUseCase(merchant, confirmer, guard)

	data, sig := signed(t, "private", `{"order_id":"o-1","status":"success","amount":12.5}`)
	res, err := uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.Equal(t, &WebhookResult{Handled: true, OrderID: "o-1", Unfulfilled: true}, res)
	assert.Zero(t, guard.released)

	// 网关重试命中指纹,不会重复通知店员
	res, err = uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	confirmer.AssertExpectations(t)
}

func TestWebhook_RecordFailureIsServerError(t *testing.T) {
	confirmer := new(mockConfirmer)
	boom := errors.New("db down")
	confirmer.On("ByPayment", mock.Anything, "o-1").Return(nil, book.ErrInsufficientStock)
	confirmer.On("RecordUnfulfilledPayment", mock.Anything, "o-1", book.ErrInsufficientStock).Return(boom)
	guard := &memGuard{seen: map[string]bool{}}
	uc := NewHandleWebhookUseCase(merchant, confirmer, guard)

	data, sig := signed(t, "private", `{"order_id":"o-1","status":"success"}`)
	_, err := uc.Execute(context.Background(), data, sig)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, guard.released)
}

func TestWebhook_GuardErrorFallsThrough(t *testing.T) {
	confirmer := new(mockConfirmer)
	confirmer.On("ByPayment", mock.Anything, "o-1").Return(&apporder.ConfirmResult{OrderID: "o-1"}, nil)
	uc := NewHandleWebhookUseCase(merchant, confirmer, &memGuard{err: errors.New("redis down")})

	data, sig := signed(t, "private", `{"order_id":"o-1","status":"success"}`)
	res, err := uc.Execute(context.Background(), data, sig)
	require.NoError(t, err)
	assert.True(t, res.Handled)
}
