package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookstore-orders/internal/domain/order"
	"github.com/xiebiao/bookstore-orders/pkg/circuitbreaker"
	"github.com/xiebiao/bookstore-orders/pkg/mq"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

type recordingSink struct {
	got []order.Notification
}

func (r *recordingSink) Notify(_ context.Context, n order.Notification) error {
	r.got = append(r.got, n)
	return nil
}

func sampleNotification() order.Notification {
	o := order.NewOrder("o-1", nil, order.PaymentCash, order.Recipient{Name: "Ann", City: "Kyiv"},
		[]order.OrderedBook{{BookID: 1, Title: "Dune", Price: decimal.NewFromInt(10)}}, 0)
	return order.NewNotification(order.KindPlaced, o, "https://shop/confirm/t")
}

func TestRabbitSink_PublishesByKind(t *testing.T) {
	pub := new(mockPublisher)
	n := sampleNotification()
	pub.On("Publish", mock.Anything, "order.placed", n).Return(nil).Once()

	sink := NewRabbitSink(pub, circuitbreaker.New(circuitbreaker.Settings{Name: "test-notify-ok"}))
	require.NoError(t, sink.Notify(context.Background(), n))
	pub.AssertExpectations(t)
}

func TestRabbitSink_OpensAfterFailures(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "test-notify-trip",
		OpenTimeout: time.Hour,
		ShouldTrip:  func(c circuitbreaker.Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	sink := NewRabbitSink(pub, breaker)

	for i := 0; i < 2; i++ {
		assert.Error(t, sink.Notify(context.Background(), sampleNotification()))
	}
	err := sink.Notify(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestStaffHandler(t *testing.T) {
	rec := &recordingSink{}
	handle := StaffHandler(rec)

	body := []byte(`{"orderId":"o-9","paymentMethod":"card","totalSum":"12.50","recipient":{"username":"Ann"}}`)
	require.NoError(t, handle(context.Background(), mq.Delivery{RoutingKey: "order.confirmed", Body: body}))
	require.Len(t, rec.got, 1)
	assert.Equal(t, order.KindConfirmed, rec.got[0].Kind)
	assert.Equal(t, "Ann", rec.got[0].Recipient.Name)
	assert.True(t, rec.got[0].TotalSum.Equal(decimal.RequireFromString("12.5")))

	err := handle(context.Background(), mq.Delivery{Body: []byte("{")})
	assert.ErrorIs(t, err, mq.ErrPermanent)
	assert.Equal(t, mq.Drop, mq.Disposition(err))
}

func TestLogSink(t *testing.T) {
	assert.NoError(t, NewLogSink().Notify(context.Background(), sampleNotification()))
}
