package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleOrder(method PaymentMethod) *Order {
	books := []OrderedBook{
		{BookID: 1, Title: "Dune", Price: dec("40.00"), DiscountedPrice: dec("30.00")},
		{BookID: 2, Title: "Emma", Price: dec("70.00")},
	}
	return NewOrder(NewOrderID(), nil, method, Recipient{Name: "Ivan", City: "Kyiv"}, books, 0)
}

func TestNewOrder(t *testing.T) {
	o := sampleOrder(PaymentCash)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 2, o.Quantity)
	assert.Equal(t, "100.00", o.TotalSum.StringFixed(2))
	assert.Equal(t, []uint{1, 2}, o.BookIDs())
	assert.Nil(t, o.ConfirmationToken)
	assert.Len(t, o.ID, 36)
}

func TestOrder_Confirm(t *testing.T) {
	o := sampleOrder(PaymentCash)
	o.AssignConfirmationToken(NewConfirmationToken())
	require.NotNil(t, o.ConfirmationToken)
	assert.Len(t, *o.ConfirmationToken, 32)

	require.NoError(t, o.Confirm())
	assert.True(t, o.IsConfirmed())
	assert.Nil(t, o.ConfirmationToken)

	// confirmed是终态
	assert.ErrorIs(t, o.Confirm(), ErrInvalidStatusTransition)
	assert.False(t, o.CanTransitionTo(StatusPending))
}

func TestOrder_ApplyPatchKeepsImmutableFields(t *testing.T) {
	o := sampleOrder(PaymentCard)
	city := "Lviv"
	phone := "+380001112233"
	o.ApplyPatch(Patch{City: &city, Phone: &phone})

	assert.Equal(t, "Lviv", o.City)
	assert.Equal(t, "+380001112233", o.Phone)
	assert.Equal(t, "Ivan", o.Name)
	assert.Equal(t, PaymentCard, o.PaymentMethod)
	assert.Equal(t, StatusPending, o.Status)
}

func TestConfirmLink(t *testing.T) {
	assert.Equal(t, "https://shop.example/confirm/abc", ConfirmLink("https://shop.example/", "abc"))
	assert.Equal(t, "https://shop.example/confirm/abc", ConfirmLink("https://shop.example", "abc"))
}

func TestRenderStaffMessage(t *testing.T) {
	cash := sampleOrder(PaymentCash)
	msg := RenderStaffMessage(NewNotification(KindPlaced, cash, "https://shop.example/confirm/abc"))
	assert.Contains(t, msg, "Name: Ivan")
	assert.Contains(t, msg, "Total sum: 100.00")
	assert.Contains(t, msg, "name:Dune")
	assert.Contains(t, msg, "discounted price:30.00")
	assert.Contains(t, msg, "link to confirm order:https://shop.example/confirm/abc")

	card := sampleOrder(PaymentCard)
	msg = RenderStaffMessage(NewNotification(KindConfirmed, card, ""))
	assert.Contains(t, msg, "Order has been confirmed")
	assert.NotContains(t, msg, "link to confirm order")

	unfulfilled := NewNotification(KindPaymentUnfulfilled, card, "")
	unfulfilled.Reason = "Book is out of stock"
	msg = RenderStaffMessage(unfulfilled)
	assert.Contains(t, msg, "could not be confirmed: Book is out of stock")
	assert.NotContains(t, msg, "Order has been confirmed")
}
