//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromo_CreateCheckAndApply(t *testing.T) {
	base := BaseURL(t)
	admin := AdminToken(t, base)
	code := fmt.Sprintf("IT%d", time.Now().UnixNano())

	resp := Send(t, http.MethodPost, base+"/promo-codes/create", map[string]interface{}{
		"code":            code,
		"discountPercent": 20,
		"maxDiscount":     json.Number("15"),
	}, admin)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)

	resp = Send(t, http.MethodPost, base+"/promo-codes/create", map[string]interface{}{
		"code":            code,
		"discountPercent": 10,
	}, admin)
	assert.Equal(t, http.StatusConflict, resp.Status)

	// 20% of 100 = 20, capped at 15
	resp = Send(t, http.MethodPost, base+"/promo-codes/check-promo-code", map[string]interface{}{
		"code":     code,
		"totalSum": json.Number("100"),
	}, "")
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)
	var checked struct {
		TotalSum string `json:"totalSum"`
	}
	resp.Decode(t, &checked)
	assert.Equal(t, "85", checked.TotalSum)

	bookID := PublishTestBook(t, base, admin, "50.00", 2)
	body := CheckoutRequest("card", "40.00", bookID)
	body["promoCode"] = code
	resp = Send(t, http.MethodPost, base+"/orders/checkout", body, "")
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var order CheckoutData
	resp.Decode(t, &order)
	assert.Equal(t, "40", order.TotalSum)

	t.Run("未知优惠码", func(t *testing.T) {
		resp := Send(t, http.MethodPost, base+"/promo-codes/check-promo-code", map[string]interface{}{
			"code":     code + "X",
			"totalSum": json.Number("100"),
		}, "")
		assert.Equal(t, http.StatusNotFound, resp.Status)
	})
}
