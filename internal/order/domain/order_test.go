package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seumarket/campus-market/internal/fault"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusCompleted, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusCompleted, false},
		{StatusPaid, StatusPending, false},
		{StatusShipped, StatusCompleted, true},
		{StatusShipped, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusPaid.Terminal())
	assert.False(t, StatusShipped.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, OrderStatus("refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestBuyerMayRequest(t *testing.T) {
	assert.True(t, StatusPending.BuyerMayRequest(StatusCancelled))
	assert.False(t, StatusPending.BuyerMayRequest(StatusPaid))
	assert.False(t, StatusPaid.BuyerMayRequest(StatusCancelled))
	assert.False(t, StatusShipped.BuyerMayRequest(StatusCancelled))
}

func TestValidateLineRequests(t *testing.T) {
	t.Run("accepts a well-formed cart", func(t *testing.T) {
		err := ValidateLineRequests([]LineRequest{
			{ListingID: 1, Quantity: 1},
			{ListingID: 2, Quantity: MaxLineQuantity},
		})
		require.NoError(t, err)
	})

	t.Run("rejects an empty cart", func(t *testing.T) {
		err := ValidateLineRequests(nil)
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})

	t.Run("rejects too many lines", func(t *testing.T) {
		lines := make([]LineRequest, MaxOrderLines+1)
		for i := range lines {
			lines[i] = LineRequest{ListingID: int64(i + 1), Quantity: 1}
		}
		err := ValidateLineRequests(lines)
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})

	t.Run("rejects duplicate listings", func(t *testing.T) {
		err := ValidateLineRequests([]LineRequest{
			{ListingID: 7, Quantity: 1},
			{ListingID: 7, Quantity: 2},
		})
		require.Error(t, err)
		assert.Contains(t, fault.MessageOf(err), "duplicate")
	})

	t.Run("rejects out-of-range quantities", func(t *testing.T) {
		for _, qty := range []int{0, -1, MaxLineQuantity + 1} {
			err := ValidateLineRequests([]LineRequest{{ListingID: 1, Quantity: qty}})
			assert.Equal(t, fault.KindValidation, fault.KindOf(err), "quantity %d", qty)
		}
	})

	t.Run("rejects non-positive listing ids", func(t *testing.T) {
		err := ValidateLineRequests([]LineRequest{{ListingID: 0, Quantity: 1}})
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})
}

func TestTotalOf(t *testing.T) {
	lines := []OrderLine{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
	}
	assert.True(t, TotalOf(lines).Equal(decimal.RequireFromString("59.98")))
	assert.True(t, TotalOf(nil).Equal(decimal.Zero))
}

func TestSubtotalIsExact(t *testing.T) {
	// 0.1 * 3 must be exactly 0.3, not a float approximation.
	l := OrderLine{Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")}
	assert.Equal(t, "0.30", l.Subtotal().StringFixed(2))
}

func TestNewOrderNumber(t *testing.T) {
	a := NewOrderNumber()
	b := NewOrderNumber()

	assert.True(t, strings.HasPrefix(a, "ORD"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToUpper(a), a)
}
