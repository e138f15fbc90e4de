package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func twoLineCart() Cart {
	return Cart{Lines: []CartLine{
		{ProductID: "p-1", ProductName: "Steel Bottle", UnitPrice: 45000, Quantity: 2},
		{ProductID: "p-2", ProductName: "Cotton Tote", UnitPrice: 10000, Quantity: 1},
	}}
}

func TestTaxForRoundsHalfUpInMinorUnits(t *testing.T) {
	// 18% of 1999 is 359.82; half-up in minor units gives exactly 360.
	require.Equal(t, int64(360), TaxFor(1999, 1800))
	require.Equal(t, int64(18000), TaxFor(100000, 1800))
	require.Equal(t, int64(0), TaxFor(1999, 0))
}

func TestPriceCartFreeShippingThreshold(t *testing.T) {
	pricing := Pricing{ShippingFlat: 9900, FreeShippingMin: 100000, TaxRateBps: 1800}

	// Subtotal 100000 meets the threshold: shipping waived, tax 18%.
	quote, err := PriceCart(twoLineCart(), pricing, 0)
	require.NoError(t, err)
	require.Equal(t, int64(100000), quote.Subtotal)
	require.Equal(t, int64(0), quote.ShippingCost)
	require.Equal(t, int64(18000), quote.TaxAmount)
	require.Equal(t, int64(118000), quote.TotalAmount)
	require.Equal(t, "1180.00", DisplayString(quote.TotalAmount))

	// One paisa below the threshold pays flat shipping.
	small := Cart{Lines: []CartLine{{ProductID: "p-3", ProductName: "Sticker", UnitPrice: 99999, Quantity: 1}}}
	quote, err = PriceCart(small, pricing, 0)
	require.NoError(t, err)
	require.Equal(t, int64(9900), quote.ShippingCost)
}

func TestPriceCartTotalIdentity(t *testing.T) {
	pricing := Pricing{ShippingFlat: 4900, FreeShippingMin: 500000, TaxRateBps: 1800}
	quote, err := PriceCart(twoLineCart(), pricing, 2500)
	require.NoError(t, err)
	require.Equal(t, quote.Subtotal+quote.ShippingCost+quote.TaxAmount-quote.DiscountAmount, quote.TotalAmount)
}

func TestPriceCartRejectsBadInput(t *testing.T) {
	pricing := Pricing{TaxRateBps: 1800}

	_, err := PriceCart(Cart{}, pricing, 0)
	require.ErrorIs(t, err, ErrEmptyCart)

	bad := Cart{Lines: []CartLine{{ProductID: "p", UnitPrice: 0, Quantity: 1}}}
	_, err = PriceCart(bad, pricing, 0)
	require.ErrorIs(t, err, ErrInvalidLine)

	_, err = PriceCart(twoLineCart(), pricing, -1)
	require.ErrorIs(t, err, ErrInvalidTotal)

	// Discount swallowing the whole order is rejected.
	_, err = PriceCart(twoLineCart(), pricing, 10_000_000)
	require.ErrorIs(t, err, ErrInvalidTotal)
}

func TestNewOrderSnapshotsAndInvariant(t *testing.T) {
	cart := twoLineCart()
	pricing := Pricing{ShippingFlat: 9900, FreeShippingMin: 100000, TaxRateBps: 1800}
	quote, err := PriceCart(cart, pricing, 0)
	require.NoError(t, err)

	payment := CapturedPayment{
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_xyz",
		Amount:           quote.TotalAmount,
		Currency:         "INR",
	}
	addrs := Addresses{
		Billing:  Address{Name: "A Shopper", Line1: "1 Main St", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"},
		Shipping: Address{Name: "A Shopper", Line1: "2 Other St", City: "Pune", State: "MH", PostalCode: "411002", Country: "IN"},
	}

	order, err := NewOrder(cart, quote, payment, addrs)
	require.NoError(t, err)

	require.Equal(t, OrderConfirmed, order.Status)
	require.Equal(t, PaymentPaid, order.PaymentStatus)
	require.Equal(t, order.Subtotal+order.ShippingCost+order.TaxAmount-order.DiscountAmount, order.TotalAmount)
	require.Len(t, order.Items, 2)
	require.Equal(t, int64(90000), order.Items[0].LineTotal)
	require.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))

	// Item snapshots are copies: later cart edits must not reach the order.
	cart.Lines[0].ProductName = "Renamed"
	cart.Lines[0].UnitPrice = 1
	require.Equal(t, "Steel Bottle", order.Items[0].ProductName)
	require.Equal(t, int64(45000), order.Items[0].UnitPrice)

	// Address snapshots are values, not references.
	addrs.Billing.Line1 = "edited"
	require.Equal(t, "1 Main St", order.Billing.Line1)
}

func TestNewOrderRejectsInconsistentQuote(t *testing.T) {
	quote := Quote{Subtotal: 100, ShippingCost: 10, TaxAmount: 18, DiscountAmount: 0, TotalAmount: 999}
	_, err := NewOrder(twoLineCart(), quote, CapturedPayment{}, Addresses{})
	require.ErrorIs(t, err, ErrInvalidTotal)
}
