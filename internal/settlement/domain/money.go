package domain

import "github.com/shopspring/decimal"

// All monetary arithmetic in this package is done in integer minor units
// (paise). Decimal values exist only at the display boundary.

// TaxFor computes tax on a subtotal at a rate in basis points, rounding
// half-up in minor units. 18% of 1999 is 360, not a float-drifted 359.
func TaxFor(subtotalMinor, rateBps int64) int64 {
	return (subtotalMinor*rateBps + 5000) / 10000
}

// Display converts minor units to a two-decimal display amount.
func Display(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// DisplayString renders minor units as a fixed two-decimal string.
func DisplayString(minor int64) string {
	return Display(minor).StringFixed(2)
}
