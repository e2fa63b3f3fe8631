package domain

import (
	"math"
	"strings"
)

// ProtocolFeeTon is the flat fee added to every order.
const ProtocolFeeTon = 0.05

// couponTable maps normalized coupon codes to discount rates. Shared by the
// client orchestrator and the gateway's total verification so both sides
// price an order identically.
var couponTable = map[string]float64{
	"welcome5": 0.05,
	"gift10":   0.10,
	"vip20":    0.20,
}

// NormalizeCoupon canonicalizes a code for matching: trimmed and lowercased.
func NormalizeCoupon(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// CouponRate returns the discount rate for a code. Matching is exact after
// normalization; unknown codes and the empty code yield (0, false).
func CouponRate(code string) (float64, bool) {
	normalized := NormalizeCoupon(code)
	if normalized == "" {
		return 0, false
	}
	rate, ok := couponTable[normalized]
	return rate, ok
}

// OrderTotal prices an order: subtotal plus the protocol fee minus the coupon
// discount, floored at zero so a discount can never push the total negative.
// Rounding to 2 decimals happens here and nowhere upstream.
func OrderTotal(subtotal float64, couponCode string) float64 {
	rate, _ := CouponRate(couponCode)
	total := subtotal + ProtocolFeeTon - subtotal*rate
	if total < 0 {
		total = 0
	}
	return Round2(total)
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
