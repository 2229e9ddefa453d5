package domain

import "github.com/shopspring/decimal"

var (
	FreeShippingThreshold = decimal.NewFromInt(150)
	StandardShipping      = decimal.NewFromInt(10)
)

func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// Shipping is free once the subtotal reaches the threshold.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return StandardShipping
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// ComputeTotals sums price x quantity over the lines and adds the shipping surcharge.
// An empty set of lines costs nothing, shipping included.
func ComputeTotals(lines []OrderItem) Totals {
	if len(lines) == 0 {
		return Totals{}
	}
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line.Price, line.Quantity))
	}
	shipping := Shipping(subtotal)
	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    subtotal.Add(shipping).InexactFloat64(),
	}
}
