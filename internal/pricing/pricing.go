// Package pricing holds the single formula for discounted prices.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FinalPrice returns price × (1 − discount/100).
//
// The arithmetic runs in decimal so that e.g. 1000 at 10% is exactly 900.
func FinalPrice(price, discount float64) float64 {
	p := decimal.NewFromFloat(price)
	if discount <= 0 {
		return p.InexactFloat64()
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discount).Div(hundred))
	return p.Mul(factor).InexactFloat64()
}
