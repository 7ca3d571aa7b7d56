package cart

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Pricing is the canonical pricing configuration applied to every cart.
type Pricing struct {
	Currency              string
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// DefaultPricing returns INR pricing with 8% tax and free shipping above 10000.
func DefaultPricing() Pricing {
	return Pricing{
		Currency:              "INR",
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(10000),
		FlatShippingFee:       decimal.NewFromInt(100),
	}
}

// taxPlaces is the precision tax is rounded to (half away from zero).
const taxPlaces = 2

// ComputeTotals prices a set of lines. It has no side effects.
// Shipping is free only when the subtotal is strictly above the threshold.
func ComputeTotals(lines []model.CartLine, p Pricing) model.Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := subtotal.Mul(p.TaxRate).Round(taxPlaces)

	shipping := p.FlatShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return model.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
