package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/spinshelf/spinshelf-backend/pkg/config"
)

// Line is the pricing view of one cart or order line.
type Line struct {
	UnitPriceCents int
	Quantity       int
	DiscountCents  int
}

// Totals aggregates every checkout amount. All values are minor units.
// TotalCents = SubtotalCents + TaxCents + ShippingCents - DiscountCents.
type Totals struct {
	SubtotalCents int
	TaxCents      int
	ShippingCents int
	DiscountCents int
	TotalCents    int
	TotalItems    int
}

// Calculator computes order totals from the configured pricing constants.
type Calculator struct {
	taxRateBps                 int
	freeShippingThresholdCents int
	shippingFeeCents           int
}

// NewCalculator builds a calculator from config.
func NewCalculator(cfg config.PricingConfig) Calculator {
	return Calculator{
		taxRateBps:                 cfg.TaxRateBps,
		freeShippingThresholdCents: cfg.FreeShippingThresholdCents,
		shippingFeeCents:           cfg.ShippingFeeCents,
	}
}

// Tax returns the tax amount for a subtotal, rounded half-up to the cent.
func (c Calculator) Tax(subtotalCents int) int {
	if subtotalCents <= 0 || c.taxRateBps <= 0 {
		return 0
	}
	tax := decimal.NewFromInt(int64(subtotalCents)).
		Mul(decimal.NewFromInt(int64(c.taxRateBps))).
		Div(decimal.NewFromInt(10000))
	return int(tax.Round(0).IntPart())
}

// Shipping returns the shipping cost: zero at or above the free-shipping
// threshold, the flat fee below it.
func (c Calculator) Shipping(subtotalCents int) int {
	if subtotalCents >= c.freeShippingThresholdCents {
		return 0
	}
	return c.shippingFeeCents
}

// Quote computes the full totals block for a set of lines.
func (c Calculator) Quote(lines []Line) Totals {
	var t Totals
	for _, line := range lines {
		t.SubtotalCents += line.UnitPriceCents * line.Quantity
		t.DiscountCents += line.DiscountCents
		t.TotalItems += line.Quantity
	}
	t.TaxCents = c.Tax(t.SubtotalCents)
	t.ShippingCents = c.Shipping(t.SubtotalCents)
	t.TotalCents = t.SubtotalCents + t.TaxCents + t.ShippingCents - t.DiscountCents
	return t
}

// PercentDiscount returns amount x percent / 100 rounded half-up to the cent.
func PercentDiscount(amountCents int, percent decimal.Decimal) int {
	if amountCents <= 0 || percent.Sign() <= 0 {
		return 0
	}
	discount := decimal.NewFromInt(int64(amountCents)).
		Mul(percent).
		Div(decimal.NewFromInt(100))
	return int(discount.Round(0).IntPart())
}
