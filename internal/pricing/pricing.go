// Package pricing computes checkout prices.
package pricing

import (
	"github.com/shopspring/decimal"

	"diamond-shop/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Discount is a promo code's discount terms.
type Discount struct {
	Value        int
	IsPercentage bool
}

// FromPromo extracts the discount terms of p. A nil promo yields nil.
func FromPromo(p *model.PromoCode) *Discount {
	if p == nil {
		return nil
	}
	return &Discount{Value: p.Discount, IsPercentage: p.IsPercentage}
}

// FinalPrice applies the package's own percent discount to base, then the
// promo discount to the already discounted price, and rounds half-up to a
// whole currency unit. The result is never negative.
func FinalPrice(base decimal.Decimal, packageDiscount int, promo *Discount) decimal.Decimal {
	price := applyPercent(base, packageDiscount)

	if promo != nil {
		if promo.IsPercentage {
			price = applyPercent(price, promo.Value)
		} else {
			price = price.Sub(decimal.NewFromInt(int64(promo.Value)))
		}
	}

	// Round is half away from zero, which equals half-up for non-negative prices.
	price = price.Round(0)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// ForPackage prices pkg with an optional promo code.
func ForPackage(pkg *model.DiamondPackage, promo *model.PromoCode) decimal.Decimal {
	return FinalPrice(pkg.Price, pkg.Discount, FromPromo(promo))
}

func applyPercent(price decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 {
		return price
	}
	if percent > 100 {
		percent = 100
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(percent))).Div(hundred)
	return price.Mul(factor)
}
