package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"diamond-shop/internal/model"
)

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name        string
		base        string
		pkgDiscount int
		promo       *Discount
		want        string
	}{
		{"no discounts", "90", 0, nil, "90"},
		{"promo percent", "260", 0, &Discount{Value: 10, IsPercentage: true}, "234"},
		{"package then promo", "429", 10, &Discount{Value: 10, IsPercentage: true}, "347"},
		{"package only", "849", 15, nil, "722"},
		{"flat promo after package", "429", 10, &Discount{Value: 50}, "336"},
		{"half rounds up", "5", 10, nil, "5"},
		{"exact half rounds up", "25", 50, &Discount{Value: 0, IsPercentage: true}, "13"},
		{"flat larger than price clamps", "49", 0, &Discount{Value: 100}, "0"},
		{"full percent", "95", 0, &Discount{Value: 100, IsPercentage: true}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalPrice(decimal.RequireFromString(tt.base), tt.pkgDiscount, tt.promo)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestForPackage(t *testing.T) {
	pkg := &model.DiamondPackage{Price: decimal.NewFromInt(429), Discount: 10}
	promo := &model.PromoCode{Discount: 10, IsPercentage: true}

	assert.Equal(t, "347", ForPackage(pkg, promo).String())
	assert.Equal(t, "386", ForPackage(pkg, nil).String())
}

// Discounts never raise the price and never push it below zero.
func TestFinalPriceBoundsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.Int64Range(0, 100000).Draw(rt, "base")
		pkgDiscount := rapid.IntRange(0, 100).Draw(rt, "pkgDiscount")
		promoValue := rapid.IntRange(0, 200).Draw(rt, "promoValue")
		isPercentage := rapid.Bool().Draw(rt, "isPercentage")
		if isPercentage && promoValue > 100 {
			promoValue = 100
		}

		basePrice := decimal.NewFromInt(base)
		got := FinalPrice(basePrice, pkgDiscount, &Discount{Value: promoValue, IsPercentage: isPercentage})

		if got.IsNegative() {
			rt.Fatalf("negative price %s", got)
		}
		if got.GreaterThan(basePrice) {
			rt.Fatalf("price %s exceeds base %s", got, basePrice)
		}
		if !got.Equal(got.Truncate(0)) {
			rt.Fatalf("price %s is not a whole unit", got)
		}
	})
}
