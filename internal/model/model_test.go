package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestPromoCode_CheckRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		promo PromoCode
		want  error
	}{
		{"valid", PromoCode{Code: "A", IsActive: true, ValidUntil: &future, UsageLimit: intPtr(2), UsageCount: 1}, nil},
		{"no limits", PromoCode{Code: "A", IsActive: true}, nil},
		{"expired beats spare usage", PromoCode{Code: "A", IsActive: true, ValidUntil: &past, UsageLimit: intPtr(10)}, ErrPromoExpired},
		{"exhausted", PromoCode{Code: "A", IsActive: true, UsageLimit: intPtr(3), UsageCount: 3}, ErrPromoExhausted},
		{"exhausted before inactive", PromoCode{Code: "A", IsActive: false, UsageLimit: intPtr(1), UsageCount: 1}, ErrPromoExhausted},
		{"inactive", PromoCode{Code: "A", IsActive: false}, ErrPromoInactive},
		{"expiry instant itself is still valid", PromoCode{Code: "A", IsActive: true, ValidUntil: &now}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.promo.CheckRedeemable(now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPromoCode_CheckClaimable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	tests := []struct {
		name  string
		promo PromoCode
		want  error
	}{
		{"spare redemption", PromoCode{Code: "A", IsActive: true, UsageCount: 2, ClaimCount: 1}, nil},
		{"never redeemed", PromoCode{Code: "A", IsActive: true}, ErrPromoNotRedeemed},
		{"every redemption claimed", PromoCode{Code: "A", IsActive: true, UsageLimit: intPtr(1), UsageCount: 1, ClaimCount: 1}, ErrPromoNotRedeemed},
		{"expired after redeeming", PromoCode{Code: "A", IsActive: true, ValidUntil: &past, UsageCount: 1}, ErrPromoExpired},
		{"deactivated after redeeming", PromoCode{Code: "A", IsActive: false, UsageCount: 1}, ErrPromoInactive},
		{"usage limit reached still claimable", PromoCode{Code: "A", IsActive: true, UsageLimit: intPtr(1), UsageCount: 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.promo.CheckClaimable(now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRejectionError_Is(t *testing.T) {
	err := Reject(RejectExhausted, "SAVE10")

	assert.ErrorIs(t, err, ErrPromoExhausted)
	assert.NotErrorIs(t, err, ErrPromoExpired)

	var rej *RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "SAVE10", rej.Code)
	assert.Equal(t, "Promo code usage limit reached", rej.Message())
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode("  save10 "))
	assert.Equal(t, NormalizeCode("Save10"), NormalizeCode("sAVE10"))
}

func TestPromoCode_AppliesTo(t *testing.T) {
	var pkg int64 = 3
	wildcard := PromoCode{}
	bound := PromoCode{PackageID: &pkg}

	assert.True(t, wildcard.AppliesTo(7))
	assert.True(t, bound.AppliesTo(3))
	assert.False(t, bound.AppliesTo(7))
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestPayment_Paths(t *testing.T) {
	p := Payment{ID: 7, GameID: "48031006", Amount: decimal.NewFromInt(90)}

	assert.Equal(t, "/simulate-payment?payment_id=7&amount=90&game_id=48031006", p.SimulatorPath())
	assert.Equal(t, "/payment-status/7", p.StatusPath())
}
