package model

import (
	"errors"
	"strings"
	"time"
)

// RejectReason is the machine-readable reason a promo code was refused.
type RejectReason string

// Promo rejection reasons.
const (
	RejectNotFound      RejectReason = "not_found"
	RejectExpired       RejectReason = "expired"
	RejectExhausted     RejectReason = "exhausted"
	RejectInactive      RejectReason = "inactive"
	RejectDuplicate     RejectReason = "duplicate_code"
	RejectNotApplicable RejectReason = "not_applicable"
	RejectNotRedeemed   RejectReason = "not_redeemed"
)

// RejectionError reports a promo code refusal that callers can branch on.
type RejectionError struct {
	Reason RejectReason
	Code   string
}

func (e *RejectionError) Error() string {
	return "promo code " + e.Code + " rejected: " + string(e.Reason)
}

// Is matches another *RejectionError with the same reason, so sentinel
// values like ErrPromoExpired work with errors.Is.
func (e *RejectionError) Is(target error) bool {
	var t *RejectionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

// Message returns the buyer-facing copy for the rejection.
func (e *RejectionError) Message() string {
	switch e.Reason {
	case RejectNotFound:
		return "Promo code not found"
	case RejectExpired:
		return "Promo code has expired"
	case RejectExhausted:
		return "Promo code usage limit reached"
	case RejectInactive:
		return "Promo code is no longer active"
	case RejectDuplicate:
		return "Promo code already exists"
	case RejectNotApplicable:
		return "Promo code does not apply to this package"
	case RejectNotRedeemed:
		return "Apply the promo code before checkout"
	}
	return "Invalid promo code"
}

// Sentinel rejections for errors.Is.
var (
	ErrPromoNotFound      = &RejectionError{Reason: RejectNotFound}
	ErrPromoExpired       = &RejectionError{Reason: RejectExpired}
	ErrPromoExhausted     = &RejectionError{Reason: RejectExhausted}
	ErrPromoInactive      = &RejectionError{Reason: RejectInactive}
	ErrPromoDuplicate     = &RejectionError{Reason: RejectDuplicate}
	ErrPromoNotApplicable = &RejectionError{Reason: RejectNotApplicable}
	ErrPromoNotRedeemed   = &RejectionError{Reason: RejectNotRedeemed}
)

// Reject builds a RejectionError for code.
func Reject(reason RejectReason, code string) error {
	return &RejectionError{Reason: reason, Code: code}
}

// PromoCode is a discount code. Discount is a percentage when IsPercentage
// is set, otherwise a flat amount in major currency units.
// A nil PackageID applies to every package.
//
// UsageCount counts redemptions, ClaimCount counts payments that spent one.
// ClaimCount never exceeds UsageCount.
type PromoCode struct {
	ID           int64      `json:"id" db:"id"`
	Code         string     `json:"code" db:"code"`
	Discount     int        `json:"discount" db:"discount"`
	IsPercentage bool       `json:"isPercentage" db:"is_percentage"`
	ValidUntil   *time.Time `json:"validUntil" db:"valid_until"`
	UsageLimit   *int       `json:"usageLimit" db:"usage_limit"`
	UsageCount   int        `json:"usageCount" db:"usage_count"`
	ClaimCount   int        `json:"-" db:"claim_count"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	PackageID    *int64     `json:"packageId" db:"package_id"`
}

// NormalizeCode returns the canonical lookup key for a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckRedeemable applies the redemption checks in order: expiry, usage
// limit, then active flag. Callers must hold whatever serialisation makes
// the following increment atomic.
func (p *PromoCode) CheckRedeemable(now time.Time) error {
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return Reject(RejectExpired, p.Code)
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return Reject(RejectExhausted, p.Code)
	}
	if !p.IsActive {
		return Reject(RejectInactive, p.Code)
	}
	return nil
}

// AppliesTo reports whether the code may be used for packageID.
func (p *PromoCode) AppliesTo(packageID int64) bool {
	return p.PackageID == nil || *p.PackageID == packageID
}

// CheckClaimable reports whether a payment may spend one redemption of the
// code: it must be unexpired, active, and have a redemption not yet claimed.
func (p *PromoCode) CheckClaimable(now time.Time) error {
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return Reject(RejectExpired, p.Code)
	}
	if !p.IsActive {
		return Reject(RejectInactive, p.Code)
	}
	if p.ClaimCount >= p.UsageCount {
		return Reject(RejectNotRedeemed, p.Code)
	}
	return nil
}
