package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"diamond-shop/internal/metrics"
	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

// PromoDefaults are applied to promo codes created without explicit terms.
type PromoDefaults struct {
	UsageLimit int
	ValidDays  int
}

// CreatePromoInput describes a new promo code. Nil fields take defaults:
// percentage discount, PromoDefaults.UsageLimit uses and
// PromoDefaults.ValidDays days of validity.
type CreatePromoInput struct {
	Code         string
	Discount     int
	IsPercentage *bool
	UsageLimit   *int
	ValidDays    *int
	PackageID    *int64
}

// PromoService manages and redeems promo codes.
type PromoService struct {
	promos   repository.PromoCodeRepository
	packages repository.PackageRepository
	defaults PromoDefaults
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewPromoService creates a new PromoService instance.
func NewPromoService(
	promos repository.PromoCodeRepository,
	packages repository.PackageRepository,
	defaults PromoDefaults,
	m *metrics.Metrics,
) *PromoService {
	return &PromoService{
		promos:   promos,
		packages: packages,
		defaults: defaults,
		metrics:  m,
		now:      time.Now,
	}
}

// Redeem validates code and consumes one use of it. Rejections are
// *model.RejectionError values.
func (s *PromoService) Redeem(ctx context.Context, code string) (*model.PromoCode, error) {
	code = model.NormalizeCode(code)
	if code == "" {
		return nil, invalid("promo code is required")
	}

	promo, err := s.promos.Redeem(ctx, code, s.now())
	if err != nil {
		var rej *model.RejectionError
		if errors.As(err, &rej) {
			s.metrics.PromoRedemption(string(rej.Reason))
			log.Info().Str("code", code).Str("reason", string(rej.Reason)).Msg("Promo code rejected")
			return nil, err
		}
		return nil, fmt.Errorf("failed to redeem promo code: %w", err)
	}

	s.metrics.PromoRedemption("ok")
	log.Info().
		Str("code", promo.Code).
		Int("usage_count", promo.UsageCount).
		Msg("Promo code redeemed")

	return promo, nil
}

// Create adds a new promo code. The stored code is upper-cased.
func (s *PromoService) Create(ctx context.Context, in CreatePromoInput) (*model.PromoCode, error) {
	code := model.NormalizeCode(in.Code)
	if code == "" {
		return nil, invalid("code is required")
	}
	if in.Discount <= 0 {
		return nil, invalid("discount must be positive")
	}

	isPercentage := true
	if in.IsPercentage != nil {
		isPercentage = *in.IsPercentage
	}
	if isPercentage && in.Discount > 100 {
		return nil, invalid("percentage discount cannot exceed 100")
	}

	usageLimit := s.defaults.UsageLimit
	if in.UsageLimit != nil {
		usageLimit = *in.UsageLimit
	}
	if usageLimit <= 0 {
		return nil, invalid("usage limit must be positive")
	}

	validDays := s.defaults.ValidDays
	if in.ValidDays != nil {
		validDays = *in.ValidDays
	}
	if validDays <= 0 {
		return nil, invalid("valid days must be positive")
	}
	validUntil := s.now().AddDate(0, 0, validDays)

	if in.PackageID != nil {
		if _, err := s.packages.Get(ctx, *in.PackageID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("package %d does not exist", *in.PackageID)
			}
			return nil, fmt.Errorf("failed to check package: %w", err)
		}
	}

	promo, err := s.promos.Create(ctx, &model.PromoCode{
		Code:         code,
		Discount:     in.Discount,
		IsPercentage: isPercentage,
		ValidUntil:   &validUntil,
		UsageLimit:   &usageLimit,
		IsActive:     true,
		PackageID:    in.PackageID,
	})
	if err != nil {
		if errors.Is(err, model.ErrPromoDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}

	log.Info().
		Str("code", promo.Code).
		Int("discount", promo.Discount).
		Bool("is_percentage", promo.IsPercentage).
		Msg("Promo code created")

	return promo, nil
}

// List returns every promo code.
func (s *PromoService) List(ctx context.Context) ([]*model.PromoCode, error) {
	promos, err := s.promos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	return promos, nil
}

// Delete removes a promo code.
func (s *PromoService) Delete(ctx context.Context, id int64) error {
	if err := s.promos.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ErrPromoNotFound
		}
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	return nil
}
