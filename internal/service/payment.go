package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"diamond-shop/internal/metrics"
	"diamond-shop/internal/model"
	"diamond-shop/internal/pricing"
	"diamond-shop/internal/repository"
)

// Notifier accepts payments whose status genuinely changed. Enqueue must
// not block; a returned error means the notification was dropped.
type Notifier interface {
	Enqueue(p *model.Payment) error
}

// CreatePaymentInput describes a checkout. The payment method is looked up
// by PaymentMethodID when set, otherwise by PaymentMethod name. A promo code
// may be given by id or code. It must already have been redeemed through
// PromoService.Redeem, and each payment spends one of those redemptions.
type CreatePaymentInput struct {
	GameID          string
	Email           *string
	PackageID       int64
	PaymentMethodID *int64
	PaymentMethod   string
	PromoCodeID     *int64
	PromoCode       *string
	// Amount is the price the client displayed. The stored amount is always
	// computed by the server.
	Amount decimal.Decimal
}

// PaymentService creates payment records and drives their status.
type PaymentService struct {
	payments repository.PaymentRepository
	packages repository.PackageRepository
	methods  repository.PaymentMethodRepository
	promos   repository.PromoCodeRepository
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewPaymentService creates a new PaymentService instance.
func NewPaymentService(store *repository.Store, notifier Notifier, m *metrics.Metrics) *PaymentService {
	return &PaymentService{
		payments: store.Payments,
		packages: store.Packages,
		methods:  store.PaymentMethods,
		promos:   store.PromoCodes,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// Create validates the checkout and stores a pending payment whose amount is
// the package price after the package and promo discounts. A promo must be
// unexpired, active and hold an unspent redemption; the check and the spend
// are one atomic Claim.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*model.Payment, error) {
	gameID := strings.TrimSpace(in.GameID)
	if gameID == "" {
		return nil, invalid("gameId is required")
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("amount must be positive")
	}

	method, err := s.resolveMethod(ctx, in)
	if err != nil {
		return nil, err
	}

	pkg, err := s.packages.Get(ctx, in.PackageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("package %d does not exist", in.PackageID)
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	promo, err := s.resolvePromo(ctx, in)
	if err != nil {
		return nil, err
	}
	if promo != nil && !promo.AppliesTo(pkg.ID) {
		return nil, model.Reject(model.RejectNotApplicable, promo.Code)
	}

	amount := pricing.ForPackage(pkg, promo)
	if !amount.IsPositive() {
		return nil, invalid("price after discounts must be positive")
	}
	if !amount.Equal(in.Amount) {
		log.Warn().
			Str("game_id", gameID).
			Int64("package_id", pkg.ID).
			Str("client_amount", in.Amount.String()).
			Str("amount", amount.String()).
			Msg("Client amount differs from computed price, using computed price")
	}

	var promoCode *string
	if promo != nil {
		if _, err := s.promos.Claim(ctx, promo.ID, s.now()); err != nil {
			var rej *model.RejectionError
			if errors.As(err, &rej) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to claim promo code: %w", err)
		}
		promoCode = &promo.Code
	}

	packageID := pkg.ID
	payment, err := s.payments.Create(ctx, &model.NewPayment{
		GameID:        gameID,
		Email:         in.Email,
		PackageID:     &packageID,
		Amount:        amount,
		PaymentMethod: method.Name,
		PromoCode:     promoCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.metrics.PaymentCreated()
	log.Info().
		Int64("payment_id", payment.ID).
		Str("game_id", payment.GameID).
		Str("amount", payment.Amount.String()).
		Str("method", payment.PaymentMethod).
		Msg("Payment created")

	return payment, nil
}

func (s *PaymentService) resolveMethod(ctx context.Context, in CreatePaymentInput) (*model.PaymentMethod, error) {
	if in.PaymentMethodID != nil {
		m, err := s.methods.Get(ctx, *in.PaymentMethodID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("invalid payment method")
			}
			return nil, fmt.Errorf("failed to get payment method: %w", err)
		}
		if !m.IsActive {
			return nil, invalid("invalid payment method")
		}
		return m, nil
	}

	name := strings.TrimSpace(in.PaymentMethod)
	if name == "" {
		return nil, invalid("payment method is required")
	}
	active, err := s.methods.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	for _, m := range active {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return nil, invalid("invalid payment method")
}

func (s *PaymentService) resolvePromo(ctx context.Context, in CreatePaymentInput) (*model.PromoCode, error) {
	var (
		promo *model.PromoCode
		err   error
	)
	switch {
	case in.PromoCodeID != nil:
		promo, err = s.promos.Get(ctx, *in.PromoCodeID)
	case in.PromoCode != nil && strings.TrimSpace(*in.PromoCode) != "":
		promo, err = s.promos.GetByCode(ctx, *in.PromoCode)
	default:
		return nil, nil
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return promo, nil
}

// Get returns a payment by id.
func (s *PaymentService) Get(ctx context.Context, id int64) (*model.Payment, error) {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// List returns every payment, newest first.
func (s *PaymentService) List(ctx context.Context) ([]*model.Payment, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// ListByGameID returns a buyer's payments oldest first.
func (s *PaymentService) ListByGameID(ctx context.Context, gameID string) ([]*model.Payment, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, invalid("gameId is required")
	}
	payments, err := s.payments.ListByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// Transition moves a pending payment to a terminal status. Calls on a
// payment that is already terminal return it unchanged. A genuine change is
// handed to the notifier; notification problems never fail the transition.
func (s *PaymentService) Transition(ctx context.Context, id int64, status model.PaymentStatus) (*model.Payment, error) {
	if !status.IsTerminal() {
		return nil, invalid("cannot transition to %q", status)
	}

	p, changed, err := s.payments.Transition(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to transition payment: %w", err)
	}

	s.metrics.PaymentTransition(string(status), changed)
	if !changed {
		log.Info().
			Int64("payment_id", id).
			Str("status", string(p.Status)).
			Str("requested", string(status)).
			Msg("Payment already settled, transition ignored")
		return p, nil
	}

	log.Info().Int64("payment_id", id).Str("status", string(p.Status)).Msg("Payment status changed")
	s.notify(p)
	return p, nil
}

func (s *PaymentService) notify(p *model.Payment) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int64("payment_id", p.ID).Msg("Notifier panicked")
		}
	}()
	if err := s.notifier.Enqueue(p); err != nil {
		log.Error().Err(err).Int64("payment_id", p.ID).Msg("Failed to enqueue payment notification")
	}
}
