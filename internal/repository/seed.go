package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"diamond-shop/internal/model"
)

func pkg(name string, t model.PackageType, amount int, price int64, popular bool, image string) *model.DiamondPackage {
	return &model.DiamondPackage{
		Name:      name,
		Type:      t,
		Amount:    amount,
		Price:     decimal.NewFromInt(price),
		IsPopular: popular,
		ImageURL:  model.StringPtr(image),
	}
}

func method(name, kind, logo string, order int) *model.PaymentMethod {
	return &model.PaymentMethod{
		Name:      name,
		Type:      kind,
		LogoURL:   model.StringPtr(logo),
		IsActive:  true,
		SortOrder: &order,
	}
}

// DefaultPackages is the catalog loaded at startup.
func DefaultPackages() []*model.DiamondPackage {
	return []*model.DiamondPackage{
		pkg("100 + 5 Diamonds", model.PackageDiamonds, 105, 90, false, "/diamonds/small.png"),
		pkg("310 + 16 Diamonds", model.PackageDiamonds, 326, 260, true, "/diamonds/medium.png"),
		pkg("520 + 26 Diamonds", model.PackageDiamonds, 546, 429, false, "/diamonds/large.png"),
		pkg("1060 + 53 Diamonds", model.PackageDiamonds, 1113, 849, false, "/diamonds/huge.png"),
		pkg("2180 + 218 Diamonds", model.PackageDiamonds, 2398, 1700, false, "/diamonds/mega.png"),
		pkg("5600 + 560 Diamonds", model.PackageDiamonds, 6160, 4390, false, "/diamonds/ultra.png"),
		pkg("Lite Voucher", model.PackageVoucher, 0, 60, false, "/diamonds/voucher_light.png"),
		pkg("Weekly Voucher", model.PackageVoucher, 0, 180, false, "/diamonds/voucher_week.png"),
		pkg("Monthly Voucher", model.PackageVoucher, 0, 800, false, "/diamonds/voucher_month.png"),
		pkg("Evo Pass 3 days (with login)", model.PackageEvoPass, 0, 49, false, "/diamonds/evo_3days.png"),
		pkg("Evo Pass 7 days (no login)", model.PackageEvoPass, 0, 95, false, "/diamonds/evo_7days.png"),
		pkg("Evo Pass 30 days (with login)", model.PackageEvoPass, 0, 249, false, "/diamonds/evo_30days.png"),
	}
}

// DefaultPaymentMethods is the set of checkout options loaded at startup.
func DefaultPaymentMethods() []*model.PaymentMethod {
	return []*model.PaymentMethod{
		method("Visa/Mastercard", "bank", "/payment/card.png", 1),
		method("QIWI", "ewallet", "/payment/qiwi.png", 2),
		method("Sberbank", "bank", "/payment/sberbank.png", 3),
		method("YooMoney", "ewallet", "/payment/yandex.png", 4),
		method("WebMoney", "ewallet", "/payment/webmoney.png", 5),
	}
}

// Seed loads the default catalog and payment methods into an empty store.
// It is a no-op for tables that already hold rows.
func Seed(ctx context.Context, s *Store) error {
	packages, err := s.Packages.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}
	if len(packages) == 0 {
		for _, p := range DefaultPackages() {
			if _, err := s.Packages.Create(ctx, p); err != nil {
				return fmt.Errorf("failed to seed package %q: %w", p.Name, err)
			}
		}
		log.Info().Int("count", len(DefaultPackages())).Msg("Seeded diamond packages")
	}

	methods, err := s.PaymentMethods.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list payment methods: %w", err)
	}
	if len(methods) == 0 {
		for _, m := range DefaultPaymentMethods() {
			if _, err := s.PaymentMethods.Create(ctx, m); err != nil {
				return fmt.Errorf("failed to seed payment method %q: %w", m.Name, err)
			}
		}
		log.Info().Int("count", len(DefaultPaymentMethods())).Msg("Seeded payment methods")
	}

	return nil
}
