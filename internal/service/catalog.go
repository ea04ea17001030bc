// Package service implements the shop's business operations on top of the
// repository contracts.
package service

import (
	"context"
	"errors"
	"fmt"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

// CatalogService serves catalog items and checkout options.
type CatalogService struct {
	packages repository.PackageRepository
	methods  repository.PaymentMethodRepository
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(packages repository.PackageRepository, methods repository.PaymentMethodRepository) *CatalogService {
	return &CatalogService{packages: packages, methods: methods}
}

// ListPackages returns catalog items, optionally only those of one type.
func (s *CatalogService) ListPackages(ctx context.Context, pkgType *model.PackageType) ([]*model.DiamondPackage, error) {
	if pkgType != nil && !pkgType.Valid() {
		return nil, invalid("unknown package type %q", *pkgType)
	}
	packages, err := s.packages.List(ctx, pkgType)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

// GetPackage returns a single catalog item.
func (s *CatalogService) GetPackage(ctx context.Context, id int64) (*model.DiamondPackage, error) {
	pkg, err := s.packages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

// ListPaymentMethods returns active checkout options in display order.
func (s *CatalogService) ListPaymentMethods(ctx context.Context) ([]*model.PaymentMethod, error) {
	methods, err := s.methods.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}
