package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

const packageColumns = `id, name, amount, price::text, discount, is_popular, image_url, type`

// PackageRepository handles catalog persistence.
type PackageRepository struct {
	pool *pgxpool.Pool
}

// NewPackageRepository creates a new PackageRepository instance.
func NewPackageRepository(pool *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{pool: pool}
}

func scanPackage(row pgx.Row) (*model.DiamondPackage, error) {
	var (
		p     model.DiamondPackage
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Amount, &price, &p.Discount, &p.IsPopular, &p.ImageURL, &p.Type); err != nil {
		return nil, err
	}
	d, err := parseMoney(price)
	if err != nil {
		return nil, err
	}
	p.Price = d
	return &p, nil
}

// List returns packages ordered by id, optionally filtered by type.
func (r *PackageRepository) List(ctx context.Context, pkgType *model.PackageType) ([]*model.DiamondPackage, error) {
	const query = `
		SELECT ` + packageColumns + `
		FROM diamond_packages
		WHERE $1::text IS NULL OR type = $1
		ORDER BY id
	`

	var filter *string
	if pkgType != nil {
		s := string(*pkgType)
		filter = &s
	}

	rows, err := r.pool.Query(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []*model.DiamondPackage
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

// Get retrieves a package by id.
func (r *PackageRepository) Get(ctx context.Context, id int64) (*model.DiamondPackage, error) {
	const query = `SELECT ` + packageColumns + ` FROM diamond_packages WHERE id = $1`

	p, err := scanPackage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return p, nil
}

// Create inserts a package.
func (r *PackageRepository) Create(ctx context.Context, pkg *model.DiamondPackage) (*model.DiamondPackage, error) {
	const query = `
		INSERT INTO diamond_packages (name, amount, price, discount, is_popular, image_url, type)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		RETURNING ` + packageColumns

	p, err := scanPackage(r.pool.QueryRow(ctx, query,
		pkg.Name, pkg.Amount, pkg.Price.String(), pkg.Discount, pkg.IsPopular, pkg.ImageURL, string(pkg.Type),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}
	return p, nil
}

const methodColumns = `id, name, type, logo_url, is_active, sort_order`

// PaymentMethodRepository handles checkout option persistence.
type PaymentMethodRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentMethodRepository creates a new PaymentMethodRepository instance.
func NewPaymentMethodRepository(pool *pgxpool.Pool) *PaymentMethodRepository {
	return &PaymentMethodRepository{pool: pool}
}

func scanMethod(row pgx.Row) (*model.PaymentMethod, error) {
	var m model.PaymentMethod
	if err := row.Scan(&m.ID, &m.Name, &m.Type, &m.LogoURL, &m.IsActive, &m.SortOrder); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActive returns active methods by sort order with unset order last.
func (r *PaymentMethodRepository) ListActive(ctx context.Context) ([]*model.PaymentMethod, error) {
	const query = `
		SELECT ` + methodColumns + `
		FROM payment_methods
		WHERE is_active
		ORDER BY sort_order ASC NULLS LAST, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*model.PaymentMethod
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// Get retrieves a payment method by id.
func (r *PaymentMethodRepository) Get(ctx context.Context, id int64) (*model.PaymentMethod, error) {
	const query = `SELECT ` + methodColumns + ` FROM payment_methods WHERE id = $1`

	m, err := scanMethod(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return m, nil
}

// Create inserts a payment method.
func (r *PaymentMethodRepository) Create(ctx context.Context, m *model.PaymentMethod) (*model.PaymentMethod, error) {
	const query = `
		INSERT INTO payment_methods (name, type, logo_url, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + methodColumns

	created, err := scanMethod(r.pool.QueryRow(ctx, query, m.Name, m.Type, m.LogoURL, m.IsActive, m.SortOrder))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}
	return created, nil
}
