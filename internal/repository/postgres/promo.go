package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

const promoColumns = `id, code, discount, is_percentage, valid_until, usage_limit, usage_count, claim_count, is_active, package_id`

const uniqueViolation = "23505"

// PromoCodeRepository handles promo code persistence.
type PromoCodeRepository struct {
	pool *pgxpool.Pool
}

// NewPromoCodeRepository creates a new PromoCodeRepository instance.
func NewPromoCodeRepository(pool *pgxpool.Pool) *PromoCodeRepository {
	return &PromoCodeRepository{pool: pool}
}

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	var p model.PromoCode
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Discount,
		&p.IsPercentage,
		&p.ValidUntil,
		&p.UsageLimit,
		&p.UsageCount,
		&p.ClaimCount,
		&p.IsActive,
		&p.PackageID,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every promo code ordered by id.
func (r *PromoCodeRepository) List(ctx context.Context) ([]*model.PromoCode, error) {
	const query = `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	var promos []*model.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

// Get retrieves a promo code by id.
func (r *PromoCodeRepository) Get(ctx context.Context, id int64) (*model.PromoCode, error) {
	const query = `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = $1`

	p, err := scanPromo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return p, nil
}

// GetByCode retrieves a promo code ignoring case.
func (r *PromoCodeRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	const query = `SELECT ` + promoColumns + ` FROM promo_codes WHERE lower(code) = lower($1)`

	p, err := scanPromo(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return p, nil
}

// Create inserts a promo code. The unique index on lower(code) turns a
// case-insensitive clash into model.ErrPromoDuplicate.
func (r *PromoCodeRepository) Create(ctx context.Context, promo *model.PromoCode) (*model.PromoCode, error) {
	const query = `
		INSERT INTO promo_codes (code, discount, is_percentage, valid_until, usage_limit, usage_count, claim_count, is_active, package_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + promoColumns

	p, err := scanPromo(r.pool.QueryRow(ctx, query,
		promo.Code,
		promo.Discount,
		promo.IsPercentage,
		promo.ValidUntil,
		promo.UsageLimit,
		promo.UsageCount,
		promo.ClaimCount,
		promo.IsActive,
		promo.PackageID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, model.Reject(model.RejectDuplicate, promo.Code)
		}
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}
	return p, nil
}

// Redeem locks the code's row for the duration of the check and increment,
// so concurrent redemptions of one code are serialised by PostgreSQL.
func (r *PromoCodeRepository) Redeem(ctx context.Context, code string, now time.Time) (*model.PromoCode, error) {
	const selectQuery = `
		SELECT ` + promoColumns + `
		FROM promo_codes
		WHERE lower(code) = lower($1)
		FOR UPDATE
	`
	const updateQuery = `
		UPDATE promo_codes
		SET usage_count = usage_count + 1
		WHERE id = $1
		RETURNING usage_count
	`

	var redeemed *model.PromoCode
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanPromo(tx.QueryRow(ctx, selectQuery, code))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.Reject(model.RejectNotFound, code)
			}
			return fmt.Errorf("failed to lock promo code: %w", err)
		}

		if err := p.CheckRedeemable(now); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, updateQuery, p.ID).Scan(&p.UsageCount); err != nil {
			return fmt.Errorf("failed to increment promo usage: %w", err)
		}
		redeemed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redeemed, nil
}

// Claim locks the row by id, checks that a redemption is left to spend and
// increments claim_count in the same transaction.
func (r *PromoCodeRepository) Claim(ctx context.Context, id int64, now time.Time) (*model.PromoCode, error) {
	const selectQuery = `
		SELECT ` + promoColumns + `
		FROM promo_codes
		WHERE id = $1
		FOR UPDATE
	`
	const updateQuery = `
		UPDATE promo_codes
		SET claim_count = claim_count + 1
		WHERE id = $1
		RETURNING claim_count
	`

	var claimed *model.PromoCode
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanPromo(tx.QueryRow(ctx, selectQuery, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrPromoNotFound
			}
			return fmt.Errorf("failed to lock promo code: %w", err)
		}

		if err := p.CheckClaimable(now); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, updateQuery, p.ID).Scan(&p.ClaimCount); err != nil {
			return fmt.Errorf("failed to increment promo claims: %w", err)
		}
		claimed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Delete removes a promo code.
func (r *PromoCodeRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM promo_codes WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
