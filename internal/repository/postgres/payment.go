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

const paymentColumns = `id, created_at, game_id, email, package_id, amount::text, payment_method, status, transaction_id, promo_code`

// PaymentRepository handles payment record persistence.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository instance.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		amount string
	)
	err := row.Scan(
		&p.ID,
		&p.CreatedAt,
		&p.GameID,
		&p.Email,
		&p.PackageID,
		&amount,
		&p.PaymentMethod,
		&p.Status,
		&p.TransactionID,
		&p.PromoCode,
	)
	if err != nil {
		return nil, err
	}
	d, err := parseMoney(amount)
	if err != nil {
		return nil, err
	}
	p.Amount = d
	return &p, nil
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]*model.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Create inserts a pending payment with a fresh transaction id.
func (r *PaymentRepository) Create(ctx context.Context, p *model.NewPayment) (*model.Payment, error) {
	const query = `
		INSERT INTO payments (game_id, email, package_id, amount, payment_method, status, transaction_id, promo_code)
		VALUES ($1, $2, $3, $4::numeric, $5, 'pending', $6, $7)
		RETURNING ` + paymentColumns

	created, err := scanPayment(r.pool.QueryRow(ctx, query,
		p.GameID,
		p.Email,
		p.PackageID,
		p.Amount.String(),
		p.PaymentMethod,
		model.NewTransactionID(),
		p.PromoCode,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return created, nil
}

// Get retrieves a payment by id.
func (r *PaymentRepository) Get(ctx context.Context, id int64) (*model.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// List returns every payment, newest first.
func (r *PaymentRepository) List(ctx context.Context) ([]*model.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC, id DESC`
	return r.queryPayments(ctx, query)
}

// ListByGameID returns the buyer's payments oldest first.
func (r *PaymentRepository) ListByGameID(ctx context.Context, gameID string) ([]*model.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE game_id = $1 ORDER BY created_at, id`
	return r.queryPayments(ctx, query, gameID)
}

// Transition moves a pending payment to status with a single conditional
// update. When no row matches, the payment is either missing or already
// terminal, which a follow-up read tells apart.
func (r *PaymentRepository) Transition(ctx context.Context, id int64, status model.PaymentStatus) (*model.Payment, bool, error) {
	const query = `
		UPDATE payments
		SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.pool.QueryRow(ctx, query, id, string(status)))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to transition payment: %w", err)
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}
