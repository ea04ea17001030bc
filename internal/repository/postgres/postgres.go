// Package postgres provides PostgreSQL implementations of the repository
// contracts on top of pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"diamond-shop/internal/repository"
)

// New returns a store backed by pool.
func New(pool *pgxpool.Pool) *repository.Store {
	return &repository.Store{
		Packages:       NewPackageRepository(pool),
		PromoCodes:     NewPromoCodeRepository(pool),
		Payments:       NewPaymentRepository(pool),
		PaymentMethods: NewPaymentMethodRepository(pool),
		Users:          NewUserRepository(pool),
		Chat:           NewChatRepository(pool),
		Reviews:        NewReviewRepository(pool),
	}
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS diamond_packages (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		amount INTEGER NOT NULL DEFAULT 0,
		price NUMERIC(12, 2) NOT NULL,
		discount INTEGER NOT NULL DEFAULT 0,
		is_popular BOOLEAN NOT NULL DEFAULT FALSE,
		image_url TEXT,
		type VARCHAR(20) NOT NULL DEFAULT 'diamonds'
	)`,
	`CREATE TABLE IF NOT EXISTS promo_codes (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL,
		discount INTEGER NOT NULL,
		is_percentage BOOLEAN NOT NULL DEFAULT TRUE,
		valid_until TIMESTAMPTZ,
		usage_limit INTEGER,
		usage_count INTEGER NOT NULL DEFAULT 0,
		claim_count INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		package_id BIGINT REFERENCES diamond_packages(id) ON DELETE SET NULL
	)`,
	`ALTER TABLE promo_codes ADD COLUMN IF NOT EXISTS claim_count INTEGER NOT NULL DEFAULT 0`,
	`CREATE UNIQUE INDEX IF NOT EXISTS promo_codes_code_lower_idx ON promo_codes (lower(code))`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		type VARCHAR(20) NOT NULL,
		logo_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		game_id TEXT NOT NULL,
		email TEXT,
		package_id BIGINT REFERENCES diamond_packages(id) ON DELETE SET NULL,
		amount NUMERIC(12, 2) NOT NULL,
		payment_method TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		transaction_id TEXT NOT NULL UNIQUE,
		promo_code TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS payments_game_id_idx ON payments (game_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		game_id TEXT NOT NULL,
		telegram_chat_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS users_game_id_idx ON users (game_id)`,
	`CREATE INDEX IF NOT EXISTS users_chat_id_idx ON users (telegram_chat_id)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id BIGSERIAL PRIMARY KEY,
		game_id TEXT NOT NULL,
		text TEXT NOT NULL,
		sender VARCHAR(10) NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_game_id_idx ON chat_messages (game_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT,
		user_name TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_verified BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_created_at_idx ON reviews (created_at DESC)`,
}

// Migrate applies the database schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}

	log.Info().Int("count", len(migrations)).Msg("All migrations completed successfully")
	return nil
}

// Monetary columns are read as text so no precision is lost on the way to
// decimal.Decimal.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return d, nil
}
