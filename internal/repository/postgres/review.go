package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

const reviewColumns = `id, user_id, user_name, rating, comment, created_at, is_verified`

// ReviewRepository handles buyer review persistence.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository creates a new ReviewRepository instance.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func scanReview(row pgx.Row) (*model.Review, error) {
	var r model.Review
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.UserName,
		&r.Rating,
		&r.Comment,
		&r.CreatedAt,
		&r.IsVerified,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns reviews newest first.
func (r *ReviewRepository) List(ctx context.Context, verifiedOnly bool) ([]*model.Review, error) {
	const query = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE is_verified OR NOT $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, verifiedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

// Create inserts a review. A zero CreatedAt is stamped by the database.
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	const query = `
		INSERT INTO reviews (user_id, user_name, rating, comment, created_at, is_verified)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $6)
		RETURNING ` + reviewColumns

	var createdAt *time.Time
	if !review.CreatedAt.IsZero() {
		createdAt = &review.CreatedAt
	}

	rev, err := scanReview(r.pool.QueryRow(ctx, query,
		review.UserID,
		review.UserName,
		review.Rating,
		review.Comment,
		createdAt,
		review.IsVerified,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return rev, nil
}

// Verify marks a review verified.
func (r *ReviewRepository) Verify(ctx context.Context, id int64) (*model.Review, error) {
	const query = `
		UPDATE reviews
		SET is_verified = TRUE
		WHERE id = $1
		RETURNING ` + reviewColumns

	rev, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to verify review: %w", err)
	}
	return rev, nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM reviews WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
