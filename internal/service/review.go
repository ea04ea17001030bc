package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

// Review limits.
const (
	MinRating        = 1
	MaxRating        = 5
	MaxReviewComment = 1000
)

// CreateReviewInput is a buyer's review submission.
type CreateReviewInput struct {
	UserID   *int64
	UserName string
	Rating   int
	Comment  string
}

// ReviewService collects buyer reviews and publishes the verified ones.
type ReviewService struct {
	reviews repository.ReviewRepository
}

// NewReviewService creates a new ReviewService instance.
func NewReviewService(reviews repository.ReviewRepository) *ReviewService {
	return &ReviewService{reviews: reviews}
}

// Create stores a review. New reviews stay hidden until verified.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*model.Review, error) {
	name := strings.TrimSpace(in.UserName)
	comment := strings.TrimSpace(in.Comment)
	if name == "" || comment == "" {
		return nil, invalid("userName and comment are required")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, invalid("rating must be between %d and %d", MinRating, MaxRating)
	}
	if utf8.RuneCountInString(comment) > MaxReviewComment {
		return nil, invalid("comment cannot exceed %d characters", MaxReviewComment)
	}

	review, err := s.reviews.Create(ctx, &model.Review{
		UserID:   in.UserID,
		UserName: name,
		Rating:   in.Rating,
		Comment:  comment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	log.Info().Int64("review_id", review.ID).Int("rating", review.Rating).Msg("Review submitted")
	return review, nil
}

// Published returns verified reviews newest first, at most limit of them
// when limit is positive.
func (s *ReviewService) Published(ctx context.Context, limit int) ([]*model.Review, error) {
	reviews, err := s.reviews.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if limit > 0 && len(reviews) > limit {
		reviews = reviews[:limit]
	}
	return reviews, nil
}

// All returns every review newest first, verified or not.
func (s *ReviewService) All(ctx context.Context) ([]*model.Review, error) {
	reviews, err := s.reviews.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Verify publishes a review.
func (s *ReviewService) Verify(ctx context.Context, id int64) (*model.Review, error) {
	review, err := s.reviews.Verify(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to verify review: %w", err)
	}
	log.Info().Int64("review_id", id).Msg("Review verified")
	return review, nil
}

// Delete removes a review.
func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	log.Info().Int64("review_id", id).Msg("Review deleted")
	return nil
}
