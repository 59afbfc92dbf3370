package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/event"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// ProductGuard reports whether a product exists. *ProductService
// implements it.
type ProductGuard interface {
	EnsureProductExists(ctx context.Context, id string) error
}

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	ProductID string
	Comment   string
	Rate      float64
}

// UpdateReviewInput holds the fields an update may change. Nil fields are
// left untouched.
type UpdateReviewInput struct {
	Comment *string
	Rate    *float64
}

// ReviewService implements the business logic for review operations.
// Every operation first checks that the addressed product exists.
type ReviewService struct {
	repo     repository.ReviewRepository
	products ProductGuard
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, products ProductGuard, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// CreateReview creates a new review of input.ProductID.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if err := s.products.EnsureProductExists(ctx, input.ProductID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Comment) == "" {
		return nil, apperrors.InvalidInput("comment is required")
	}
	if !domain.ValidRate(input.Rate) {
		return nil, apperrors.InvalidInput("rate must be a number")
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		Comment:   input.Comment,
		Rate:      input.Rate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Float64("rate", review.Rate),
	)

	return review, nil
}

// ListReviews returns the reviews of a product in insertion order.
func (s *ReviewService) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if err := s.products.EnsureProductExists(ctx, productID); err != nil {
		return nil, err
	}

	reviews, err := s.repo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// GetReview returns the review reviewID of productID.
func (s *ReviewService) GetReview(ctx context.Context, productID, reviewID string) (*domain.Review, error) {
	if err := s.products.EnsureProductExists(ctx, productID); err != nil {
		return nil, err
	}
	return s.getOwned(ctx, productID, reviewID)
}

// UpdateReview applies input to the review reviewID of productID.
func (s *ReviewService) UpdateReview(ctx context.Context, productID, reviewID string, input *UpdateReviewInput) (*domain.Review, error) {
	if err := s.products.EnsureProductExists(ctx, productID); err != nil {
		return nil, err
	}

	patch := domain.ReviewPatch{Comment: input.Comment, Rate: input.Rate}
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput("at least one field must be provided")
	}
	if input.Comment != nil && strings.TrimSpace(*input.Comment) == "" {
		return nil, apperrors.InvalidInput("comment must not be empty")
	}
	if input.Rate != nil && !domain.ValidRate(*input.Rate) {
		return nil, apperrors.InvalidInput("rate must be a number")
	}

	review, err := s.repo.Update(ctx, reviewID, func(r *domain.Review) error {
		if r.ProductID != productID {
			return apperrors.NotFound("review", reviewID)
		}
		patch.Apply(r)
		r.Touch(time.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("product_id", productID),
	)

	return review, nil
}

// DeleteReview removes the review reviewID of productID.
func (s *ReviewService) DeleteReview(ctx context.Context, productID, reviewID string) error {
	if err := s.products.EnsureProductExists(ctx, productID); err != nil {
		return err
	}
	if _, err := s.getOwned(ctx, productID, reviewID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.producer.PublishReviewDeleted(ctx, productID, reviewID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("product_id", productID),
	)

	return nil
}

// getOwned loads a review and hides it unless it belongs to productID.
func (s *ReviewService) getOwned(ctx context.Context, productID, reviewID string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	if review.ProductID != productID {
		return nil, apperrors.NotFound("review", reviewID)
	}
	return review, nil
}
