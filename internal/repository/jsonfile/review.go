package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// ReviewRepository stores reviews in a JSON collection.
type ReviewRepository struct {
	coll *Collection[domain.Review]
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a review repository over coll.
func NewReviewRepository(coll *Collection[domain.Review]) *ReviewRepository {
	return &ReviewRepository{coll: coll}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	err := r.coll.Update(ctx, func(reviews []domain.Review) ([]domain.Review, error) {
		if indexOfReview(reviews, review.ID) >= 0 {
			return nil, apperrors.AlreadyExists("review", review.ID)
		}
		return append(reviews, *review), nil
	})
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	var found *domain.Review
	err := r.coll.View(ctx, func(reviews []domain.Review) error {
		i := indexOfReview(reviews, id)
		if i < 0 {
			return apperrors.NotFound("review", id)
		}
		rv := reviews[i]
		found = &rv
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return found, nil
}

func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string) ([]domain.Review, error) {
	result := []domain.Review{}
	err := r.coll.View(ctx, func(reviews []domain.Review) error {
		for i := range reviews {
			if reviews[i].ProductID == productID {
				result = append(result, reviews[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return result, nil
}

func (r *ReviewRepository) Update(ctx context.Context, id string, apply func(*domain.Review) error) (*domain.Review, error) {
	var updated domain.Review
	err := r.coll.Update(ctx, func(reviews []domain.Review) ([]domain.Review, error) {
		i := indexOfReview(reviews, id)
		if i < 0 {
			return nil, apperrors.NotFound("review", id)
		}
		rv := reviews[i]
		if err := apply(&rv); err != nil {
			return nil, err
		}
		rv.ID = id
		reviews[i] = rv
		updated = rv
		return reviews, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return &updated, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	err := r.coll.Update(ctx, func(reviews []domain.Review) ([]domain.Review, error) {
		remaining := slices.DeleteFunc(reviews, func(rv domain.Review) bool { return rv.ID == id })
		if len(remaining) == len(reviews) {
			return nil, apperrors.NotFound("review", id)
		}
		return remaining, nil
	})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// errNothingRemoved aborts a cascade without rewriting the document.
var errNothingRemoved = errors.New("no reviews removed")

func (r *ReviewRepository) DeleteByProductID(ctx context.Context, productID string) (int, error) {
	removed := 0
	err := r.coll.Update(ctx, func(reviews []domain.Review) ([]domain.Review, error) {
		before := len(reviews)
		remaining := slices.DeleteFunc(reviews, func(rv domain.Review) bool { return rv.ProductID == productID })
		removed = before - len(remaining)
		if removed == 0 {
			return nil, errNothingRemoved
		}
		return remaining, nil
	})
	if errors.Is(err, errNothingRemoved) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete reviews of product %s: %w", productID, err)
	}
	return removed, nil
}

// Ping reports whether the reviews document is readable.
func (r *ReviewRepository) Ping(ctx context.Context) error {
	return r.coll.Ping(ctx)
}

func indexOfReview(reviews []domain.Review, id string) int {
	return slices.IndexFunc(reviews, func(rv domain.Review) bool { return rv.ID == id })
}
