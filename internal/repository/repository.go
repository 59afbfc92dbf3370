package repository

import (
	"context"

	"github.com/utafrali/catalog/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	// Category matches case-insensitively when set.
	Category *string
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create appends a new product to the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns the products matching filter in insertion order.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)

	// Update locates the product, lets apply mutate it and persists the
	// result as one atomic step. Nothing is written if apply fails.
	Update(ctx context.Context, id string, apply func(*domain.Product) error) (*domain.Product, error)

	// Delete removes a product from the store by its identifier and returns
	// the record as it was at removal.
	Delete(ctx context.Context, id string) (*domain.Product, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create appends a new review to the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByProductID returns the reviews of one product in insertion order.
	ListByProductID(ctx context.Context, productID string) ([]domain.Review, error)

	// Update locates the review, lets apply mutate it and persists the result.
	Update(ctx context.Context, id string, apply func(*domain.Review) error) (*domain.Review, error)

	// Delete removes a review from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// DeleteByProductID removes every review of a product and returns how
	// many were removed.
	DeleteByProductID(ctx context.Context, productID string) (int, error)
}
