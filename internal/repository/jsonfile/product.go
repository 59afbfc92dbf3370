package jsonfile

import (
	"context"
	"fmt"
	"slices"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// ProductRepository stores products in a JSON collection.
type ProductRepository struct {
	coll *Collection[domain.Product]
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a product repository over coll.
func NewProductRepository(coll *Collection[domain.Product]) *ProductRepository {
	return &ProductRepository{coll: coll}
}

// Create appends product. An existing id is a conflict.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	err := r.coll.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
		if indexOfProduct(products, product.ID) >= 0 {
			return nil, apperrors.AlreadyExists("product", product.ID)
		}
		return append(products, *product), nil
	})
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID returns a copy of the product with id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var found *domain.Product
	err := r.coll.View(ctx, func(products []domain.Product) error {
		i := indexOfProduct(products, id)
		if i < 0 {
			return apperrors.NotFound("product", id)
		}
		p := products[i]
		found = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return found, nil
}

// List returns every product, or only those in filter.Category.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	var result []domain.Product
	err := r.coll.View(ctx, func(products []domain.Product) error {
		if filter.Category == nil {
			result = products
			return nil
		}
		result = make([]domain.Product, 0, len(products))
		for i := range products {
			if products[i].InCategory(*filter.Category) {
				result = append(result, products[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return result, nil
}

// Update applies apply to the stored product and persists it in place.
func (r *ProductRepository) Update(ctx context.Context, id string, apply func(*domain.Product) error) (*domain.Product, error) {
	var updated domain.Product
	err := r.coll.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
		i := indexOfProduct(products, id)
		if i < 0 {
			return nil, apperrors.NotFound("product", id)
		}
		p := products[i]
		if err := apply(&p); err != nil {
			return nil, err
		}
		p.ID = id
		products[i] = p
		updated = p
		return products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &updated, nil
}

// Delete removes the product with id and returns the removed record, read
// under the same lock as the removal. The document is only rewritten when
// something was removed.
func (r *ProductRepository) Delete(ctx context.Context, id string) (*domain.Product, error) {
	var removed domain.Product
	err := r.coll.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
		i := indexOfProduct(products, id)
		if i < 0 {
			return nil, apperrors.NotFound("product", id)
		}
		removed = products[i]
		return slices.Delete(products, i, i+1), nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return &removed, nil
}

// Ping reports whether the products document is readable.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.coll.Ping(ctx)
}

func indexOfProduct(products []domain.Product, id string) int {
	return slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
}
