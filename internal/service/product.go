package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/event"
	"github.com/utafrali/catalog/internal/repository"
	"github.com/utafrali/catalog/internal/storage"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// ProductService implements the business logic for product operations.
type ProductService struct {
	repo     repository.ProductRepository
	reviews  repository.ReviewRepository
	images   storage.ImageStore
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	reviews repository.ReviewRepository,
	images storage.ImageStore,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:     repo,
		reviews:  reviews,
		images:   images,
		producer: producer,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Brand       string
	Category    string
	Description string
	Price       float64
	ImageURL    string
}

// UpdateProductInput holds the fields an update may change. Nil fields are
// left untouched.
type UpdateProductInput struct {
	Name        *string
	Brand       *string
	Category    *string
	Description *string
	Price       *float64
	ImageURL    *string
}

func (in *UpdateProductInput) patch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:        in.Name,
		Brand:       in.Brand,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	}
}

// UploadImageInput holds an uploaded product image.
type UploadImageInput struct {
	ProductID    string
	OriginalName string
	ContentType  string
	Size         int64
	Data         io.Reader
}

// UploadImageResult describes a stored product image.
type UploadImageResult struct {
	FileName string
	URL      string
	Product  *domain.Product
}

// CreateProduct creates a new product with the given input.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	required := []struct{ field, value string }{
		{"name", input.Name},
		{"brand", input.Brand},
		{"category", input.Category},
		{"description", input.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("product %s is required", r.field))
		}
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Brand:       input.Brand,
		Category:    input.Category,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logPublishFailure(ctx, event.TopicProductCreated, product.ID, err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("category", product.Category),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts returns all products, or those in category when it is set.
func (s *ProductService) ListProducts(ctx context.Context, category *string) ([]domain.Product, error) {
	filter := repository.ProductFilter{Category: category}
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// UpdateProduct applies input to the product with id.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	patch := input.patch()
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput("at least one field must be provided")
	}
	optional := []struct {
		field string
		value *string
	}{
		{"name", input.Name},
		{"brand", input.Brand},
		{"category", input.Category},
		{"description", input.Description},
	}
	for _, o := range optional {
		if o.value != nil && strings.TrimSpace(*o.value) == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("product %s must not be empty", o.field))
		}
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	product, err := s.repo.Update(ctx, id, func(p *domain.Product) error {
		patch.Apply(p)
		p.Touch(time.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logPublishFailure(ctx, event.TopicProductUpdated, product.ID, err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
	)

	return product, nil
}

// DeleteProduct removes the product with id together with its reviews and
// its stored image.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	// The image name comes from the removed record so that an upload attached
	// just before the delete is cleaned up too.
	product, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	// The product is gone at this point. Reviews left behind by a failed
	// cascade are unreachable because every review route checks the product.
	removed, err := s.reviews.DeleteByProductID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete product reviews",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	if fileName := storedImageName(product); fileName != "" {
		if err := s.images.Delete(ctx, fileName); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete product image",
				slog.String("product_id", id),
				slog.String("file_name", fileName),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishProductDeleted(ctx, id, removed); err != nil {
		s.logPublishFailure(ctx, event.TopicProductDeleted, id, err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
		slog.Int("reviews_removed", removed),
	)

	return nil
}

// UploadImage stores the image of a product as <productId><ext> and points
// the product's imageUrl at it.
func (s *ProductService) UploadImage(ctx context.Context, input *UploadImageInput) (*UploadImageResult, error) {
	if err := s.EnsureProductExists(ctx, input.ProductID); err != nil {
		return nil, err
	}
	if !domain.IsAllowedImageType(input.ContentType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"unsupported image type %q, allowed: %s", input.ContentType, strings.Join(domain.AllowedImageTypes(), ", ")))
	}
	if input.Size > domain.MaxImageSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("image exceeds the %d byte limit", domain.MaxImageSize))
	}

	fileName := domain.ImageFileName(input.ProductID, input.OriginalName, input.ContentType)
	url, err := s.images.Save(ctx, fileName, input.Data)
	if err != nil {
		return nil, fmt.Errorf("store product image: %w", err)
	}

	product, err := s.repo.Update(ctx, input.ProductID, func(p *domain.Product) error {
		p.ImageURL = url
		p.Touch(time.Now().UTC())
		return nil
	})
	if err != nil {
		if cleanupErr := s.images.Delete(ctx, fileName); cleanupErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove orphaned product image",
				slog.String("file_name", fileName),
				slog.String("error", cleanupErr.Error()),
			)
		}
		return nil, fmt.Errorf("attach product image: %w", err)
	}

	uploaded := event.ProductImageUploadedData{
		ProductID:   product.ID,
		FileName:    fileName,
		ContentType: input.ContentType,
		Size:        input.Size,
		URL:         url,
	}
	if err := s.producer.PublishProductImageUploaded(ctx, uploaded); err != nil {
		s.logPublishFailure(ctx, event.TopicProductImageUploaded, product.ID, err)
	}

	s.logger.InfoContext(ctx, "product image uploaded",
		slog.String("product_id", product.ID),
		slog.String("file_name", fileName),
		slog.Int64("size", input.Size),
	)

	return &UploadImageResult{FileName: fileName, URL: url, Product: product}, nil
}

// EnsureProductExists returns a not-found error unless a product with id
// exists.
func (s *ProductService) EnsureProductExists(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("ensure product exists: %w", err)
	}
	return nil
}

func (s *ProductService) logPublishFailure(ctx context.Context, topic, aggregateID string, err error) {
	// Event publishing never fails the operation.
	s.logger.ErrorContext(ctx, "failed to publish event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("error", err.Error()),
	)
}

// storedImageName returns the file name of the product's uploaded image, or
// "" when its imageUrl does not point at one. Uploaded images are always
// named <productId><ext>; any other URL was supplied by a client.
func storedImageName(p *domain.Product) string {
	if p.ImageURL == "" {
		return ""
	}
	name := path.Base(p.ImageURL)
	if !strings.HasPrefix(name, p.ID+".") {
		return ""
	}
	return name
}
