package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/catalog/internal/domain"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicProductCreated       = "catalog.product.created"
	TopicProductUpdated       = "catalog.product.updated"
	TopicProductDeleted       = "catalog.product.deleted"
	TopicProductImageUploaded = "catalog.product.image_uploaded"
	TopicReviewCreated        = "catalog.review.created"
	TopicReviewUpdated        = "catalog.review.updated"
	TopicReviewDeleted        = "catalog.review.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeReview  = "review"
)

// SourceCatalogService identifies events originating from this service.
const SourceCatalogService = "catalog"

// MetadataProductID carries the owning product of a review event.
const MetadataProductID = pkgkafka.MetadataProductID

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID             string `json:"id"`
	ReviewsRemoved int    `json:"reviews_removed"`
}

// ProductImageUploadedData is the payload for a product.image_uploaded event.
type ProductImageUploadedData struct {
	ProductID   string `json:"product_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// ReviewData is the payload for review events.
type ReviewData struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id"`
	Comment   string   `json:"comment,omitempty"`
	Rate      *float64 `json:"rate,omitempty"`
}

// Producer publishes catalog domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, productAggregate(product.ID), productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, productAggregate(product.ID), productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string, reviewsRemoved int) error {
	data := ProductDeletedData{ID: id, ReviewsRemoved: reviewsRemoved}
	return p.publish(ctx, TopicProductDeleted, productAggregate(id), data)
}

// PublishProductImageUploaded publishes a product.image_uploaded event.
func (p *Producer) PublishProductImageUploaded(ctx context.Context, data ProductImageUploadedData) error {
	return p.publish(ctx, TopicProductImageUploaded, productAggregate(data.ProductID), data)
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewCreated, review)
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewUpdated, review)
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, productID, reviewID string) error {
	data := ReviewData{ID: reviewID, ProductID: productID}
	return p.publish(ctx, TopicReviewDeleted, reviewAggregate(productID, reviewID), data)
}

func (p *Producer) publishReview(ctx context.Context, topic string, review *domain.Review) error {
	data := ReviewData{
		ID:        review.ID,
		ProductID: review.ProductID,
		Comment:   review.Comment,
		Rate:      &review.Rate,
	}
	return p.publish(ctx, topic, reviewAggregate(review.ProductID, review.ID), data)
}

func productAggregate(id string) pkgkafka.Aggregate {
	return pkgkafka.Aggregate{ID: id, Type: AggregateTypeProduct}
}

func reviewAggregate(productID, reviewID string) pkgkafka.Aggregate {
	return pkgkafka.Aggregate{ID: reviewID, Type: AggregateTypeReview, ProductID: productID}
}

func (p *Producer) publish(ctx context.Context, topic string, agg pkgkafka.Aggregate, data any) error {
	evt, err := pkgkafka.NewEvent(ctx, SourceCatalogService, topic, agg, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", agg.ID),
		slog.String("event_id", evt.EventID),
	)
	return nil
}
