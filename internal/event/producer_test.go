package event

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/breaker"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
	"github.com/utafrali/catalog/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, event: event})
	return nil
}

func newTestProducer(pub Publisher) *Producer {
	return NewProducer(pub, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
}

func TestProducer_PublishProductCreated(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestProducer(pub)
	product := &domain.Product{ID: "p-1", Name: "Runner", Brand: "Acme", Category: "Shoes", Price: 59.9}

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, p.PublishProductCreated(ctx, product))

	require.Len(t, pub.events, 1)
	got := pub.events[0]
	assert.Equal(t, TopicProductCreated, got.topic)
	assert.Equal(t, TopicProductCreated, got.event.EventType)
	assert.Equal(t, "p-1", got.event.AggregateID)
	assert.Equal(t, AggregateTypeProduct, got.event.AggregateType)
	assert.Equal(t, SourceCatalogService, got.event.Source)
	assert.Equal(t, "corr-1", got.event.CorrelationID)

	var data ProductData
	require.NoError(t, got.event.UnmarshalData(&data))
	assert.Equal(t, "Runner", data.Name)
	assert.Equal(t, 59.9, data.Price)
}

func TestProducer_TopicsPerOperation(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestProducer(pub)
	ctx := context.Background()
	product := &domain.Product{ID: "p-1"}
	review := &domain.Review{ID: "r-1", ProductID: "p-1", Comment: "ok", Rate: 3}

	require.NoError(t, p.PublishProductUpdated(ctx, product))
	require.NoError(t, p.PublishProductDeleted(ctx, "p-1", 2))
	require.NoError(t, p.PublishProductImageUploaded(ctx, ProductImageUploadedData{ProductID: "p-1", FileName: "p-1.png"}))
	require.NoError(t, p.PublishReviewCreated(ctx, review))
	require.NoError(t, p.PublishReviewUpdated(ctx, review))
	require.NoError(t, p.PublishReviewDeleted(ctx, "p-1", "r-1"))

	topics := make([]string, 0, len(pub.events))
	for _, e := range pub.events {
		topics = append(topics, e.topic)
	}
	assert.Equal(t, []string{
		TopicProductUpdated,
		TopicProductDeleted,
		TopicProductImageUploaded,
		TopicReviewCreated,
		TopicReviewUpdated,
		TopicReviewDeleted,
	}, topics)

	var deleted ProductDeletedData
	require.NoError(t, pub.events[1].event.UnmarshalData(&deleted))
	assert.Equal(t, 2, deleted.ReviewsRemoved)

	assert.Equal(t, "r-1", pub.events[5].event.AggregateID)
	assert.Equal(t, AggregateTypeReview, pub.events[5].event.AggregateType)
	assert.Empty(t, pub.events[5].event.CorrelationID)
}

func TestProducer_PublishError(t *testing.T) {
	p := newTestProducer(&recordingPublisher{err: errors.New("broker down")})

	err := p.PublishProductDeleted(context.Background(), "p-1", 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish catalog.product.deleted event")
	assert.Contains(t, err.Error(), "broker down")
}

func TestNopPublisher(t *testing.T) {
	p := newTestProducer(NopPublisher{})
	assert.NoError(t, p.PublishReviewCreated(context.Background(), &domain.Review{ID: "r-1"}))
}

func TestWithBreaker_OpensAfterFailures(t *testing.T) {
	cfg := breaker.DefaultConfig("kafka")
	cfg.MinRequests = 2
	cfg.Timeout = time.Hour
	b := breaker.New(cfg, breaker.NewMetrics(prometheus.NewRegistry()),
		slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))

	inner := &recordingPublisher{err: errors.New("broker down")}
	pub := WithBreaker(inner, b)
	evt, err := pkgkafka.NewEvent(context.Background(), SourceCatalogService, TopicProductCreated, productAggregate("p-1"), nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.Error(t, pub.Publish(context.Background(), TopicProductCreated, evt))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	inner.err = nil
	err = pub.Publish(context.Background(), TopicProductCreated, evt)
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Empty(t, inner.events)
}

func TestProducer_ReviewEventsCarryProductMetadata(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestProducer(pub)

	ctx := context.Background()
	require.NoError(t, p.PublishReviewCreated(ctx, &domain.Review{ID: "r-1", ProductID: "p-1", Comment: "ok", Rate: 4}))
	require.NoError(t, p.PublishReviewDeleted(ctx, "p-1", "r-1"))
	require.NoError(t, p.PublishProductUpdated(ctx, &domain.Product{ID: "p-1", Name: "Runner"}))

	require.Len(t, pub.events, 3)
	assert.Equal(t, "p-1", pub.events[0].event.Metadata[MetadataProductID])
	assert.Equal(t, "p-1", pub.events[1].event.PartitionKey())
	assert.Empty(t, pub.events[2].event.Metadata)
}
