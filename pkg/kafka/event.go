package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/utafrali/catalog/pkg/logger"
)

// SchemaVersion is written on every envelope.
const SchemaVersion = 1

// MetadataProductID names the metadata entry holding the product a
// non-product aggregate belongs to.
const MetadataProductID = "product_id"

// Aggregate identifies the record an event is about. ProductID is the owning
// product for records nested under one, such as reviews.
type Aggregate struct {
	ID        string
	Type      string
	ProductID string
}

// Event is the envelope every catalog message is wrapped in.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent envelopes data for agg. The correlation id of the request in ctx
// is copied onto the envelope, and agg.ProductID is recorded in Metadata
// when it differs from the aggregate itself.
func NewEvent(ctx context.Context, source, eventType string, agg Aggregate, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	evt := &Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   agg.ID,
		AggregateType: agg.Type,
		Version:       SchemaVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Data:          payload,
	}
	if agg.ProductID != "" && agg.ProductID != agg.ID {
		evt.Metadata = map[string]string{MetadataProductID: agg.ProductID}
	}
	return evt, nil
}

// PartitionKey keys the message by the owning product when there is one,
// so that a product's events and those of its reviews share a partition.
func (e *Event) PartitionKey() string {
	if id := e.Metadata[MetadataProductID]; id != "" {
		return id
	}
	return e.AggregateID
}

// Headers describes e for consumers that route without decoding the value.
func (e *Event) Headers() []kafka.Header {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(e.EventType)},
		{Key: "source", Value: []byte(e.Source)},
		{Key: "version", Value: []byte(fmt.Sprint(e.Version))},
	}
	if e.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "correlation_id", Value: []byte(e.CorrelationID)})
	}
	return headers
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}
