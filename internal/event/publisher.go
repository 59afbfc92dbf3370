package event

import (
	"context"

	"github.com/utafrali/catalog/pkg/breaker"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
)

// Publisher delivers an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// NopPublisher drops every event. It is used when Kafka is disabled.
type NopPublisher struct{}

// Publish discards event.
func (NopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// breakerPublisher stops calling a failing broker until the breaker lets
// a probe through again.
type breakerPublisher struct {
	next    Publisher
	breaker *breaker.Breaker
}

// WithBreaker guards next with b.
func WithBreaker(next Publisher, b *breaker.Breaker) Publisher {
	return &breakerPublisher{next: next, breaker: b}
}

func (p *breakerPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	return p.breaker.Do(ctx, func(ctx context.Context) error {
		return p.next.Publish(ctx, topic, event)
	})
}
