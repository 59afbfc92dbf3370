package jsonfile

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/catalog/pkg/tracing"
)

const tracerName = "github.com/utafrali/catalog/internal/repository/jsonfile"

// traceOp starts a span for one document operation. The returned function
// ends the span, records metrics and logs the operation when it took longer
// than the collection's slow threshold. It must be called with the number
// of records involved and the operation's error.
func (c *Collection[T]) traceOp(ctx context.Context, op string) (context.Context, func(records int, err error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "jsonfile."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("db.system", "file"),
			attribute.String("db.operation", op),
			attribute.String("jsonfile.collection", c.name),
			attribute.String("jsonfile.path", c.path),
		),
	)

	return ctx, func(records int, err error) {
		elapsed := time.Since(start)
		span.SetAttributes(attribute.Int("jsonfile.records", records))
		tracing.EndSpan(span, err)

		if c.metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			c.metrics.operations.WithLabelValues(c.name, op, status).Inc()
			c.metrics.duration.WithLabelValues(c.name, op).Observe(elapsed.Seconds())
			if err == nil {
				c.metrics.records.WithLabelValues(c.name).Set(float64(records))
			}
		}

		if c.slowThreshold > 0 && elapsed >= c.slowThreshold {
			attrs := []any{
				slog.String("collection", c.name),
				slog.String("operation", op),
				slog.Int("records", records),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			c.logger.WarnContext(ctx, "slow storage operation", attrs...)
		}
	}
}
