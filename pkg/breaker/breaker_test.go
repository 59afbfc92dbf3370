package breaker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(t *testing.T, cfg Config) (*Breaker, *Metrics, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	m := NewMetrics(prometheus.NewRegistry())
	return New(cfg, m, slog.New(slog.NewJSONHandler(&buf, nil))), m, &buf
}

func failing(context.Context) error { return errors.New("broker down") }

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b, m, _ := newTestBreaker(t, DefaultConfig("kafka"))

	calls := 0
	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("kafka")))
}

func TestBreaker_TripsAfterFailureRatio(t *testing.T) {
	cfg := DefaultConfig("kafka")
	cfg.MinRequests = 3
	b, m, logs := newTestBreaker(t, cfg)

	for i := 0; i < 3; i++ {
		err := b.Do(context.Background(), failing)
		require.EqualError(t, err, "broker down")
	}

	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.state.WithLabelValues("kafka")))
	assert.Contains(t, logs.String(), "circuit breaker state change")

	called := false
	err := b.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("kafka")))
}

func TestBreaker_BelowMinRequestsStaysClosed(t *testing.T) {
	b, _, _ := newTestBreaker(t, DefaultConfig("kafka"))

	for i := 0; i < 4; i++ {
		_ = b.Do(context.Background(), failing)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	cfg := DefaultConfig("kafka")
	cfg.MinRequests = 1
	cfg.Timeout = 10 * time.Millisecond
	b, m, _ := newTestBreaker(t, cfg)

	_ = b.Do(context.Background(), failing)
	require.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Do(context.Background(), func(context.Context) error { return nil }))

	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("kafka")))
}

func TestBreaker_CanceledContextDoesNotTrip(t *testing.T) {
	cfg := DefaultConfig("kafka")
	cfg.MinRequests = 1
	b, _, _ := newTestBreaker(t, cfg)

	err := b.Do(context.Background(), func(context.Context) error { return context.Canceled })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_Name(t *testing.T) {
	b, _, _ := newTestBreaker(t, DefaultConfig("events"))
	assert.Equal(t, "events", b.Name())
}
