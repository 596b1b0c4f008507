package store

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	metricsOnce     sync.Once
	storeOperations metric.Int64Counter
	storeDuration   metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/lyricsbridge/lyrics-bridge/internal/store")

		var err error
		storeOperations, err = meter.Int64Counter(
			"store.operations",
			metric.WithDescription("Total token store operations"),
		)
		if err != nil {
			otel.Handle(err)
		}

		storeDuration, err = meter.Float64Histogram(
			"store.operation.duration",
			metric.WithDescription("Token store operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented wraps a TokenStore with metrics instrumentation.
type Instrumented struct {
	wrapped   TokenStore
	storeType string
}

// NewInstrumented creates an instrumented store wrapper.
func NewInstrumented(s TokenStore, storeType string) *Instrumented {
	initMetrics()
	return &Instrumented{
		wrapped:   s,
		storeType: storeType,
	}
}

func (i *Instrumented) Get(ctx context.Context, userID string) (CachedToken, bool, error) {
	start := time.Now()

	token, found, err := i.wrapped.Get(ctx, userID)

	duration := time.Since(start)

	status := "miss"
	if err != nil {
		status = "error"
	} else if found {
		status = "hit"
	}
	i.record(ctx, "get", status, duration)

	return token, found, err
}

func (i *Instrumented) Put(ctx context.Context, token CachedToken) error {
	start := time.Now()

	err := i.wrapped.Put(ctx, token)

	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	i.record(ctx, "put", status, duration)

	return err
}

func (i *Instrumented) Close() error {
	return i.wrapped.Close()
}

func (i *Instrumented) record(ctx context.Context, operation, status string, duration time.Duration) {
	if storeOperations != nil {
		storeOperations.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("store.type", i.storeType),
				attribute.String("store.operation", operation),
				attribute.String("store.status", status),
			),
		)
	}

	if storeDuration != nil {
		storeDuration.Record(ctx, duration.Seconds(),
			metric.WithAttributes(
				attribute.String("store.type", i.storeType),
				attribute.String("store.operation", operation),
			),
		)
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("store.type", i.storeType),
		attribute.String("store."+operation+".status", status),
		attribute.Float64("store."+operation+".duration", duration.Seconds()),
	)
}
