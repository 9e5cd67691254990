package core

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// MetricsRecorder receives one observation per pipeline operation (full run
// and per stage). Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens a span per pipeline operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is one in-flight traced operation; End must be called exactly
// once.
type TraceSpan interface {
	End(err error)
}

// NoopMetricsRecorder discards all observations.
type NoopMetricsRecorder struct{}

// Observe implements MetricsRecorder.
func (NoopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// NoopTracer produces spans that record nothing.
type NoopTracer struct{}

// Start implements Tracer.
func (NoopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
