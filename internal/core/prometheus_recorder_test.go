package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	ctx := context.Background()
	rec.Observe(ctx, "pipeline_run", true, 120*time.Millisecond)
	rec.Observe(ctx, "pipeline_run", true, 80*time.Millisecond)
	rec.Observe(ctx, "pipeline_run", false, 10*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	success := testutil.ToFloat64(rec.operations.WithLabelValues("pipeline_run", "success"))
	if success != 2 {
		t.Fatalf("success counter: got %v want 2", success)
	}
	failure := testutil.ToFloat64(rec.operations.WithLabelValues("pipeline_run", "error"))
	if failure != 1 {
		t.Fatalf("error counter: got %v want 1", failure)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	if !names["keibacore_pipeline_operations_total"] || !names["keibacore_pipeline_operation_duration_seconds"] {
		t.Fatalf("expected both collectors registered, got %v", names)
	}
}

func TestPrometheusRecorderDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("duplicate registration accepted")
	}
}
