package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, detailed bool) (*Provider, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
		DetailedLabels:  detailed,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return provider, ctx
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	provider, ctx := newTestProvider(t, false)

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)
}

func TestMetrics_RecordAPIOperation(t *testing.T) {
	for _, detailed := range []bool{false, true} {
		provider, ctx := newTestProvider(t, detailed)
		metrics := provider.Metrics()

		metrics.RecordAPIOperation(ctx, ServiceWorkspace, OperationSearch, 200, 200*time.Millisecond)
		metrics.RecordAPIOperation(ctx, ServiceWorkspace, OperationCreatePage, 429, 500*time.Millisecond)
		metrics.RecordAPIOperation(ctx, ServiceFlow, OperationRunFlow, 0, time.Second)
		metrics.RecordAPIRetry(ctx, ServiceWorkspace, OperationFetchBlocks)
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	provider, ctx := newTestProvider(t, false)
	metrics := provider.Metrics()

	metrics.RecordToolInvocation(ctx, "medical_lab_page", StatusSuccess, 300*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "medical_medicine_page", StatusError, 100*time.Millisecond)
}

func TestMetrics_RecordAggregation(t *testing.T) {
	provider, ctx := newTestProvider(t, false)
	metrics := provider.Metrics()

	metrics.RecordAggregation(ctx, OutcomeComplete, 2, 1200)
	metrics.RecordAggregation(ctx, OutcomeTruncated, 5, 6400)
	metrics.RecordAggregation(ctx, OutcomeNoMatch, 0, 0)
}

func TestMetrics_Uninitialized(t *testing.T) {
	ctx := context.Background()
	metrics := &Metrics{}

	// A zero Metrics is what a disabled provider hands out; nothing may panic.
	metrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	metrics.RecordAPIOperation(ctx, ServiceWorkspace, OperationSearch, 200, time.Millisecond)
	metrics.RecordAPIRetry(ctx, ServiceWorkspace, OperationSearch)
	metrics.RecordToolInvocation(ctx, "medical_lab_page", StatusSuccess, time.Millisecond)
	metrics.RecordAggregation(ctx, OutcomeComplete, 1, 10)
}
