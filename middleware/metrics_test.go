package middleware_test

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	mw "github.com/xraph/invoke/middleware"
)

// setupTestMeter builds a meter backed by a manual reader so tests can
// collect recorded datapoints deterministically.
func setupTestMeter(t *testing.T) (*sdkmetric.ManualReader, mw.Middleware) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	meter := provider.Meter("test")
	return reader, mw.MetricsWithMeter(meter)
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, m := setupTestMeter(t)
	c := newTestCommand(t, "MDUR")

	if err := m(context.Background(), c, func(_ context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rm := collectMetrics(t, reader)
	metric, ok := findMetric(rm, "invoke.command.duration")
	if !ok {
		t.Fatal("invoke.command.duration not recorded")
	}

	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", metric.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 datapoint, got %d", len(hist.DataPoints))
	}
	if hist.DataPoints[0].Count != 1 {
		t.Errorf("expected count 1, got %d", hist.DataPoints[0].Count)
	}
}

func TestMetrics_CountsInvocations(t *testing.T) {
	reader, m := setupTestMeter(t)
	c := newTestCommand(t, "MCNT")

	for range 3 {
		if err := m(context.Background(), c, func(_ context.Context) error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rm := collectMetrics(t, reader)
	metric, ok := findMetric(rm, "invoke.command.invocations")
	if !ok {
		t.Fatal("invoke.command.invocations not recorded")
	}

	sum, ok := metric.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", metric.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("expected 3 invocations, got %d", total)
	}
}

func TestMetrics_StatusAttribute(t *testing.T) {
	reader, m := setupTestMeter(t)
	c := newTestCommand(t, "MSTATUS")

	_ = m(context.Background(), c, func(_ context.Context) error { return nil })
	_ = m(context.Background(), c, func(_ context.Context) error { return errors.New("boom") })

	rm := collectMetrics(t, reader)
	metric, ok := findMetric(rm, "invoke.command.invocations")
	if !ok {
		t.Fatal("invoke.command.invocations not recorded")
	}
	sum, ok := metric.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", metric.Data)
	}

	statuses := map[string]int64{}
	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == "status" {
				statuses[attr.Value.AsString()] += dp.Value
			}
		}
	}
	if statuses["ok"] != 1 {
		t.Errorf("expected 1 ok invocation, got %d", statuses["ok"])
	}
	if statuses["error"] != 1 {
		t.Errorf("expected 1 error invocation, got %d", statuses["error"])
	}
}

func TestMetrics_CommandAttributes(t *testing.T) {
	reader, m := setupTestMeter(t)
	c := newTestCommand(t, "MATTR")

	_ = m(context.Background(), c, func(_ context.Context) error { return nil })

	rm := collectMetrics(t, reader)
	metric, ok := findMetric(rm, "invoke.command.invocations")
	if !ok {
		t.Fatal("invoke.command.invocations not recorded")
	}
	sum := metric.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) == 0 {
		t.Fatal("no datapoints")
	}

	attrs := map[string]string{}
	for _, attr := range sum.DataPoints[0].Attributes.ToSlice() {
		attrs[string(attr.Key)] = attr.Value.AsString()
	}
	if attrs["command"] != "MATTR" {
		t.Errorf("command attribute = %q, want %q", attrs["command"], "MATTR")
	}
	if attrs["group"] == "" {
		t.Error("group attribute missing")
	}
}

func TestMetrics_NoopWithoutProvider(t *testing.T) {
	// The global provider default is noop; the middleware must still
	// pass the action's result through unchanged.
	m := mw.Metrics()
	c := newTestCommand(t, "MNOOP")

	want := errors.New("action error")
	err := m(context.Background(), c, func(_ context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
