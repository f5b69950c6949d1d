package otel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Strob0t/PromptDesk/internal/config"
)

func TestNewMetricsFrom_RecordsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewMetricsFrom(mp)
	if err != nil {
		t.Fatalf("NewMetricsFrom: %v", err)
	}

	ctx := context.Background()
	m.UsersCreated.Add(ctx, 2)
	m.CapacityRejections.Add(ctx, 1)
	m.ExecutionLatency.Record(ctx, 120)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	got := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			got[md.Name] = true
			if md.Name == "promptdesk.users.created" {
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
					t.Errorf("users.created data = %#v", md.Data)
				}
			}
		}
	}
	for _, name := range []string{"promptdesk.users.created", "promptdesk.users.capacity_rejections", "promptdesk.execution.latency_ms"} {
		if !got[name] {
			t.Errorf("metric %s not collected", name)
		}
	}
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTEL{Enabled: false})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSpans_RecordErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartDirectorySpan(context.Background(), "create_user", "t1")
	EndSpan(span, errors.New("boom"))

	_, span = StartContentSpan(context.Background(), "render", "t1", "r1")
	EndSpan(span, nil)

	ended := rec.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(ended))
	}
	if ended[0].Name() != "directory.create_user" || len(ended[0].Events()) == 0 {
		t.Errorf("first span = %s events=%d", ended[0].Name(), len(ended[0].Events()))
	}
	if ended[1].Name() != "content.render" {
		t.Errorf("second span = %s", ended[1].Name())
	}
}

func TestHTTPMiddleware_PassesThrough(t *testing.T) {
	h := HTTPMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}
