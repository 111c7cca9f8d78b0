package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindex/internal/config"
)

func TestInitializeOTel_Defaults(t *testing.T) {
	providers, err := InitializeOTel(nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	assert.Nil(t, providers.TracerProvider, "tracing is off by default")
	assert.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)
}

func TestInitializeOTel_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		cfg  OTelConfig
	}{
		{"trace", OTelConfig{TraceExporter: "jaeger", MetricExporter: "none"}},
		{"metric", OTelConfig{TraceExporter: "none", MetricExporter: "statsd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitializeOTel(&tt.cfg, nil)
			require.Error(t, err)
		})
	}
}

func TestStdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	cfg := OTelConfigFrom(config.Default().Telemetry)
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"
	cfg.TraceWriter = &buf

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	ctx, span := providers.Tracer.Start(context.Background(), "calculator.load")
	assert.NotEmpty(t, GetTraceID(ctx), "span trace id is visible to loggers")
	RecordError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "calculator.load")
	assert.Contains(t, buf.String(), "boom")
}

func TestCalculationMetrics_Prometheus(t *testing.T) {
	providers, err := InitializeOTel(OTelConfigFrom(config.Default().Telemetry), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := NewCalculationMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordLoad(ctx, LoadStats{Observations: 9, Panels: 1, IndexResults: 33, Duration: 10 * time.Millisecond})
	metrics.RecordLoad(ctx, LoadStats{Err: errors.New("bad file")})
	metrics.RecordExport(ctx, "ratios", nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "pindex_loads_total")
	assert.Contains(t, text, `status="failure"`)
	assert.Contains(t, text, "pindex_observations_loaded_total")
	assert.Contains(t, text, `kind="ratios"`)
}

func TestCalculationMetrics_NilSafe(t *testing.T) {
	var m *CalculationMetrics
	assert.NotPanics(t, func() {
		m.RecordLoad(context.Background(), LoadStats{})
		m.RecordExport(context.Background(), "indices", nil)
	})
}

func TestNoopProviders(t *testing.T) {
	p := NoopProviders()
	metrics, err := NewCalculationMetrics(p.Meter)
	require.NoError(t, err)
	metrics.RecordLoad(context.Background(), LoadStats{Observations: 1})
	assert.NoError(t, p.Shutdown(context.Background()))
}
