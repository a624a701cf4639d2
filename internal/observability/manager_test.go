package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/shopdata/internal/config"
)

func testConfig() config.Observability {
	return config.Observability{
		ServiceName:     "shopdata-test",
		Environment:     "test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
	}
}

func TestManager_RecordsRowsByTable(t *testing.T) {
	mgr, err := New(testConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	ctx := context.Background()
	mgr.RecordGenerated(ctx, "users", 100)
	mgr.RecordLoaded(ctx, "users", 100)
	mgr.ObserveStage(ctx, "load", 250*time.Millisecond)

	families, err := mgr.Gatherer().Gather()
	require.NoError(t, err)

	counters := map[string]float64{}
	histograms := map[string]uint64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				counters[mf.GetName()] = c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				histograms[mf.GetName()] = h.GetSampleCount()
			}
		}
	}

	assert.Equal(t, 100.0, counters["shopdata_rows_generated_total"], "counters: %v", counters)
	assert.Equal(t, 100.0, counters["shopdata_rows_loaded_total"], "counters: %v", counters)
	assert.Equal(t, uint64(1), histograms["shopdata_stage_duration_seconds"], "histograms: %v", histograms)
}

func TestManager_TracingToggle(t *testing.T) {
	cfg := testConfig()
	mgr, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mgr.TracingEnabled())

	cfg.EnableTracing = true
	cfg.TraceExporter = "stdout"
	mgr, err = New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })
	assert.True(t, mgr.TracingEnabled())
	assert.True(t, mgr.MetricsEnabled())
}

func TestManager_DisabledMetricsAreNoop(t *testing.T) {
	cfg := testConfig()
	cfg.EnableMetrics = false

	mgr, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.Gatherer())
	mgr.RecordGenerated(context.Background(), "orders", 1)
	assert.NoError(t, mgr.Push(context.Background()))
	assert.NoError(t, mgr.Shutdown(context.Background()))
}

func TestManager_PushesToGateway(t *testing.T) {
	var hits atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Contains(t, r.URL.Path, "/metrics/job/shopdata-test")
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	cfg := testConfig()
	cfg.PushgatewayURL = gateway.URL

	mgr, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	mgr.RecordGenerated(context.Background(), "payments", 3)
	require.NoError(t, mgr.Push(context.Background()))
	assert.Equal(t, int32(1), hits.Load())
}
