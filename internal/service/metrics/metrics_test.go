package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecorder_ArtifactStored(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rec, err := NewRecorderWithProvider(provider, provider.Shutdown)
	require.NoError(t, err)

	ctx := context.Background()
	rec.ArtifactStored(ctx, "encoded", 100)
	rec.ArtifactStored(ctx, "encoded", 300)
	rec.IngestFailed(ctx, "upload", "bad_request")

	got := collect(t, reader)

	stored, ok := got["depthcapture_artifacts_stored_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, stored.DataPoints, 1)
	assert.Equal(t, int64(2), stored.DataPoints[0].Value)

	sizes, ok := got["depthcapture_artifact_bytes"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, sizes.DataPoints, 1)
	assert.Equal(t, int64(400), sizes.DataPoints[0].Sum)

	failures, ok := got["depthcapture_ingest_failures_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), failures.DataPoints[0].Value)

	assert.NoError(t, rec.Close(ctx))
}

func TestNewRecorder_DisabledIsNoop(t *testing.T) {
	rec, err := NewRecorder(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	rec.ArtifactStored(context.Background(), "upload", 1)
	assert.NoError(t, rec.Close(context.Background()))
}
