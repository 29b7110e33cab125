package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "depthcapture"
	serviceVersion = "1.0.0"
)

// Config holds OTLP exporter configuration.
type Config struct {
	Enabled  bool
	Endpoint string
	Insecure bool
}

// Recorder records ingestion metrics.
type Recorder struct {
	shutdown     func(context.Context) error
	storedTotal  metric.Int64Counter
	storedBytes  metric.Int64Histogram
	failureTotal metric.Int64Counter
}

// NewRecorder exports to an OTLP collector over gRPC when enabled, and records
// into a no-op meter otherwise.
func NewRecorder(ctx context.Context, cfg Config) (*Recorder, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return NewRecorderWithProvider(noop.NewMeterProvider(), nil)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)

	return NewRecorderWithProvider(provider, provider.Shutdown)
}

// NewRecorderWithProvider builds the instruments on an existing provider.
// shutdown may be nil.
func NewRecorderWithProvider(provider metric.MeterProvider, shutdown func(context.Context) error) (*Recorder, error) {
	meter := provider.Meter(serviceName)

	storedTotal, err := meter.Int64Counter(
		"depthcapture_artifacts_stored_total",
		metric.WithDescription("Artifacts written to the artifact directory"),
		metric.WithUnit("{artifact}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stored counter: %w", err)
	}

	storedBytes, err := meter.Int64Histogram(
		"depthcapture_artifact_bytes",
		metric.WithDescription("Size of stored artifacts"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating size histogram: %w", err)
	}

	failureTotal, err := meter.Int64Counter(
		"depthcapture_ingest_failures_total",
		metric.WithDescription("Rejected or failed ingestion requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failure counter: %w", err)
	}

	return &Recorder{
		shutdown:     shutdown,
		storedTotal:  storedTotal,
		storedBytes:  storedBytes,
		failureTotal: failureTotal,
	}, nil
}

// ArtifactStored records one stored artifact of the given size.
func (r *Recorder) ArtifactStored(ctx context.Context, source string, size int64) {
	opt := metric.WithAttributes(attribute.String("source", source))
	r.storedTotal.Add(ctx, 1, opt)
	r.storedBytes.Record(ctx, size, opt)
}

// IngestFailed records a failed ingestion; reason is "bad_request" or "storage".
func (r *Recorder) IngestFailed(ctx context.Context, source, reason string) {
	r.failureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("reason", reason),
	))
}

// Close flushes and shuts down the exporter, if any.
func (r *Recorder) Close(ctx context.Context) error {
	if r.shutdown == nil {
		return nil
	}
	return r.shutdown(ctx)
}
