// Package telemetry records CLI usage events as OpenTelemetry span events.
// Nothing is exported unless telemetry is enabled and an OTLP endpoint is set.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationName = "github.com/gidevo/gidevo-api-tool"

// Config selects whether and where spans are exported
type Config struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
}

// ShutdownFunc flushes and stops the provider
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider. When telemetry is disabled or no
// endpoint is configured the global no-op provider stays in place.
func Init(ctx context.Context, cfg Config, logger zerolog.Logger) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}
	if cfg.Endpoint == "" {
		logger.Debug().Msg("OTEL_EXPORTER_OTLP_ENDPOINT not set, span export disabled")
		return noopShutdown, nil
	}

	logger.Debug().Str("endpoint", cfg.Endpoint).Msg("initializing OTLP exporter")

	var grpcOpts []grpc.DialOption
	if cfg.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(cfg.Endpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "gidevo-api-tool"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), conn.Close())
	}, nil
}

// Tracker records usage events. A disabled tracker only logs at debug level.
type Tracker struct {
	enabled bool
	logger  zerolog.Logger
	tracer  trace.Tracer
	events  metric.Int64Counter
}

// NewTracker creates a tracker. A nil provider uses the global one.
func NewTracker(enabled bool, logger zerolog.Logger, tp trace.TracerProvider) *Tracker {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	t := &Tracker{
		enabled: enabled,
		logger:  logger.With().Str("component", "telemetry").Logger(),
		tracer:  tp.Tracer(instrumentationName),
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"gidevo.events",
		metric.WithDescription("Usage events recorded by the CLI"),
	)
	if err == nil {
		t.events = counter
	}
	return t
}

// Enabled reports whether events are recorded
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Start opens a span for a command. The returned context carries it so
// Track and CaptureError attach to it.
func (t *Tracker) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Track adds event to the active span
func (t *Tracker) Track(ctx context.Context, event string, attrs ...attribute.KeyValue) {
	if !t.enabled {
		return
	}
	t.logger.Debug().Str("event", event).Msg("telemetry event")

	trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(attrs...))
	if t.events != nil {
		t.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	}
}

// CaptureError records err on the active span
func (t *Tracker) CaptureError(ctx context.Context, err error, attrs ...attribute.KeyValue) {
	if !t.enabled || err == nil {
		return
	}
	t.logger.Debug().Err(err).Msg("telemetry error")

	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}
