// Package observe sets up the optional OpenTelemetry trace pipeline.
// Spans are created throughout dispatch regardless; without an
// exporter they fall through to the no-op global provider.
package observe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/codetalcott/llmux/internal/config"
)

const shutdownTimeout = 5 * time.Second

// ShutdownFunc flushes and tears down the trace pipeline.
type ShutdownFunc func(ctx context.Context) error

// Setup installs an OTLP/HTTP trace exporter as the global tracer
// provider. When cfg is nil or the endpoint is empty it is a no-op and
// the returned shutdown does nothing.
func Setup(ctx context.Context, cfg *config.ObservabilityConfig, version string, logger *slog.Logger) (ShutdownFunc, error) {
	if cfg == nil || cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("llmux"),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("trace export enabled", "endpoint", cfg.OTLPEndpoint)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
