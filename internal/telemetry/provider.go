// Package telemetry sets up OpenTelemetry trace export.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options configures Setup.
type Options struct {
	ServiceName string
	// Endpoint is either a full URL (http://collector:4318/v1/traces) or a
	// host:port pair. Empty disables export.
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// Setup installs a global tracer provider exporting over OTLP/HTTP.
//
// Tracing is opt-in: with an empty endpoint Setup returns a no-op shutdown
// and leaves the global no-op provider in place. The returned shutdown
// flushes pending spans and should be deferred by the caller.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return noop, nil
	}

	var exporterOpts []otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpoint(endpoint))
		if opts.Insecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
	}

	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return noop, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(opts.SampleRatio)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
