// Package otel wires OpenTelemetry tracing for court binaries.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type settings struct {
	Endpoint    string  `env:"DECICOURT_OTEL_ENDPOINT"`
	Enabled     string  `env:"DECICOURT_OTEL_ENABLED"`
	SampleRatio float64 `env:"DECICOURT_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when DECICOURT_OTEL_ENDPOINT is empty or
// DECICOURT_OTEL_ENABLED is "false", Setup returns a no-op shutdown function
// and no global provider is registered.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		return noop, fmt.Errorf("parse otel env: %w", err)
	}
	if strings.EqualFold(cfg.Enabled, "false") || strings.TrimSpace(cfg.Endpoint) == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns a tracer from the global provider. Before Setup registers a
// provider it yields no-op spans.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
