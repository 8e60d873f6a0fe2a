// Package tracing wires OpenTelemetry export for the console. Spans cover
// every outbound admin API call, nested under the otelhttp client spans.
package tracing

import (
	"context"
	"os"

	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "lewctl"

// tracer must be resolved lazily; the global provider is only registered
// once Init has run, and with tracing disabled it never runs at all (the
// default no-op provider then absorbs every span).
func tracer() trace.Tracer {
	return otel.Tracer(serviceName)
}

// Init registers a tracer provider exporting over OTLP HTTP. The collector
// endpoint comes from OTEL_EXPORTER_OTLP_ENDPOINT (default localhost:4318).
// The caller owns shutdown through the returned provider.
func Init(ctx context.Context) (*sdktrace.TracerProvider, error) {
	otel.SetLogger(zerologr.New(&log.Logger))

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4318"
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Debug().Str("endpoint", endpoint).Msg("tracing initialized")
	return provider, nil
}

// GatewaySpan starts a span covering one admin API call. The endpoint label
// matches the one used for metrics and logs, so the three correlate.
func GatewaySpan(ctx context.Context, method, endpoint string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "gateway."+endpoint,
		trace.WithAttributes(
			attribute.String("gateway.method", method),
			attribute.String("gateway.endpoint", endpoint),
		),
	)
}

// EndWithError marks the span failed when err is non-nil.
func EndWithError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
