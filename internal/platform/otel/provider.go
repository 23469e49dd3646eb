// Package otel sets up opt-in OpenTelemetry tracing
package otel

import (
	"context"
	"strings"

	"tokeisrv/internal/platform/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Options selects the exporter, empty Endpoint keeps tracing off
type Options struct {
	Endpoint    string
	ServiceName string
	Version     string
	// SampleRatio of 0 or less samples nothing, 1 or more samples everything
	SampleRatio float64
	// Compression is gzip or none
	Compression string
}

// FromConf reads the OTEL_* keys under c's prefix
func FromConf(c config.Conf, service, version string) Options {
	o := Options{ServiceName: service, Version: version}
	if !c.MayBool("OTEL_ENABLED", true) {
		return o
	}
	o.Endpoint = c.MayString("OTEL_ENDPOINT", "")
	o.SampleRatio = c.MayFloat("OTEL_SAMPLE_RATIO", 1)
	o.Compression = strings.ToLower(c.MayEnum("OTEL_COMPRESSION", "gzip", "gzip", "none"))
	return o
}

// Setup installs a global tracer provider when an endpoint is configured
// the returned shutdown flushes pending spans and is always non nil
func Setup(ctx context.Context, o Options) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if o.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(o.Endpoint),
		otlptracehttp.WithCompression(compression(o.Compression)),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(o.ServiceName),
			semconv.ServiceVersion(o.Version),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(o.SampleRatio)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider, a no-op until Setup installs one
func Tracer(name string) trace.Tracer { return otel.Tracer(name) }

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.NeverSample()
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func compression(name string) otlptracehttp.Compression {
	if name == "none" {
		return otlptracehttp.NoCompression
	}
	return otlptracehttp.GzipCompression
}
