package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/taoyuan/witty/middleware"

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	propagator     propagation.TextMapPropagator
	serviceName    string
	skip           []string
}

// WithTracerProvider sets the tracer provider. Default: the global one.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider. Default: the global one.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithPropagator sets how incoming trace context is extracted. Default: the
// global text map propagator.
func WithPropagator(p propagation.TextMapPropagator) OTelOption {
	return func(c *otelConfig) {
		c.propagator = p
	}
}

// WithOTelServiceName sets the service.name attribute.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// WithOTelSkipPaths leaves requests under the given path prefixes untraced.
func WithOTelSkipPaths(prefixes ...string) OTelOption {
	return func(c *otelConfig) {
		c.skip = append(c.skip, prefixes...)
	}
}

// OTel traces each request in a server span, continuing any trace context
// the caller sent, and records request duration and in-flight counts.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		propagator:     otel.GetTextMapPropagator(),
		serviceName:    "witty",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(instrumentationName)
	meter := cfg.meterProvider.Meter(instrumentationName)

	duration, _ := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
	)
	active, _ := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of HTTP server requests in flight"),
		metric.WithUnit("{request}"),
	)
	service := attribute.String("service.name", cfg.serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skipped(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := cfg.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					service,
				),
			)
			defer span.End()
			if id := RequestIDFromContext(ctx); id != "" {
				span.SetAttributes(attribute.String("http.request.id", id))
			}

			method := metric.WithAttributes(attribute.String("http.request.method", r.Method), service)
			active.Add(ctx, 1, method)
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			active.Add(ctx, -1, method)
			duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.Int("http.response.status_code", rec.status),
				service,
			))

			span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
		})
	}
}

func (c *otelConfig) skipped(path string) bool {
	for _, p := range c.skip {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
