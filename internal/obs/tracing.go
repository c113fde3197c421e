package obs

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName names the register in exported spans.
const DefaultServiceName = "pos-register"

// Resource attribute keys describing the register that produced a span.
const (
	AttrCurrency         = attribute.Key("pos.currency")
	AttrInventoryBackend = attribute.Key("pos.inventory.backend")
)

// TracingConfig controls tracer provider initialisation. Exporter is "otlp"
// (default) or "none".
type TracingConfig struct {
	Enabled          bool
	ServiceName      string
	Endpoint         string
	Exporter         string
	SamplingRatio    float64
	Environment      string
	Currency         string
	InventoryBackend string
}

// InitTracer installs a global tracer provider for the register and returns
// its shutdown function. Disabled tracing keeps the global no-op provider.
func InitTracer(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}
	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil || exporter == nil {
		return noop, err
	}
	res, err := NewResource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ratio := cfg.SamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

// NewResource describes the register: service name, environment, currency
// and inventory backend. Empty values are left out.
func NewResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = DefaultServiceName
	}
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(name)}
	if env := strings.TrimSpace(cfg.Environment); env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(env))
	}
	if cur := strings.TrimSpace(cfg.Currency); cur != "" {
		attrs = append(attrs, AttrCurrency.String(cur))
	}
	if backend := strings.TrimSpace(cfg.InventoryBackend); backend != "" {
		attrs = append(attrs, AttrInventoryBackend.String(backend))
	}
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
}

// newSpanExporter returns nil without error for the "none" exporter.
func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch kind := strings.ToLower(strings.TrimSpace(cfg.Exporter)); kind {
	case "", "otlp":
		var opts []otlptracehttp.Option
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		return exp, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", kind)
	}
}
