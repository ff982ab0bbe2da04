package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	otlpmetricgrpc "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otlpmetrichttp "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otlptracegrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/ca-srg/ccrcheck/internal/logger"
	"github.com/ca-srg/ccrcheck/internal/types"
)

const shutdownTimeout = 5 * time.Second

// ShutdownFunc flushes pending telemetry and stops the providers.
type ShutdownFunc func(context.Context) error

// Init installs the global tracer and meter providers. Disabled telemetry
// leaves the otel no-op globals in place.
func Init(ctx context.Context, cfg *types.Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	s, err := resolve(cfg)
	if err != nil {
		return noop, err
	}
	if !s.enabled {
		return noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(s.attributes...),
	)
	if err != nil {
		return noop, fmt.Errorf("observability: resource: %w", err)
	}

	spans, err := newSpanExporter(ctx, s.target)
	if err != nil {
		return noop, fmt.Errorf("observability: trace exporter: %w", err)
	}
	metrics, err := newMetricExporter(ctx, s.target)
	if err != nil {
		_ = spans.Shutdown(ctx)
		return noop, fmt.Errorf("observability: metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(s.sampler),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spans),
	)
	// a CLI run is shorter than any sensible export interval; shutdown flushes
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics)),
	)

	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.L().Debug("telemetry enabled",
		zap.String("protocol", s.target.protocol),
		zap.String("host", s.target.host),
		zap.String("service", s.serviceName),
	)

	return func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
		}
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func newSpanExporter(ctx context.Context, t target) (sdktrace.SpanExporter, error) {
	if t.protocol == protocolGRPC {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.host)}
		if t.plaintext {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(t.host),
		otlptracehttp.WithURLPath(t.signalPath("traces")),
	}
	if t.plaintext {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func newMetricExporter(ctx context.Context, t target) (sdkmetric.Exporter, error) {
	if t.protocol == protocolGRPC {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(t.host)}
		if t.plaintext {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(t.host),
		otlpmetrichttp.WithURLPath(t.signalPath("metrics")),
	}
	if t.plaintext {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}
