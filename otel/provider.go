package otel

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/multierr"
)

type TracerProvider struct {
	*sdktrace.TracerProvider
}

type MeterProvider struct {
	*sdkmetric.MeterProvider
}

// NewSampler maps the OTEL_TRACES_SAMPLER names onto SDK samplers. Unknown
// names fall back to parentbased_traceidratio.
func NewSampler(config TracesConfig) sdktrace.Sampler {
	ratio := config.SamplerArg
	switch strings.ToLower(strings.TrimSpace(config.Sampler)) {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio)
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// NewTracerProvider installs the provider globally. Spans are batched to
// exporter when there is one and stay in process otherwise.
func NewTracerProvider(res *resource.Resource, exporter sdktrace.SpanExporter, config Config) *TracerProvider {
	options := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(NewSampler(config.Traces)),
	}
	if exporter != nil {
		options = append(options, sdktrace.WithBatcher(exporter))
	}
	tp := &TracerProvider{sdktrace.NewTracerProvider(options...)}
	otel.SetTracerProvider(tp.TracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp
}

func NewMeterProvider(res *resource.Resource, exporter sdkmetric.Exporter, config Config) *MeterProvider {
	options := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if exporter != nil {
		reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(config.ExportInterval()))
		options = append(options, sdkmetric.WithReader(reader))
	}
	mp := &MeterProvider{sdkmetric.NewMeterProvider(options...)}
	otel.SetMeterProvider(mp.MeterProvider)
	return mp
}

// Shutdown flushes and stops the providers, reporting every failure.
func Shutdown(ctx context.Context, tp *TracerProvider, mp *MeterProvider, lp *LoggerProvider) error {
	var err error
	if tp != nil {
		err = multierr.Append(err, tp.Shutdown(ctx))
	}
	if mp != nil {
		err = multierr.Append(err, mp.Shutdown(ctx))
	}
	if lp != nil {
		err = multierr.Append(err, lp.Shutdown(ctx))
	}
	return err
}

func RegisterShutdown(lc fx.Lifecycle, tp *TracerProvider, mp *MeterProvider, lp *LoggerProvider) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return Shutdown(ctx, tp, mp, lp)
		},
	})
}
