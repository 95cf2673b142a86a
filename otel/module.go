package otel

import (
	"context"

	"github.com/bronystylecrazy/layertrace/cfg"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ModuleName = "layertrace.otel"

func configOptions() []cfg.Option {
	opts := make([]cfg.Option, 0, len(Defaults)+1)
	for k, v := range Defaults {
		opts = append(opts, cfg.WithDefault(k, v))
	}
	return append(opts, cfg.WithViper(ApplyEnv))
}

// Exporters dial lazily, so construction under a background context does
// not block app start.
func provideResource(config Config) (*resource.Resource, error) {
	return NewResource(context.Background(), config)
}

func provideTraceExporter(config Config, logger *zap.Logger) (sdktrace.SpanExporter, error) {
	return NewTraceExporter(context.Background(), config, logger)
}

func provideMetricExporter(config Config, logger *zap.Logger) (sdkmetric.Exporter, error) {
	return NewMetricExporter(context.Background(), config, logger)
}

func provideLogExporter(config Config, logger *zap.Logger) (sdklog.Exporter, error) {
	return NewLogExporter(context.Background(), config, logger)
}

// provideObserver hands layer code a logger bridged to the log exporter.
func provideObserver(logger *zap.Logger, config Config, tp *TracerProvider, mp *MeterProvider, lp *LoggerProvider) *Observer {
	return NewDefaultObserver(BridgeLogger(logger, config, lp), tp, mp)
}

func Module(extends ...fx.Option) fx.Option {
	return fx.Module(
		ModuleName,
		cfg.Provide[Config]("otel", configOptions()...),
		fx.Provide(
			provideResource,
			provideTraceExporter,
			NewTracerProvider,
			provideMetricExporter,
			NewMeterProvider,
			provideLogExporter,
			NewLoggerProvider,
			provideObserver,
		),
		fx.Invoke(RegisterShutdown),
		fx.Options(extends...),
	)
}
