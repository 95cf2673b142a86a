package otel

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/credentials"
)

type LoggerProvider struct {
	*sdklog.LoggerProvider
}

// NewLogExporter returns nil when log export is disabled.
func NewLogExporter(ctx context.Context, config Config, logger *zap.Logger) (sdklog.Exporter, error) {
	otlpCfg := config.OTLPForLogs()
	logExporterConfig(logger, "logs", config.LogsEnabled(), otlpCfg)
	if !config.LogsEnabled() {
		return nil, nil
	}
	tlsCfg, err := otlpCfg.TLS.Load()
	if err != nil {
		return nil, err
	}

	if otlpCfg.IsHTTP() {
		endpoint, path := otlpCfg.EndpointForHTTP()
		options := []otlploghttp.Option{
			otlploghttp.WithEndpoint(endpoint),
			otlploghttp.WithTimeout(otlpCfg.Timeout()),
		}
		if isGzip(otlpCfg.Compression) {
			options = append(options, otlploghttp.WithCompression(otlploghttp.GzipCompression))
		}
		if path != "" {
			options = append(options, otlploghttp.WithURLPath(path))
		}
		if len(otlpCfg.Headers) > 0 {
			options = append(options, otlploghttp.WithHeaders(otlpCfg.Headers))
		}
		if otlpCfg.Insecure {
			options = append(options, otlploghttp.WithInsecure())
		} else if tlsCfg != nil {
			options = append(options, otlploghttp.WithTLSClientConfig(tlsCfg))
		}
		return otlploghttp.New(ctx, options...)
	}

	options := []otlploggrpc.Option{
		otlploggrpc.WithEndpoint(otlpCfg.EndpointForGRPC()),
		otlploggrpc.WithTimeout(otlpCfg.Timeout()),
	}
	if isGzip(otlpCfg.Compression) {
		options = append(options, otlploggrpc.WithCompressor("gzip"))
	}
	if len(otlpCfg.Headers) > 0 {
		options = append(options, otlploggrpc.WithHeaders(otlpCfg.Headers))
	}
	if otlpCfg.Insecure {
		options = append(options, otlploggrpc.WithInsecure())
	} else if tlsCfg != nil {
		options = append(options, otlploggrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	}
	return otlploggrpc.New(ctx, options...)
}

// NewLoggerProvider batches records to exporter. Without an exporter the
// provider has no processor and drops everything.
func NewLoggerProvider(res *resource.Resource, exporter sdklog.Exporter) *LoggerProvider {
	options := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	if exporter != nil {
		options = append(options, sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)))
	}
	return &LoggerProvider{sdklog.NewLoggerProvider(options...)}
}

// BridgeLogger tees logger into lp when log export is enabled, so entries
// written through an Observer reach the backend next to their spans.
// Otherwise logger is returned as is.
func BridgeLogger(logger *zap.Logger, config Config, lp *LoggerProvider) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.LogsEnabled() || lp == nil {
		return logger
	}

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Error("otel error", zap.Error(err))
	}))

	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, otelzap.NewCore(ScopeName, otelzap.WithLoggerProvider(lp.LoggerProvider)))
	}))
}
