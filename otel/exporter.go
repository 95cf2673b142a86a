package otel

import (
	"context"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
)

func isGzip(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "gzip")
}

func logExporterConfig(logger *zap.Logger, signal string, enabled bool, cfg OTLPConfig) {
	if logger == nil {
		return
	}
	logger.Debug("otel exporter",
		zap.String("signal", signal),
		zap.Bool("enabled", enabled),
		zap.String("protocol", cfg.Protocol),
		zap.String("endpoint", cfg.Endpoint),
		zap.Int("timeout_ms", cfg.TimeoutMS),
		zap.String("compression", cfg.Compression),
		zap.Bool("insecure", cfg.Insecure),
		zap.Any("headers", maskHeaders(cfg.Headers)),
	)
}

// NewTraceExporter returns nil when trace export is disabled.
func NewTraceExporter(ctx context.Context, config Config, logger *zap.Logger) (sdktrace.SpanExporter, error) {
	otlpCfg := config.OTLPForTraces()
	logExporterConfig(logger, "traces", config.TracesEnabled(), otlpCfg)
	if !config.TracesEnabled() {
		return nil, nil
	}
	tlsCfg, err := otlpCfg.TLS.Load()
	if err != nil {
		return nil, err
	}

	if otlpCfg.IsHTTP() {
		endpoint, path := otlpCfg.EndpointForHTTP()
		options := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithTimeout(otlpCfg.Timeout()),
		}
		if isGzip(otlpCfg.Compression) {
			options = append(options, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
		}
		if path != "" {
			options = append(options, otlptracehttp.WithURLPath(path))
		}
		if len(otlpCfg.Headers) > 0 {
			options = append(options, otlptracehttp.WithHeaders(otlpCfg.Headers))
		}
		if otlpCfg.Insecure {
			options = append(options, otlptracehttp.WithInsecure())
		} else if tlsCfg != nil {
			options = append(options, otlptracehttp.WithTLSClientConfig(tlsCfg))
		}
		return otlptracehttp.New(ctx, options...)
	}

	options := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(otlpCfg.EndpointForGRPC()),
		otlptracegrpc.WithTimeout(otlpCfg.Timeout()),
	}
	if isGzip(otlpCfg.Compression) {
		options = append(options, otlptracegrpc.WithCompressor("gzip"))
	}
	if len(otlpCfg.Headers) > 0 {
		options = append(options, otlptracegrpc.WithHeaders(otlpCfg.Headers))
	}
	if otlpCfg.Insecure {
		options = append(options, otlptracegrpc.WithInsecure())
	} else if tlsCfg != nil {
		options = append(options, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	}
	return otlptracegrpc.New(ctx, options...)
}

// NewMetricExporter returns an exporter that drops everything when metric
// export is disabled, so the meter provider keeps working in process.
func NewMetricExporter(ctx context.Context, config Config, logger *zap.Logger) (sdkmetric.Exporter, error) {
	otlpCfg := config.OTLPForMetrics()
	logExporterConfig(logger, "metrics", config.MetricsEnabled(), otlpCfg)
	if !config.MetricsEnabled() {
		return &noopMetricExporter{}, nil
	}
	tlsCfg, err := otlpCfg.TLS.Load()
	if err != nil {
		return nil, err
	}

	if otlpCfg.IsHTTP() {
		endpoint, path := otlpCfg.EndpointForHTTP()
		options := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithTimeout(otlpCfg.Timeout()),
		}
		if isGzip(otlpCfg.Compression) {
			options = append(options, otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression))
		}
		if path != "" {
			options = append(options, otlpmetrichttp.WithURLPath(path))
		}
		if len(otlpCfg.Headers) > 0 {
			options = append(options, otlpmetrichttp.WithHeaders(otlpCfg.Headers))
		}
		if otlpCfg.Insecure {
			options = append(options, otlpmetrichttp.WithInsecure())
		} else if tlsCfg != nil {
			options = append(options, otlpmetrichttp.WithTLSClientConfig(tlsCfg))
		}
		return otlpmetrichttp.New(ctx, options...)
	}

	options := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(otlpCfg.EndpointForGRPC()),
		otlpmetricgrpc.WithTimeout(otlpCfg.Timeout()),
	}
	if isGzip(otlpCfg.Compression) {
		options = append(options, otlpmetricgrpc.WithCompressor("gzip"))
	}
	if len(otlpCfg.Headers) > 0 {
		options = append(options, otlpmetricgrpc.WithHeaders(otlpCfg.Headers))
	}
	if otlpCfg.Insecure {
		options = append(options, otlpmetricgrpc.WithInsecure())
	} else if tlsCfg != nil {
		options = append(options, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	}
	return otlpmetricgrpc.New(ctx, options...)
}

type noopMetricExporter struct {
	shutdown atomic.Bool
}

func (n *noopMetricExporter) Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.CumulativeTemporalitySelector(kind)
}

func (n *noopMetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (n *noopMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error {
	if n.shutdown.Load() {
		return sdkmetric.ErrExporterShutdown
	}
	return nil
}

func (n *noopMetricExporter) ForceFlush(context.Context) error {
	return nil
}

func (n *noopMetricExporter) Shutdown(context.Context) error {
	n.shutdown.Store(true)
	return nil
}

func maskHeaders(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "token") || strings.Contains(lk, "secret") || strings.Contains(lk, "key") {
			out[k] = maskValue(v)
			continue
		}
		out[k] = v
	}
	return out
}

func maskValue(v string) string {
	r := []rune(strings.TrimSpace(v))
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:2]) + "****" + string(r[len(r)-2:])
}
