package otel

import (
	"net/url"
	"strings"
	"time"
)

const (
	ExporterNone = "none"
	ExporterOTLP = "otlp"
)

type Config struct {
	ServiceName   string            `mapstructure:"service_name"`
	Namespace     string            `mapstructure:"namespace"`
	Enabled       bool              `mapstructure:"enabled"`
	ResourceAttrs map[string]string `mapstructure:"resource_attributes"`
	OTLP          OTLPConfig        `mapstructure:"otlp"`
	Traces        TracesConfig      `mapstructure:"traces"`
	Metrics       MetricsConfig     `mapstructure:"metrics"`
	Logs          LogsConfig        `mapstructure:"logs"`
}

type OTLPConfig struct {
	Endpoint    string            `mapstructure:"endpoint"`
	Protocol    string            `mapstructure:"protocol" validate:"omitempty,oneof=grpc http http/protobuf"`
	Headers     map[string]string `mapstructure:"headers"`
	TimeoutMS   int               `mapstructure:"timeout_ms" validate:"gte=0"`
	Compression string            `mapstructure:"compression" validate:"omitempty,oneof=gzip none"`
	Insecure    bool              `mapstructure:"insecure"`
	TLS         TLSConfig         `mapstructure:"tls"`
}

type TracesConfig struct {
	Exporter   string     `mapstructure:"exporter" validate:"omitempty,oneof=none otlp"`
	Sampler    string     `mapstructure:"sampler"`
	SamplerArg float64    `mapstructure:"sampler_arg" validate:"gte=0,lte=1"`
	OTLP       OTLPConfig `mapstructure:"otlp"`
}

// LogsConfig controls the zap to OTLP log bridge.
type LogsConfig struct {
	Exporter string     `mapstructure:"exporter" validate:"omitempty,oneof=none otlp"`
	OTLP     OTLPConfig `mapstructure:"otlp"`
}

type MetricsConfig struct {
	Exporter         string     `mapstructure:"exporter" validate:"omitempty,oneof=none otlp"`
	ExportIntervalMS int        `mapstructure:"export_interval_ms" validate:"gte=0"`
	OTLP             OTLPConfig `mapstructure:"otlp"`
}

// Defaults mirror the OTLP exporter defaults; they are applied as viper
// defaults so env and file values win.
var Defaults = map[string]any{
	"otel.service_name":               "layertrace",
	"otel.enabled":                    false,
	"otel.otlp.endpoint":              "http://otel-collector:4317",
	"otel.otlp.protocol":              "grpc",
	"otel.otlp.timeout_ms":            10000,
	"otel.otlp.compression":           "gzip",
	"otel.traces.exporter":            ExporterNone,
	"otel.traces.sampler":             "parentbased_traceidratio",
	"otel.traces.sampler_arg":         1.0,
	"otel.metrics.exporter":           ExporterNone,
	"otel.metrics.export_interval_ms": 10000,
	"otel.logs.exporter":              ExporterNone,
}

func (c OTLPConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c OTLPConfig) IsHTTP() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Protocol)), "http")
}

// EndpointForGRPC strips any scheme, the gRPC exporter wants host:port.
func (c OTLPConfig) EndpointForGRPC() string {
	endpoint := strings.TrimSpace(c.Endpoint)
	if !strings.Contains(endpoint, "://") {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

// EndpointForHTTP splits the endpoint into host and URL path.
func (c OTLPConfig) EndpointForHTTP() (string, string) {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		return "", ""
	}
	raw := endpoint
	if !strings.Contains(endpoint, "://") {
		if !strings.Contains(endpoint, "/") {
			return endpoint, ""
		}
		raw = "http://" + endpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return endpoint, ""
	}
	return u.Host, strings.TrimSpace(u.Path)
}

func mergeOTLP(base, override OTLPConfig) OTLPConfig {
	out := base
	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
	}
	if override.Protocol != "" {
		out.Protocol = override.Protocol
	}
	if len(override.Headers) > 0 {
		out.Headers = override.Headers
	}
	if override.TimeoutMS > 0 {
		out.TimeoutMS = override.TimeoutMS
	}
	if override.Compression != "" {
		out.Compression = override.Compression
	}
	if override.Insecure {
		out.Insecure = true
	}
	out.TLS = mergeTLS(base.TLS, override.TLS)
	return out
}

// TracesEnabled reports whether spans leave the process.
func (c Config) TracesEnabled() bool {
	return c.Enabled && strings.EqualFold(strings.TrimSpace(c.Traces.Exporter), ExporterOTLP)
}

// MetricsEnabled reports whether metrics leave the process.
func (c Config) MetricsEnabled() bool {
	return c.Enabled && strings.EqualFold(strings.TrimSpace(c.Metrics.Exporter), ExporterOTLP)
}

// LogsEnabled reports whether zap entries are bridged to OTLP.
func (c Config) LogsEnabled() bool {
	return c.Enabled && strings.EqualFold(strings.TrimSpace(c.Logs.Exporter), ExporterOTLP)
}

// OTLPForTraces returns the shared OTLP block with trace overrides applied.
func (c Config) OTLPForTraces() OTLPConfig {
	return mergeOTLP(c.OTLP, c.Traces.OTLP)
}

// OTLPForMetrics returns the shared OTLP block with metric overrides applied.
func (c Config) OTLPForMetrics() OTLPConfig {
	return mergeOTLP(c.OTLP, c.Metrics.OTLP)
}

// OTLPForLogs returns the shared OTLP block with log overrides applied.
func (c Config) OTLPForLogs() OTLPConfig {
	return mergeOTLP(c.OTLP, c.Logs.OTLP)
}

func (c Config) ExportInterval() time.Duration {
	if c.Metrics.ExportIntervalMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Metrics.ExportIntervalMS) * time.Millisecond
}
