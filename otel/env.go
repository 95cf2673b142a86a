package otel

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type envKind uint8

const (
	envString envKind = iota
	envBool
	envFloat
	envTimeout
	envHeaders
)

type envBinding struct {
	key  string
	env  string
	kind envKind
}

// otlpBindings maps one OTLP block onto its OTEL_EXPORTER_OTLP[_SIGNAL]_*
// variables.
func otlpBindings(key, prefix string) []envBinding {
	return []envBinding{
		{key + ".endpoint", prefix + "_ENDPOINT", envString},
		{key + ".protocol", prefix + "_PROTOCOL", envString},
		{key + ".compression", prefix + "_COMPRESSION", envString},
		{key + ".timeout_ms", prefix + "_TIMEOUT", envTimeout},
		{key + ".headers", prefix + "_HEADERS", envHeaders},
		{key + ".insecure", prefix + "_INSECURE", envBool},
		{key + ".tls.ca_file", prefix + "_CERTIFICATE", envString},
		{key + ".tls.cert_file", prefix + "_CLIENT_CERTIFICATE", envString},
		{key + ".tls.key_file", prefix + "_CLIENT_KEY", envString},
	}
}

func envBindings() []envBinding {
	out := []envBinding{
		{"otel.service_name", "OTEL_SERVICE_NAME", envString},
		{"otel.enabled", "OTEL_ENABLED", envBool},
		{"otel.traces.exporter", "OTEL_TRACES_EXPORTER", envString},
		{"otel.traces.sampler", "OTEL_TRACES_SAMPLER", envString},
		{"otel.traces.sampler_arg", "OTEL_TRACES_SAMPLER_ARG", envFloat},
		{"otel.metrics.exporter", "OTEL_METRICS_EXPORTER", envString},
		{"otel.metrics.export_interval_ms", "OTEL_METRIC_EXPORT_INTERVAL", envTimeout},
		{"otel.logs.exporter", "OTEL_LOGS_EXPORTER", envString},
	}
	out = append(out, otlpBindings("otel.otlp", "OTEL_EXPORTER_OTLP")...)
	out = append(out, otlpBindings("otel.traces.otlp", "OTEL_EXPORTER_OTLP_TRACES")...)
	out = append(out, otlpBindings("otel.metrics.otlp", "OTEL_EXPORTER_OTLP_METRICS")...)
	out = append(out, otlpBindings("otel.logs.otlp", "OTEL_EXPORTER_OTLP_LOGS")...)
	return out
}

// ApplyEnv copies the standard OTEL_* variables onto v. Malformed values
// are ignored.
func ApplyEnv(v *viper.Viper) error {
	if v == nil {
		return nil
	}
	for _, b := range envBindings() {
		val, ok := os.LookupEnv(b.env)
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch b.kind {
		case envString:
			v.Set(b.key, val)
		case envBool:
			if parsed, err := strconv.ParseBool(val); err == nil {
				v.Set(b.key, parsed)
			}
		case envFloat:
			if parsed, err := strconv.ParseFloat(val, 64); err == nil {
				v.Set(b.key, parsed)
			}
		case envTimeout:
			if ms, ok := ParseTimeoutMS(val); ok {
				v.Set(b.key, ms)
			}
		case envHeaders:
			if headers := ParseHeaders(val); len(headers) > 0 {
				v.Set(b.key, headers)
			}
		}
	}
	applyResourceAttrsEnv(v)
	return nil
}

func applyResourceAttrsEnv(v *viper.Viper) {
	const key = "otel.resource_attributes"
	attrs := ParseHeaders(os.Getenv("OTEL_RESOURCE_ATTRIBUTES"))
	if len(attrs) == 0 {
		return
	}
	merged := v.GetStringMapString(key)
	if merged == nil {
		merged = map[string]string{}
	}
	for k, val := range attrs {
		merged[k] = val
	}
	v.Set(key, merged)
}

// ParseTimeoutMS accepts plain milliseconds or a Go duration.
func ParseTimeoutMS(value string) (int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n, true
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, false
	}
	return int(d / time.Millisecond), true
}

// ParseHeaders parses "k1=v1,k2=v2". Entries without a key or value are
// skipped.
func ParseHeaders(value string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
