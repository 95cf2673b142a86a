package otel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEndpointForGRPC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "otel-collector:4317", want: "otel-collector:4317"},
		{in: "http://otel-collector:4317", want: "otel-collector:4317"},
		{in: " https://collector.example.com ", want: "collector.example.com"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		got := OTLPConfig{Endpoint: tc.in}.EndpointForGRPC()
		if got != tc.want {
			t.Fatalf("EndpointForGRPC(%q): got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestEndpointForHTTP(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPath string
	}{
		{in: "collector:4318", wantHost: "collector:4318"},
		{in: "collector:4318/v1/traces", wantHost: "collector:4318", wantPath: "/v1/traces"},
		{in: "https://collector:4318/custom", wantHost: "collector:4318", wantPath: "/custom"},
		{in: "", wantHost: ""},
	}
	for _, tc := range tests {
		host, path := OTLPConfig{Endpoint: tc.in}.EndpointForHTTP()
		if host != tc.wantHost || path != tc.wantPath {
			t.Fatalf("EndpointForHTTP(%q): got=(%q,%q) want=(%q,%q)", tc.in, host, path, tc.wantHost, tc.wantPath)
		}
	}
}

func TestSignalOTLPOverridesShared(t *testing.T) {
	config := Config{
		OTLP: OTLPConfig{
			Endpoint:    "shared:4317",
			Protocol:    "grpc",
			TimeoutMS:   1000,
			Compression: "gzip",
			TLS:         TLSConfig{CAFile: "/ca.pem"},
		},
		Traces: TracesConfig{OTLP: OTLPConfig{
			Endpoint: "traces:4318",
			Protocol: "http/protobuf",
			Insecure: true,
			TLS:      TLSConfig{ServerName: "traces.local"},
		}},
	}

	traces := config.OTLPForTraces()
	assert.Equal(t, "traces:4318", traces.Endpoint)
	assert.True(t, traces.IsHTTP())
	assert.True(t, traces.Insecure)
	assert.Equal(t, "gzip", traces.Compression)
	assert.Equal(t, time.Second, traces.Timeout())
	assert.Equal(t, TLSConfig{CAFile: "/ca.pem", ServerName: "traces.local"}, traces.TLS)

	metrics := config.OTLPForMetrics()
	assert.Equal(t, config.OTLP, metrics)
	assert.False(t, metrics.IsHTTP())
}

func TestSignalEnabled(t *testing.T) {
	config := Config{Traces: TracesConfig{Exporter: "otlp"}, Metrics: MetricsConfig{Exporter: "none"}}
	assert.False(t, config.TracesEnabled(), "disabled globally")

	config.Enabled = true
	assert.True(t, config.TracesEnabled())
	assert.False(t, config.MetricsEnabled())
}

func TestExportInterval(t *testing.T) {
	assert.Equal(t, 10*time.Second, Config{}.ExportInterval())
	assert.Equal(t, 500*time.Millisecond, Config{Metrics: MetricsConfig{ExportIntervalMS: 500}}.ExportInterval())
}

func TestTLSConfigLoad(t *testing.T) {
	tlsCfg, err := TLSConfig{}.Load()
	assert.NoError(t, err)
	assert.Nil(t, tlsCfg)

	_, err = TLSConfig{CertFile: "/cert.pem"}.Load()
	assert.ErrorIs(t, err, errCertPair)

	tlsCfg, err = TLSConfig{ServerName: "collector", MinVersion: "1.3"}.Load()
	assert.NoError(t, err)
	assert.Equal(t, "collector", tlsCfg.ServerName)
	assert.Equal(t, uint16(0x0304), tlsCfg.MinVersion)
}
