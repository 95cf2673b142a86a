package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingLogExporter struct {
	mu     sync.Mutex
	bodies []string
}

func (e *recordingLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.bodies = append(e.bodies, r.Body().AsString())
	}
	return nil
}

func (e *recordingLogExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingLogExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingLogExporter) Bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.bodies...)
}

func logsEnabledConfig() Config {
	return Config{Enabled: true, Logs: LogsConfig{Exporter: ExporterOTLP}}
}

func TestBridgeLoggerTeesIntoProvider(t *testing.T) {
	exporter := &recordingLogExporter{}
	lp := &LoggerProvider{sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })
	core, logs := observer.New(zapcore.DebugLevel)

	logger := BridgeLogger(zap.New(core), logsEnabledConfig(), lp)
	obs := NewObserver(logger, nil, nil)
	_, span := obs.Start(context.Background(), "layer")
	span.Error("handler panicked", zap.String("panic", "kaboom"))
	span.End()

	assert.Equal(t, 1, logs.FilterMessage("handler panicked").Len())
	assert.Equal(t, []string{"handler panicked"}, exporter.Bodies())
}

func TestBridgeLoggerDisabledKeepsLocalLogger(t *testing.T) {
	logger := zap.NewNop()
	lp := NewLoggerProvider(resource.Empty(), nil)
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	assert.Same(t, logger, BridgeLogger(logger, Config{}, lp))
	assert.Same(t, logger, BridgeLogger(logger, logsEnabledConfig(), nil))
	assert.NotNil(t, BridgeLogger(nil, Config{}, nil))
}

func TestNewLogExporter(t *testing.T) {
	exporter, err := NewLogExporter(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, exporter)

	config := logsEnabledConfig()
	config.OTLP = OTLPConfig{Endpoint: "http://collector:4318/v1/logs", Protocol: "http/protobuf", Insecure: true}
	exporter, err = NewLogExporter(context.Background(), config, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, exporter)
	require.NoError(t, exporter.Shutdown(context.Background()))

	config.OTLP = OTLPConfig{Endpoint: "collector:4317", Protocol: "grpc", Compression: "gzip", Insecure: true}
	exporter, err = NewLogExporter(context.Background(), config, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, exporter)
	require.NoError(t, exporter.Shutdown(context.Background()))
}

func TestLogsEnabledRequiresOTLPExporter(t *testing.T) {
	assert.False(t, Config{Enabled: true}.LogsEnabled())
	assert.False(t, Config{Logs: LogsConfig{Exporter: ExporterOTLP}}.LogsEnabled())
	assert.True(t, logsEnabledConfig().LogsEnabled())

	config := Config{
		OTLP: OTLPConfig{Endpoint: "shared:4317", Protocol: "grpc"},
		Logs: LogsConfig{OTLP: OTLPConfig{Endpoint: "logs:4317"}},
	}
	assert.Equal(t, "logs:4317", config.OTLPForLogs().Endpoint)
	assert.Equal(t, "grpc", config.OTLPForLogs().Protocol)
}
