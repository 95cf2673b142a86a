package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestObserver(t *testing.T) (*Observer, *tracetest.SpanRecorder, *sdkmetric.ManualReader, *observer.ObservedLogs) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	obs := NewDefaultObserver(zap.New(core), &TracerProvider{tp}, &MeterProvider{mp})
	return obs, recorder, reader, logs
}

func TestObserverStartEnrichesLoggerAndContext(t *testing.T) {
	obs, recorder, _, logs := newTestObserver(t)

	ctx, span := obs.Start(context.Background(), "layer")
	span.Info("inside")
	span.SetAttributes(attribute.String("fiber.name", "cors"))
	span.RecordError(errors.New("boom"))
	span.End()

	require.Same(t, span.Observer, From(ctx))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace.id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span.id"])

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "layer", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
}

func TestFromWithoutObserverIsNop(t *testing.T) {
	ctx, span := Start(context.Background(), "noop")
	defer span.End()

	assert.False(t, span.IsRecording())
	assert.NotNil(t, From(ctx))
}

func TestObserverMetrics(t *testing.T) {
	obs, _, reader, _ := newTestObserver(t)
	ctx := context.Background()

	obs.AddCounter(ctx, "layers.ignored", 1, attribute.String("fiber.type", "middleware"))
	obs.AddCounter(ctx, "layers.ignored", 2, attribute.String("fiber.type", "middleware"))
	obs.RecordHistogram(ctx, "layer.duration", 1.5)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, ScopeName, rm.ScopeMetrics[0].Scope.Name)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}
	sum, ok := byName["layers.ignored"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	hist, ok := byName["layer.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestNewSampler(t *testing.T) {
	tests := map[string]string{
		"always_on":                "AlwaysOnSampler",
		"always_off":               "AlwaysOffSampler",
		"traceidratio":             "TraceIDRatioBased{0.5}",
		"parentbased_always_on":    "ParentBased{root:AlwaysOnSampler",
		"parentbased_traceidratio": "ParentBased{root:TraceIDRatioBased{0.5}",
		"unknown":                  "ParentBased{root:TraceIDRatioBased{0.5}",
	}
	for name, want := range tests {
		got := NewSampler(TracesConfig{Sampler: name, SamplerArg: 0.5}).Description()
		assert.Contains(t, got, want, name)
	}
}

func TestShutdownStopsProviders(t *testing.T) {
	tp := &TracerProvider{sdktrace.NewTracerProvider()}
	mp := &MeterProvider{sdkmetric.NewMeterProvider()}
	require.NoError(t, Shutdown(context.Background(), tp, mp, nil))
	require.NoError(t, Shutdown(context.Background(), nil, nil, nil))

	_, span := tp.Tracer("after").Start(context.Background(), "late")
	assert.False(t, span.IsRecording(), "expected stopped provider to hand out non-recording spans")
}
