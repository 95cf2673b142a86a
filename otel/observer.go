package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// ScopeName is the instrumentation scope of tracers and meters handed out by
// NewDefaultObserver.
const ScopeName = "github.com/bronystylecrazy/layertrace"

type obsKey struct{}

// Observer bundles the logger, tracer and meter used by instrumented code.
type Observer struct {
	*zap.Logger
	tracer      trace.Tracer
	meter       metric.Meter
	instruments *instruments
}

// Span is an observer scoped to one span; its logger carries the span ids.
type Span struct {
	*Observer
	span trace.Span
}

type instruments struct {
	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

func NewObserver(logger *zap.Logger, tracer trace.Tracer, meter metric.Meter) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("")
	}
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter("")
	}
	return &Observer{
		Logger: logger,
		tracer: tracer,
		meter:  meter,
		instruments: &instruments{
			counters:   map[string]metric.Int64Counter{},
			histograms: map[string]metric.Float64Histogram{},
		},
	}
}

func NewNopObserver() *Observer {
	return NewObserver(nil, nil, nil)
}

// NewDefaultObserver creates an Observer from the app logger and providers.
func NewDefaultObserver(logger *zap.Logger, tp *TracerProvider, mp *MeterProvider) *Observer {
	var tracer trace.Tracer
	if tp != nil {
		tracer = tp.Tracer(ScopeName)
	}
	var meter metric.Meter
	if mp != nil {
		meter = mp.Meter(ScopeName)
	}
	return NewObserver(logger, tracer, meter)
}

// With stores o in ctx.
func (o *Observer) With(ctx context.Context) context.Context {
	return context.WithValue(ctx, obsKey{}, o)
}

// From returns the Observer stored in ctx or a no-op one.
func From(ctx context.Context) *Observer {
	if ctx != nil {
		if o, ok := ctx.Value(obsKey{}).(*Observer); ok {
			return o
		}
	}
	return NewNopObserver()
}

// Start opens a span using the Observer from ctx.
func Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, *Span) {
	return From(ctx).Start(ctx, name, opts...)
}

// Start opens a span and returns the enriched context plus a span-scoped
// observer stored in it.
func (o *Observer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, *Span) {
	ctx, span := o.tracer.Start(ctx, name, opts...)

	logger := o.Logger
	if spanCtx := span.SpanContext(); spanCtx.IsValid() {
		logger = o.Logger.With(
			zap.String("trace.id", spanCtx.TraceID().String()),
			zap.String("span.id", spanCtx.SpanID().String()),
			zap.Bool("trace.sampled", spanCtx.IsSampled()),
		)
	}

	scoped := &Observer{
		Logger:      logger,
		tracer:      o.tracer,
		meter:       o.meter,
		instruments: o.instruments,
	}
	return scoped.With(ctx), &Span{Observer: scoped, span: span}
}

func (o *Observer) counter(name string) (metric.Int64Counter, error) {
	o.instruments.mu.Lock()
	defer o.instruments.mu.Unlock()
	if c, ok := o.instruments.counters[name]; ok {
		return c, nil
	}
	c, err := o.meter.Int64Counter(name)
	if err != nil {
		return nil, err
	}
	o.instruments.counters[name] = c
	return c, nil
}

func (o *Observer) histogram(name string) (metric.Float64Histogram, error) {
	o.instruments.mu.Lock()
	defer o.instruments.mu.Unlock()
	if h, ok := o.instruments.histograms[name]; ok {
		return h, nil
	}
	h, err := o.meter.Float64Histogram(name, metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	o.instruments.histograms[name] = h
	return h, nil
}

// AddCounter adds n to the counter called name, creating it on first use.
func (o *Observer) AddCounter(ctx context.Context, name string, n int64, attrs ...attribute.KeyValue) {
	c, err := o.counter(name)
	if err != nil {
		o.Debug("counter unavailable", zap.String("name", name), zap.Error(err))
		return
	}
	c.Add(ctx, n, metric.WithAttributes(attrs...))
}

// RecordHistogram records v in milliseconds on the histogram called name.
func (o *Observer) RecordHistogram(ctx context.Context, name string, v float64, attrs ...attribute.KeyValue) {
	h, err := o.histogram(name)
	if err != nil {
		o.Debug("histogram unavailable", zap.String("name", name), zap.Error(err))
		return
	}
	h.Record(ctx, v, metric.WithAttributes(attrs...))
}

func (s *Span) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}

func (s *Span) IsRecording() bool {
	return s.span.IsRecording()
}

func (s *Span) SetName(name string) {
	s.span.SetName(name)
}

func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records err as an exception event and marks the span failed.
func (s *Span) RecordError(err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}
	s.span.RecordError(err, trace.WithAttributes(attrs...))
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *Span) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End closes the span.
func (s *Span) End(options ...trace.SpanEndOption) {
	if s == nil || s.span == nil {
		return
	}
	s.span.End(options...)
}

// ZapFields returns the trace and span ids of the span in ctx as log fields.
func ZapFields(ctx context.Context) []zap.Field {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace.id", spanCtx.TraceID().String()),
		zap.String("span.id", spanCtx.SpanID().String()),
	}
}
