package web

import (
	"context"
	"time"

	"github.com/bronystylecrazy/layertrace/layer"
	"github.com/bronystylecrazy/layertrace/otel"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// layerDef is the static description of one registered handler.
type layerDef struct {
	desc layer.Layer
	// depth is the number of routers enclosing the handler.
	depth int
	// fragment is stored on the path before the handler runs.
	fragment    string
	mountedPath string
}

// wrap returns h traced as the layer described by def.
func (i *Instrumentation) wrap(def layerDef, h fiber.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		parent := c.Context()
		ctx := layer.StoreLayerPath(parent)
		if ctx != parent {
			c.SetContext(ctx)
		}
		path := layer.PathFromContext(ctx)
		path.Rewind(def.depth)
		if def.fragment != "" {
			path.Store(def.fragment)
		}

		meta := layer.GetLayerMetadata(def.desc, def.mountedPath)
		if layer.IsLayerIgnored(meta.Name, meta.Type, i.Filter()) {
			i.obs.AddCounter(ctx, "layers.ignored", 1, layer.AttrType.String(string(meta.Type)))
			return h(c)
		}

		info := LayerInfo{
			Layer:    def.desc,
			Metadata: meta,
			Route:    path.Route(),
			Ctx:      c,
		}
		attrs := meta.Attributes()
		if path.Len() > 0 {
			attrs = append(attrs, semconv.HTTPRoute(info.Route))
		}
		spanCtx, span := i.obs.Start(ctx, i.spanName(info, meta.Name),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		i.runRequestHook(span, info)

		c.SetContext(spanCtx)
		defer c.SetContext(ctx)
		return i.run(spanCtx, c, span, meta, h)
	}
}

// run calls h inside span. A panic is recorded on the span and then
// propagated unchanged.
func (i *Instrumentation) run(ctx context.Context, c fiber.Ctx, span *otel.Span, meta layer.Metadata, h fiber.Handler) (err error) {
	startedAt := time.Now()
	defer func() {
		if r := recover(); r != nil {
			recordPanic(span, r)
			i.finish(ctx, span, meta, startedAt)
			panic(r)
		}
	}()

	err = h(c)
	if err != nil {
		span.RecordError(err)
	}
	i.finish(ctx, span, meta, startedAt)
	return err
}

func (i *Instrumentation) finish(ctx context.Context, span *otel.Span, meta layer.Metadata, startedAt time.Time) {
	span.End()
	elapsed := float64(time.Since(startedAt)) / float64(time.Millisecond)
	i.obs.RecordHistogram(ctx, "layer.duration", elapsed, meta.Attributes()...)
}

func recordPanic(span *otel.Span, r any) {
	value, message := layer.AsErrorAndMessage(r)
	if err, ok := value.(error); ok {
		span.RecordError(err, attribute.Bool("exception.panic", true))
	} else {
		span.AddEvent("exception",
			semconv.ExceptionType("panic"),
			semconv.ExceptionMessage(message),
		)
		span.SetStatus(codes.Error, message)
	}
	span.Error("handler panicked", zap.String("panic", message))
}
