package web

import (
	"net/http"
	"time"

	"github.com/bronystylecrazy/layertrace/layer"
	"github.com/bronystylecrazy/layertrace/otel"
	fiberzap "github.com/gofiber/contrib/v3/zap"
	"github.com/gofiber/fiber/v3"
	gotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handle installs the request span and the access log on r. It must run
// before any traced layer is registered.
func (i *Instrumentation) Handle(r fiber.Router) {
	r.Use(i.Middleware())
	r.Use(fiberzap.New(fiberzap.Config{
		Logger: i.obs.Logger,
		FieldsFunc: func(c fiber.Ctx) []zap.Field {
			return otel.ZapFields(c.Context())
		},
	}))
}

// Middleware opens the server span of a request and starts an empty
// layer path. Once the handler chain returns the span is renamed after the
// route the traced layers assembled.
func (i *Instrumentation) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		startedAt := time.Now()
		method := c.Method()

		ctx := gotel.GetTextMapPropagator().Extract(c.Context(), propagation.HeaderCarrier(http.Header(c.GetReqHeaders())))
		ctx = layer.StoreLayerPath(ctx)
		ctx, span := i.obs.Start(ctx, method+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(method),
				semconv.URLPath(c.Path()),
			),
		)
		defer span.End()

		c.SetContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if status <= 0 {
			if err != nil {
				status = fiber.StatusInternalServerError
			} else {
				status = fiber.StatusOK
			}
		}

		route := requestRoute(c, layer.PathFromContext(ctx))
		span.SetName(method + " " + route)

		attrs := []attribute.KeyValue{
			semconv.HTTPRequestMethodKey.String(method),
			semconv.HTTPRoute(route),
			semconv.HTTPResponseStatusCode(status),
		}
		span.SetAttributes(attrs...)
		if err != nil {
			span.RecordError(err)
		} else if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		span.AddCounter(ctx, "requests.total", 1, attrs...)
		span.RecordHistogram(ctx, "request.duration", float64(time.Since(startedAt))/float64(time.Millisecond), attrs...)

		return err
	}
}

// requestRoute prefers the path assembled by traced layers and falls back
// to fiber's matched route.
func requestRoute(c fiber.Ctx, path *layer.Path) string {
	if path.Len() > 0 {
		return path.Route()
	}
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Path()
}
