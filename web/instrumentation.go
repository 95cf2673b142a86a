package web

import (
	"sync/atomic"

	"github.com/bronystylecrazy/layertrace/layer"
	"github.com/bronystylecrazy/layertrace/otel"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// LayerInfo describes the layer a span is about to be opened for.
type LayerInfo struct {
	Layer    layer.Layer
	Metadata layer.Metadata
	// Route is the route accumulated so far, this layer included.
	Route string
	Ctx   fiber.Ctx
}

// Instrumentation traces the layers registered through its Router.
type Instrumentation struct {
	obs          *otel.Observer
	filter       atomic.Pointer[layer.Filter]
	spanNameHook func(LayerInfo, string) string
	requestHook  func(*otel.Span, LayerInfo)
}

type Option func(*Instrumentation)

func WithFilter(f *layer.Filter) Option {
	return func(i *Instrumentation) {
		i.filter.Store(f)
	}
}

func WithIgnoreLayersType(types ...layer.Type) Option {
	return func(i *Instrumentation) {
		f := i.cloneFilter()
		f.IgnoreLayersType = append(f.IgnoreLayersType, types...)
		i.filter.Store(f)
	}
}

func WithIgnoreLayers(matchers ...layer.Matcher) Option {
	return func(i *Instrumentation) {
		f := i.cloneFilter()
		f.IgnoreLayers = append(f.IgnoreLayers, matchers...)
		i.filter.Store(f)
	}
}

// WithSpanNameHook lets fn replace the default span name of every traced
// layer.
func WithSpanNameHook(fn func(info LayerInfo, defaultName string) string) Option {
	return func(i *Instrumentation) {
		i.spanNameHook = fn
	}
}

// WithRequestHook runs fn right after a layer span starts.
func WithRequestHook(fn func(span *otel.Span, info LayerInfo)) Option {
	return func(i *Instrumentation) {
		i.requestHook = fn
	}
}

func NewInstrumentation(obs *otel.Observer, opts ...Option) *Instrumentation {
	if obs == nil {
		obs = otel.NewNopObserver()
	}
	i := &Instrumentation{obs: obs}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

func NewInstrumentationFromConfig(config TraceConfig, obs *otel.Observer) (*Instrumentation, error) {
	f, err := config.Filter()
	if err != nil {
		return nil, err
	}
	return NewInstrumentation(obs, WithFilter(f)), nil
}

func (i *Instrumentation) Filter() *layer.Filter {
	return i.filter.Load()
}

// SetFilter replaces the filter for requests that start afterwards.
func (i *Instrumentation) SetFilter(f *layer.Filter) {
	i.filter.Store(f)
}

func (i *Instrumentation) cloneFilter() *layer.Filter {
	f := &layer.Filter{}
	if current := i.filter.Load(); current != nil {
		f.IgnoreLayersType = append(f.IgnoreLayersType, current.IgnoreLayersType...)
		f.IgnoreLayers = append(f.IgnoreLayers, current.IgnoreLayers...)
	}
	return f
}

func (i *Instrumentation) spanName(info LayerInfo, defaultName string) (name string) {
	if i.spanNameHook == nil {
		return defaultName
	}
	name = defaultName
	defer func() {
		if r := recover(); r != nil {
			_, msg := layer.AsErrorAndMessage(r)
			i.obs.Warn("span name hook panicked", zap.String("layer", defaultName), zap.String("panic", msg))
			name = defaultName
		}
	}()
	if custom := i.spanNameHook(info, defaultName); custom != "" {
		name = custom
	}
	return name
}

func (i *Instrumentation) runRequestHook(span *otel.Span, info LayerInfo) {
	if i.requestHook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			_, msg := layer.AsErrorAndMessage(r)
			span.Warn("request hook panicked", zap.String("layer", info.Metadata.Name), zap.String("panic", msg))
		}
	}()
	i.requestHook(span, info)
}
