package web

import (
	"net/http"

	"github.com/bronystylecrazy/layertrace/layer"
	"github.com/gofiber/fiber/v3"
)

// Router registers routes on a fiber.Router and traces every handler as a
// layer.
type Router interface {
	Get(path string, handlers ...fiber.Handler) Router
	Post(path string, handlers ...fiber.Handler) Router
	Put(path string, handlers ...fiber.Handler) Router
	Delete(path string, handlers ...fiber.Handler) Router
	Patch(path string, handlers ...fiber.Handler) Router
	Head(path string, handlers ...fiber.Handler) Router
	Options(path string, handlers ...fiber.Handler) Router
	All(path string, handlers ...fiber.Handler) Router

	// Group creates a sub-router with a prefix, traced as a router layer.
	Group(prefix string, handlers ...fiber.Handler) Router

	// Use adds middleware. A leading string argument mounts it under that
	// prefix; NamedHandler values set the reported name. Arguments that are
	// not handlers are passed to fiber untraced.
	Use(args ...any) Router

	// Fiber returns the underlying router.
	Fiber() fiber.Router
}

// routerWrapper wraps a fiber.Router and knows its nesting depth
type routerWrapper struct {
	fiberRouter fiber.Router
	inst        *Instrumentation
	depth       int
}

// NewRouter creates a new Router wrapper. A nil Instrumentation traces
// through a no-op observer.
func NewRouter(fiberRouter fiber.Router, inst *Instrumentation) Router {
	if inst == nil {
		inst = NewInstrumentation(nil)
	}
	return &routerWrapper{
		fiberRouter: fiberRouter,
		inst:        inst,
	}
}

func (r *routerWrapper) Fiber() fiber.Router {
	return r.fiberRouter
}

// Get registers a GET route
func (r *routerWrapper) Get(path string, handlers ...fiber.Handler) Router {
	return r.add(http.MethodGet, path, handlers)
}

// Post registers a POST route
func (r *routerWrapper) Post(path string, handlers ...fiber.Handler) Router {
	return r.add(http.MethodPost, path, handlers)
}

// Put registers a PUT route
func (r *routerWrapper) Put(path string, handlers ...fiber.Handler) Router {
	return r.add(http.MethodPut, path, handlers)
}

// Delete registers a DELETE route
func (r *routerWrapper) Delete(path string, handlers ...fiber.Handler) Router {
	return r.add(http.MethodDelete, path, handlers)
}

// Patch registers a PATCH route
func (r *routerWrapper) Patch(path string, handlers ...fiber.Handler) Router {
	return r.add(http.MethodPatch, path, handlers)
}

// Head registers a HEAD route
func (r *routerWrapper) Head(path string, handlers ...fiber.Handler) Router {
	return r.add(http.MethodHead, path, handlers)
}

// Options registers an OPTIONS route
func (r *routerWrapper) Options(path string, handlers ...fiber.Handler) Router {
	return r.add(http.MethodOptions, path, handlers)
}

// All registers a route for every method
func (r *routerWrapper) All(path string, handlers ...fiber.Handler) Router {
	if len(handlers) == 0 {
		return r
	}
	wrapped := r.routeHandlers(path, handlers)
	r.fiberRouter.All(path, wrapped[0], wrapped[1:]...)
	return r
}

func (r *routerWrapper) add(method, path string, handlers []fiber.Handler) Router {
	if len(handlers) == 0 {
		return r
	}
	wrapped := r.routeHandlers(path, handlers)
	r.fiberRouter.Add([]string{method}, path, wrapped[0], wrapped[1:]...)
	return r
}

// routeHandlers traces the last handler as the request handler and the
// ones before it as route middleware.
func (r *routerWrapper) routeHandlers(path string, handlers []fiber.Handler) []any {
	out := make([]any, len(handlers))
	last := len(handlers) - 1
	for idx, h := range handlers {
		desc := layer.Layer{Kind: HandlerName(h), MountPath: path}
		if idx == last {
			desc = layer.Layer{Kind: layer.KindRequestHandler, MountPath: path, Path: path}
		}
		out[idx] = r.inst.wrap(layerDef{
			desc:        desc,
			depth:       r.depth,
			fragment:    path,
			mountedPath: path,
		}, h)
	}
	return out
}

// Group creates a sub-router with a prefix
func (r *routerWrapper) Group(prefix string, handlers ...fiber.Handler) Router {
	group := r.fiberRouter.Group(prefix)
	group.Use(r.inst.wrap(layerDef{
		desc:        layer.Layer{Kind: layer.KindRouter, MountPath: prefix},
		depth:       r.depth,
		fragment:    prefix,
		mountedPath: prefix,
	}, passThrough))

	child := &routerWrapper{
		fiberRouter: group,
		inst:        r.inst,
		depth:       r.depth + 1,
	}
	for _, h := range handlers {
		child.Use(h)
	}
	return child
}

// Use adds middleware
func (r *routerWrapper) Use(args ...any) Router {
	var prefix string
	for _, arg := range args {
		if s, ok := arg.(string); ok {
			prefix = s
			continue
		}
		named, ok := asNamedHandler(arg)
		if !ok {
			if prefix != "" {
				r.fiberRouter.Use(prefix, arg)
			} else {
				r.fiberRouter.Use(arg)
			}
			continue
		}
		wrapped := r.inst.wrap(layerDef{
			desc:        layer.Layer{Kind: named.Name, MountPath: prefix},
			depth:       r.depth,
			fragment:    prefix,
			mountedPath: prefix,
		}, named.Handler)
		if prefix != "" {
			r.fiberRouter.Use(prefix, wrapped)
		} else {
			r.fiberRouter.Use(wrapped)
		}
	}
	return r
}

func asNamedHandler(arg any) (NamedHandler, bool) {
	switch v := arg.(type) {
	case NamedHandler:
		if v.Handler == nil {
			return NamedHandler{}, false
		}
		if v.Name == "" {
			v.Name = HandlerName(v.Handler)
		}
		return v, true
	case *NamedHandler:
		if v == nil {
			return NamedHandler{}, false
		}
		return asNamedHandler(*v)
	}
	if h, ok := arg.(fiber.Handler); ok && h != nil {
		return NamedHandler{Name: HandlerName(h), Handler: h}, true
	}
	if h, ok := arg.(func(fiber.Ctx) error); ok && h != nil {
		return NamedHandler{Name: HandlerName(h), Handler: h}, true
	}
	return NamedHandler{}, false
}

func passThrough(c fiber.Ctx) error {
	return c.Next()
}
