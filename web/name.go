package web

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/gofiber/fiber/v3"
)

const anonymousHandler = "anonymous"

var closureSuffix = regexp.MustCompile(`(\.func\d+)+$`)

// NamedHandler carries the name a middleware layer is reported under.
type NamedHandler struct {
	Name    string
	Handler fiber.Handler
}

// Named attaches name to h for Router.Use.
func Named(name string, h fiber.Handler) NamedHandler {
	return NamedHandler{Name: name, Handler: h}
}

// HandlerName derives a short name from the function behind h, dropping the
// package path, closure suffixes and method value markers.
func HandlerName(h fiber.Handler) string {
	if h == nil {
		return anonymousHandler
	}
	fn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
	if fn == nil {
		return anonymousHandler
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	name = closureSuffix.ReplaceAllString(name, "")
	name = strings.NewReplacer("(*", "", "(", "", ")", "").Replace(name)
	if name == "" || strings.HasPrefix(name, "func") {
		return anonymousHandler
	}
	return name
}
