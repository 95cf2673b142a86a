package layer

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Type is the symbolic kind of a traced layer.
type Type string

const (
	TypeRouter         Type = "router"
	TypeRequestHandler Type = "request_handler"
	TypeMiddleware     Type = "middleware"
)

// Layer kinds with dedicated classification. Any other kind names a
// middleware function.
const (
	KindRouter         = "router"
	KindRequestHandler = "bound dispatch"
)

const requestHandlerName = "request handler"

const (
	AttrName = attribute.Key("fiber.name")
	AttrType = attribute.Key("fiber.type")
)

func (t Type) String() string {
	return string(t)
}

// ParseType resolves a configured layer type name.
func ParseType(value string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeRouter:
		return TypeRouter, nil
	case TypeRequestHandler:
		return TypeRequestHandler, nil
	case TypeMiddleware:
		return TypeMiddleware, nil
	default:
		return "", fmt.Errorf("unknown layer type %q", value)
	}
}

// Layer describes one middleware, router or handler unit in a chain.
type Layer struct {
	Kind      string
	MountPath string
	Path      string
}

// Metadata is the classification of a single layer.
type Metadata struct {
	// Name is the display name used for the layer span.
	Name string
	// LayerName is the value of the fiber.name attribute.
	LayerName string
	Type      Type
}

func (m Metadata) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrName.String(m.LayerName),
		AttrType.String(string(m.Type)),
	}
}

// GetLayerMetadata derives name and attributes for l. An empty mountedPath
// means none was supplied.
//
// For request handlers the " - <mountedPath>" name suffix is added when the
// layer declares its own Path, whatever mountedPath holds.
func GetLayerMetadata(l Layer, mountedPath string) Metadata {
	switch l.Kind {
	case KindRouter:
		return Metadata{
			Name:      "router - " + mountedPath,
			LayerName: mountedPath,
			Type:      TypeRouter,
		}
	case KindRequestHandler:
		layerName := mountedPath
		if layerName == "" {
			layerName = requestHandlerName
		}
		name := requestHandlerName
		if l.Path != "" {
			name += " - " + mountedPath
		}
		return Metadata{
			Name:      name,
			LayerName: layerName,
			Type:      TypeRequestHandler,
		}
	default:
		return Metadata{
			Name:      "middleware - " + l.Kind,
			LayerName: l.Kind,
			Type:      TypeMiddleware,
		}
	}
}
