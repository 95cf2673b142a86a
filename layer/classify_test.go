package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestGetLayerMetadata(t *testing.T) {
	tests := []struct {
		name        string
		layer       Layer
		mountedPath string
		want        Metadata
	}{
		{
			name:        "router",
			layer:       Layer{Kind: KindRouter},
			mountedPath: "/api",
			want:        Metadata{Name: "router - /api", LayerName: "/api", Type: TypeRouter},
		},
		{
			name:  "router without mount path",
			layer: Layer{Kind: KindRouter},
			want:  Metadata{Name: "router - ", LayerName: "", Type: TypeRouter},
		},
		{
			name:        "request handler with path",
			layer:       Layer{Kind: KindRequestHandler, Path: "/users/:id"},
			mountedPath: "/users/:id",
			want:        Metadata{Name: "request handler - /users/:id", LayerName: "/users/:id", Type: TypeRequestHandler},
		},
		{
			name:  "request handler own path without mounted path",
			layer: Layer{Kind: KindRequestHandler, Path: "/x"},
			want:  Metadata{Name: "request handler - ", LayerName: "request handler", Type: TypeRequestHandler},
		},
		{
			name:        "request handler mounted path without own path",
			layer:       Layer{Kind: KindRequestHandler},
			mountedPath: "/x",
			want:        Metadata{Name: "request handler", LayerName: "/x", Type: TypeRequestHandler},
		},
		{
			name:  "middleware",
			layer: Layer{Kind: "mw1"},
			want:  Metadata{Name: "middleware - mw1", LayerName: "mw1", Type: TypeMiddleware},
		},
		{
			name:        "middleware ignores mounted path",
			layer:       Layer{Kind: "cors", MountPath: "/static"},
			mountedPath: "/static",
			want:        Metadata{Name: "middleware - cors", LayerName: "cors", Type: TypeMiddleware},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetLayerMetadata(tc.layer, tc.mountedPath))
		})
	}
}

func TestMetadataAttributes(t *testing.T) {
	attrs := GetLayerMetadata(Layer{Kind: KindRouter}, "/api").Attributes()
	require.Len(t, attrs, 2)

	set := attribute.NewSet(attrs...)
	name, ok := set.Value(AttrName)
	require.True(t, ok)
	assert.Equal(t, "/api", name.AsString())

	typ, ok := set.Value(AttrType)
	require.True(t, ok)
	assert.Equal(t, "router", typ.AsString())
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{
		"router":          TypeRouter,
		" Middleware ":    TypeMiddleware,
		"REQUEST_HANDLER": TypeRequestHandler,
	} {
		got, err := ParseType(in)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseType(%q): got=%q want=%q", in, got, want)
		}
	}

	if _, err := ParseType("handler"); err == nil {
		t.Fatalf("expected unknown layer type to fail")
	}
}
