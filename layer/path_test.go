package layer

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
)

func TestStoreLayerPathKeepsCallOrder(t *testing.T) {
	ctx := StoreLayerPath(context.Background(), "/api")
	ctx = StoreLayerPath(ctx, "/v1")
	ctx = StoreLayerPath(ctx, "/users", "/:id")

	got := PathFromContext(ctx).Fragments()
	want := []string{"/api", "/v1", "/users", "/:id"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected fragments: got %v want %v", got, want)
	}
}

func TestStoreLayerPathWithoutFragmentOnlyInitializes(t *testing.T) {
	ctx := StoreLayerPath(context.Background())
	p := PathFromContext(ctx)
	if p == nil {
		t.Fatalf("expected path to be attached")
	}

	for i := 0; i < 3; i++ {
		next := StoreLayerPath(ctx)
		if next != ctx {
			t.Fatalf("expected repeated init to keep the same context")
		}
	}
	if PathFromContext(ctx) != p {
		t.Fatalf("expected path to be created once")
	}
	if p.Len() != 0 {
		t.Fatalf("expected empty path, got %v", p.Fragments())
	}
}

func TestStoreLayerPathDoesNotTouchParentContext(t *testing.T) {
	parent := context.Background()
	child := StoreLayerPath(parent, "/api")

	if PathFromContext(parent) != nil {
		t.Fatalf("expected parent context to stay without path")
	}
	if PathFromContext(child) == nil {
		t.Fatalf("expected child context to carry path")
	}
}

func TestPathIsNotSerialized(t *testing.T) {
	ctx := StoreLayerPath(context.Background(), "/secret")
	b, err := json.Marshal(PathFromContext(ctx))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{}" {
		t.Fatalf("expected fragments to stay out of serialization, got %s", b)
	}
}

func TestPathFragmentsReturnsCopy(t *testing.T) {
	ctx := StoreLayerPath(context.Background(), "/a")
	got := PathFromContext(ctx).Fragments()
	got[0] = "/mutated"

	if PathFromContext(ctx).Fragments()[0] != "/a" {
		t.Fatalf("expected stored fragments to be unaffected by caller mutation")
	}
}

func TestPathRewind(t *testing.T) {
	ctx := StoreLayerPath(context.Background(), "/api", "/users", "/:id")
	p := PathFromContext(ctx)

	p.Rewind(5)
	if p.Len() != 3 {
		t.Fatalf("rewind past the end should be a no-op, got %v", p.Fragments())
	}
	p.Rewind(1)
	if got := p.Fragments(); !reflect.DeepEqual(got, []string{"/api"}) {
		t.Fatalf("unexpected fragments after rewind: %v", got)
	}
	p.Store("/orders")
	if got := p.Route(); got != "/api/orders" {
		t.Fatalf("unexpected route after rewind: %q", got)
	}
}

func TestPathRoute(t *testing.T) {
	tests := []struct {
		fragments []string
		want      string
	}{
		{fragments: nil, want: "/"},
		{fragments: []string{"/"}, want: "/"},
		{fragments: []string{"/api", "/users/:id"}, want: "/api/users/:id"},
		{fragments: []string{"/", "/api", "/*", "/health"}, want: "/api/health"},
		{fragments: []string{"/api/", "/users"}, want: "/api/users"},
	}

	for _, tc := range tests {
		ctx := StoreLayerPath(context.Background(), tc.fragments...)
		if got := PathFromContext(ctx).Route(); got != tc.want {
			t.Fatalf("Route(%v): got=%q want=%q", tc.fragments, got, tc.want)
		}
	}
}

func TestNilPathAccessors(t *testing.T) {
	var p *Path
	if p.Len() != 0 || p.Fragments() != nil || p.Route() != "/" {
		t.Fatalf("expected nil path accessors to be safe")
	}
	p.Rewind(0)
}
