package layer

import (
	"context"
	"strings"
)

type pathKey struct{}

// Path is the ordered list of route fragments contributed by the layers a
// single request has entered, outer to inner. It belongs to one request and
// is not safe for concurrent use.
type Path struct {
	fragments []string
}

// StoreLayerPath attaches a Path to ctx if it has none yet and appends the
// given fragments to it in order. Calling it without fragments only makes
// sure the Path exists.
func StoreLayerPath(ctx context.Context, fragments ...string) context.Context {
	p, ok := ctx.Value(pathKey{}).(*Path)
	if !ok {
		p = &Path{}
		ctx = context.WithValue(ctx, pathKey{}, p)
	}
	for _, fragment := range fragments {
		p.Store(fragment)
	}
	return ctx
}

// PathFromContext returns the Path attached by StoreLayerPath, or nil.
func PathFromContext(ctx context.Context) *Path {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(pathKey{}).(*Path)
	return p
}

// Store appends fragment.
func (p *Path) Store(fragment string) {
	p.fragments = append(p.fragments, fragment)
}

// Fragments returns a copy of the stored fragments.
func (p *Path) Fragments() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.fragments))
	copy(out, p.fragments)
	return out
}

func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.fragments)
}

// Rewind drops every fragment after the first n. Dispatch that leaves a
// router's subtree for a sibling rewinds to the depth both share.
func (p *Path) Rewind(n int) {
	if p == nil || n < 0 || n >= len(p.fragments) {
		return
	}
	clear(p.fragments[n:])
	p.fragments = p.fragments[:n]
}

// Route joins the fragments into the logical route. Bare "/" and "/*"
// mounts add nothing, and repeated slashes collapse.
func (p *Path) Route() string {
	if p == nil {
		return "/"
	}
	var b strings.Builder
	for _, fragment := range p.fragments {
		if fragment == "/" || fragment == "/*" {
			continue
		}
		b.WriteString(fragment)
	}
	route := b.String()
	for strings.Contains(route, "//") {
		route = strings.ReplaceAll(route, "//", "/")
	}
	if route == "" {
		return "/"
	}
	return route
}
