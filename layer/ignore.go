package layer

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/multierr"
)

// ErrUnsupportedPattern is returned when an ignore pattern is neither a
// string, a regular expression nor a predicate.
var ErrUnsupportedPattern = errors.New("unsupported pattern datatype")

// RegexPrefix marks a configured ignore entry as a regular expression.
const RegexPrefix = "regex:"

type matcherKind uint8

const (
	matchNone matcherKind = iota
	matchExact
	matchPattern
	matchPredicate
)

// Matcher decides whether a layer name should be ignored. Build one with
// Exact, Pattern, Predicate or NewMatcher; the zero value matches nothing.
type Matcher struct {
	kind      matcherKind
	exact     string
	pattern   *regexp.Regexp
	predicate func(string) bool
}

func Exact(name string) Matcher {
	return Matcher{kind: matchExact, exact: name}
}

func Pattern(re *regexp.Regexp) Matcher {
	if re == nil {
		return Matcher{}
	}
	return Matcher{kind: matchPattern, pattern: re}
}

func Predicate(fn func(string) bool) Matcher {
	if fn == nil {
		return Matcher{}
	}
	return Matcher{kind: matchPredicate, predicate: fn}
}

// NewMatcher converts a string, *regexp.Regexp, func(string) bool or Matcher
// into a Matcher.
func NewMatcher(v any) (Matcher, error) {
	switch p := v.(type) {
	case Matcher:
		if p.kind == matchNone {
			return Matcher{}, fmt.Errorf("%w: empty matcher", ErrUnsupportedPattern)
		}
		return p, nil
	case string:
		return Exact(p), nil
	case *regexp.Regexp:
		if p == nil {
			return Matcher{}, fmt.Errorf("%w: nil regexp", ErrUnsupportedPattern)
		}
		return Pattern(p), nil
	case func(string) bool:
		if p == nil {
			return Matcher{}, fmt.Errorf("%w: nil predicate", ErrUnsupportedPattern)
		}
		return Predicate(p), nil
	default:
		return Matcher{}, fmt.Errorf("%w: %T", ErrUnsupportedPattern, v)
	}
}

// ParseMatcher reads a configured ignore entry. Entries starting with
// "regex:" are compiled, everything else matches exactly.
func ParseMatcher(value string) (Matcher, error) {
	if expr, ok := strings.CutPrefix(value, RegexPrefix); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Matcher{}, fmt.Errorf("compile ignore pattern %q: %w", expr, err)
		}
		return Pattern(re), nil
	}
	return Exact(value), nil
}

func (m Matcher) String() string {
	switch m.kind {
	case matchExact:
		return m.exact
	case matchPattern:
		return RegexPrefix + m.pattern.String()
	case matchPredicate:
		return "predicate"
	default:
		return "none"
	}
}

// Match reports whether name satisfies m. A panicking predicate counts as
// no match.
func (m Matcher) Match(name string) bool {
	switch m.kind {
	case matchExact:
		return name == m.exact
	case matchPattern:
		return m.pattern.MatchString(name)
	case matchPredicate:
		return callPredicate(m.predicate, name)
	default:
		return false
	}
}

func callPredicate(fn func(string) bool, name string) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return fn(name)
}

// Filter selects layers to leave out of tracing.
type Filter struct {
	IgnoreLayersType []Type
	IgnoreLayers     []Matcher
}

// NewFilter builds a Filter from configured layer types and ignore entries.
// Every invalid entry is reported.
func NewFilter(types []string, layers []string) (*Filter, error) {
	f := &Filter{}
	var errs error
	for _, value := range types {
		t, err := ParseType(value)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.IgnoreLayersType = append(f.IgnoreLayersType, t)
	}
	for _, value := range layers {
		m, err := ParseMatcher(value)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		f.IgnoreLayers = append(f.IgnoreLayers, m)
	}
	if errs != nil {
		return nil, errs
	}
	return f, nil
}

// IsLayerIgnored reports whether a layer with the given name and type is
// excluded by f. Type exclusion wins before any name matching. Matchers run
// in order and a predicate that panics counts as a miss, so the matchers
// after it are still tried.
func IsLayerIgnored(name string, t Type, f *Filter) bool {
	if f == nil {
		return false
	}
	if slices.Contains(f.IgnoreLayersType, t) {
		return true
	}
	for _, m := range f.IgnoreLayers {
		if m.Match(name) {
			return true
		}
	}
	return false
}
