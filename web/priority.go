package web

import (
	"cmp"
	"slices"
)

type PriorityLevel int

const (
	Earliest PriorityLevel = -200
	Earlier  PriorityLevel = -100
	Normal   PriorityLevel = 0
	Later    PriorityLevel = 100
	Latest   PriorityLevel = 200
)

// Prioritized handlers are set up in ascending priority order. Handlers
// without a priority run at Normal.
type Prioritized interface {
	Priority() PriorityLevel
}

func Between(lower, upper PriorityLevel) PriorityLevel {
	if lower == upper {
		return lower
	}
	if lower > upper {
		lower, upper = upper, lower
	}
	return PriorityLevel(int(lower) + (int(upper)-int(lower))/2)
}

func handlerPriority(handler Handler) PriorityLevel {
	if p, ok := handler.(Prioritized); ok {
		return p.Priority()
	}
	return Normal
}

// Prioritize returns handlers sorted by priority, keeping registration order
// among equals.
func Prioritize(handlers []Handler) []Handler {
	out := slices.Clone(handlers)
	slices.SortStableFunc(out, func(a, b Handler) int {
		return cmp.Compare(handlerPriority(a), handlerPriority(b))
	})
	return out
}
