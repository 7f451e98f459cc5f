package mapmodel

import (
	"slices"

	"github.com/matzehuels/railmap/pkg/network"
)

// Selection is the set of route types currently shown on the map. A nil
// Selection selects nothing.
type Selection map[string]bool

// NewSelection returns a selection containing types.
func NewSelection(types ...string) Selection {
	s := make(Selection, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}

// DefaultSelection returns the selection used when nothing has been chosen
// yet: the first type in order that is available, or the first available type
// if none of order is. order defaults to [network.DefaultRouteTypeOrder].
// An empty available list gives an empty selection.
func DefaultSelection(available, order []string) Selection {
	if len(available) == 0 {
		return Selection{}
	}
	if order == nil {
		order = network.DefaultRouteTypeOrder
	}
	for _, t := range order {
		if slices.Contains(available, t) {
			return NewSelection(t)
		}
	}
	return NewSelection(available[0])
}

// Has reports whether routeType is selected.
func (s Selection) Has(routeType string) bool { return s[routeType] }

// Types returns the selected types in sorted order.
func (s Selection) Types() []string {
	types := make([]string, 0, len(s))
	for t, ok := range s {
		if ok {
			types = append(types, t)
		}
	}
	slices.Sort(types)
	return types
}

// With returns a copy of s with routeType added.
func (s Selection) With(routeType string) Selection {
	out := NewSelection(s.Types()...)
	out[routeType] = true
	return out
}

// Without returns a copy of s with routeType removed.
func (s Selection) Without(routeType string) Selection {
	out := NewSelection(s.Types()...)
	delete(out, routeType)
	return out
}
