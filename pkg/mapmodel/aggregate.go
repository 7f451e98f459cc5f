package mapmodel

import (
	"slices"

	"github.com/matzehuels/railmap/pkg/network"
)

// aggregate collects stop coordinates of selected routes per station and
// reduces them to means. Route types are recorded for every route so that
// deselected types stay discoverable.
func (c *buildContext) aggregate(routes []network.ResolvedRoute) {
	for _, r := range routes {
		selected := c.selection.Has(r.Type)
		for _, stop := range r.Stops {
			id := stop.Station.ID
			if selected {
				st := c.state(stop.Station)
				st.samples[0] = append(st.samples[0], stop.X)
				st.samples[1] = append(st.samples[1], stop.Y)
				st.samples[2] = append(st.samples[2], stop.Z)
			}
			if !slices.Contains(c.types[id], r.Type) {
				c.types[id] = append(c.types[id], r.Type)
			}
			if !slices.Contains(c.routeTypes, r.Type) {
				c.routeTypes = append(c.routeTypes, r.Type)
			}
		}
	}

	for _, st := range c.order {
		st.x = mean(st.samples[0])
		st.y = mean(st.samples[1])
		st.z = mean(st.samples[2])
	}
}

// state returns the scratch state for s, registering s as participating the
// first time it is seen.
func (c *buildContext) state(s *network.Station) *stationState {
	if st, ok := c.stations[s.ID]; ok {
		return st
	}
	st := &stationState{
		station:    s,
		directions: make(map[network.RouteKey][]int),
		resolved:   make(map[network.RouteKey]int),
		groups:     make(map[string][]network.RouteKey),
	}
	c.stations[s.ID] = st
	c.order = append(c.order, st)
	return st
}

// mean returns the arithmetic mean of values, or 0 for an empty list.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
