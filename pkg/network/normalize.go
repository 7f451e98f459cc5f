package network

// ResolvedRoute is a route whose stops all reference stations that exist.
type ResolvedRoute struct {
	Name  string
	Color string
	Type  string
	Stops []Stop
}

// Key returns the route's identity for bucketing.
func (r ResolvedRoute) Key() RouteKey { return RouteKey{Color: r.Color, Type: r.Type} }

// Stop is a resolved route stop: the station it references plus the stop's
// own coordinates.
type Stop struct {
	Station *Station
	X, Y, Z float64
}

// Normalize resolves every route's station references against the station
// list.
//
// References to unknown stations are dropped. A route that keeps fewer than
// two distinct stations is dropped entirely. Neither case is an error: routes
// through disabled stations are a normal part of the feed.
//
// The returned stops point into n.Stations; when the station list repeats an
// ID, the first occurrence wins. Route order and stop order are preserved.
func Normalize(n Network) []ResolvedRoute {
	index := make(map[string]*Station, len(n.Stations))
	for i := range n.Stations {
		s := &n.Stations[i]
		if _, ok := index[s.ID]; !ok {
			index[s.ID] = s
		}
	}

	routes := make([]ResolvedRoute, 0, len(n.Routes))
	for _, r := range n.Routes {
		stops := make([]Stop, 0, len(r.Stations))
		distinct := make(map[string]struct{}, len(r.Stations))
		for _, rs := range r.Stations {
			s, ok := index[rs.ID]
			if !ok {
				continue
			}
			distinct[s.ID] = struct{}{}
			stops = append(stops, Stop{Station: s, X: rs.X, Y: rs.Y, Z: rs.Z})
		}
		if len(distinct) < 2 {
			continue
		}
		routes = append(routes, ResolvedRoute{
			Name:  r.Name,
			Color: r.Color,
			Type:  r.Type,
			Stops: stops,
		})
	}
	return routes
}

// RouteTypes returns the distinct route types of n in first-seen order.
func RouteTypes(n Network) []string {
	var types []string
	seen := make(map[string]bool)
	for _, r := range n.Routes {
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type)
		}
	}
	return types
}
