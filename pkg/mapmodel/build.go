package mapmodel

import (
	"github.com/matzehuels/railmap/pkg/network"
)

// stationState is the per-run scratch state of one participating station.
type stationState struct {
	station *network.Station
	samples [3][]float64 // x, y, z of every selected stop at this station
	x, y, z float64

	// routes are the route keys seen here in first-seen order, with their raw
	// direction samples until merge resolves them.
	routes     []network.RouteKey
	directions map[network.RouteKey][]int
	resolved   map[network.RouteKey]int

	// neighbors lists neighbor IDs in first-seen order; groups holds the
	// routes leading to each neighbor, deduplicated, in first-seen order.
	neighbors []string
	groups    map[string][]network.RouteKey

	buckets    [directionCount][]network.RouteKey
	routeCount int
	width      float64
	height     float64
	rotate     bool
}

// adjacencyKey identifies one route's service between a pair of stations.
type adjacencyKey struct {
	pair  network.Pair
	route network.RouteKey
}

// adjacency records in which direction a route was seen travelling between
// a pair: forwards is Pair.A to Pair.B.
type adjacency struct {
	forwards  bool
	backwards bool
}

// buildContext holds everything one Build call derives before the final
// Map is assembled. It is discarded when Build returns.
type buildContext struct {
	opts      Options
	selection Selection

	stations map[string]*stationState
	order    []*stationState // participating stations, first-seen order

	types      map[string][]string // station ID -> route types, selected or not
	routeTypes []string

	adjacency map[adjacencyKey]*adjacency

	connections map[network.Pair]*connectionState
	pairs       []network.Pair // connection creation order

	diagnostics []Diagnostic
}

// Build derives the map model for routes, showing only route types in sel.
//
// routes should come from [network.Normalize]. Build does not modify them or
// the stations they reference. An empty route list or an empty selection
// yields a well-formed map with empty lists.
func Build(routes []network.ResolvedRoute, sel Selection, opts Options) *Map {
	return newBuildContext(sel, opts).run(routes)
}

func newBuildContext(sel Selection, opts Options) *buildContext {
	return &buildContext{
		opts:        opts,
		selection:   sel,
		stations:    make(map[string]*stationState),
		types:       make(map[string][]string),
		adjacency:   make(map[adjacencyKey]*adjacency),
		connections: make(map[network.Pair]*connectionState),
	}
}

func (c *buildContext) run(routes []network.ResolvedRoute) *Map {
	c.aggregate(routes)
	for _, r := range routes {
		if c.selection.Has(r.Type) {
			c.classify(r)
		}
	}
	for _, st := range c.order {
		c.merge(st)
	}
	for _, st := range c.order {
		c.connect(st)
	}
	return c.finish()
}

func (c *buildContext) report(d Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
}
