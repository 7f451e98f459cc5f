package mapmodel

import (
	"math"
	"slices"

	"github.com/matzehuels/railmap/pkg/network"
)

// classify walks r forwards and then backwards. At every stop it samples the
// direction bucket of the segment from the previous to the next stop (in
// walking order), registers the next stop's station as a neighbor group, and
// on the forward walk records which way the route travels between the two.
func (c *buildContext) classify(r network.ResolvedRoute) {
	key := r.Key()
	c.walk(r.Stops, key, true)
	c.walk(r.Stops, key, false)
}

func (c *buildContext) walk(stops []network.Stop, key network.RouteKey, forwards bool) {
	n := len(stops)
	for i := range n {
		index, step := i, 1
		if !forwards {
			index, step = n-i-1, -1
		}

		current := stops[index]
		prev, next := current, current
		if j := index - step; j >= 0 && j < n {
			prev = stops[j]
		}
		hasNext := false
		if j := index + step; j >= 0 && j < n {
			next, hasNext = stops[j], true
		}

		st := c.stations[current.Station.ID]
		if _, seen := st.directions[key]; !seen {
			st.routes = append(st.routes, key)
		}
		st.directions[key] = append(st.directions[key], bearing(prev, next))

		if !hasNext || next.Station.ID == current.Station.ID {
			continue
		}
		neighbor := next.Station.ID
		group, ok := st.groups[neighbor]
		if !ok {
			st.neighbors = append(st.neighbors, neighbor)
		}
		if !slices.Contains(group, key) {
			st.groups[neighbor] = append(group, key)
		}

		if forwards {
			pair, reversed := network.MakePair(current.Station.ID, neighbor)
			ak := adjacencyKey{pair: pair, route: key}
			adj, ok := c.adjacency[ak]
			if !ok {
				adj = &adjacency{}
				c.adjacency[ak] = adj
			}
			if reversed {
				adj.backwards = true
			} else {
				adj.forwards = true
			}
		}
	}
}

// bearing snaps the heading from one stop to another in the x/z plane to one
// of four buckets: (round(atan2(dz, dx)·4/π) + 8) mod 4. Rounding is half-up.
// A zero-length segment yields bucket 0.
func bearing(from, to network.Stop) int {
	angle := math.Atan2(to.Z-from.Z, to.X-from.X)
	return (int(math.Floor(angle*4/math.Pi+0.5)) + 8) % directionCount
}
