package mapmodel

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/railmap/pkg/network"
)

// merge joins st's neighbor groups that share a route into bundles, resolves
// one direction per bundle and derives the station's marker geometry.
func (c *buildContext) merge(st *stationState) {
	uf := newUnionFind()
	for _, neighbor := range st.neighbors {
		group := st.groups[neighbor]
		for _, k := range group {
			uf.add(k)
			uf.union(group[0], k)
		}
	}
	// Routes without any neighbor group still need a direction.
	for _, k := range st.routes {
		uf.add(k)
	}
	bundles := uf.sets()
	c.checkPartition(st, bundles)

	for _, bundle := range bundles {
		var counts [directionCount]int
		for _, k := range bundle {
			for _, d := range st.directions[k] {
				counts[d]++
			}
		}
		direction := dominant(counts)
		for _, k := range bundle {
			st.resolved[k] = direction
			st.buckets[direction] = append(st.buckets[direction], k)
		}
	}

	b := func(i int) int { return len(st.buckets[i]) }
	st.rotate = b(1)+b(3) > b(0)+b(2)
	st.routeCount = len(st.routes)

	diagonal := math.Sqrt2 / 2
	if c.opts.DisableDiagonalScaling {
		diagonal = 1
	}
	spread := func(i int) float64 { return float64(max(0, b(i)-1)) }
	if st.rotate {
		st.width = math.Max(spread(1), spread(0)*diagonal)
		st.height = math.Max(spread(3), spread(2)*diagonal)
	} else {
		st.width = math.Max(spread(0), spread(1)*diagonal)
		st.height = math.Max(spread(2), spread(3)*diagonal)
	}

	for i := range st.buckets {
		slices.SortFunc(st.buckets[i], network.RouteKey.Compare)
	}
}

// dominant returns the bucket with the highest count; the lowest bucket wins
// ties. All-zero counts give bucket 0.
func dominant(counts [directionCount]int) int {
	direction, best := 0, 0
	for i, n := range counts {
		if n > best {
			direction, best = i, n
		}
	}
	return direction
}

// checkPartition verifies that every route at st belongs to exactly one
// bundle and reports each violation.
func (c *buildContext) checkPartition(st *stationState, bundles [][]network.RouteKey) {
	seen := make(map[network.RouteKey]int, len(st.routes))
	for _, bundle := range bundles {
		for _, k := range bundle {
			seen[k]++
		}
	}
	for _, k := range st.routes {
		if n := seen[k]; n != 1 {
			key := k
			c.report(Diagnostic{
				Kind:    DiagDuplicateGroupRoute,
				Station: st.station.ID,
				Route:   &key,
				Message: fmt.Sprintf("route %s is in %d merged groups at station %s", k, n, st.station.ID),
			})
		}
	}
}
