package mapmodel

import (
	"fmt"
	"slices"

	"github.com/matzehuels/railmap/pkg/network"
)

// endpoint is one station's contribution to a connection.
type endpoint struct {
	direction int
	x, z      float64
}

// lineSlot is a line under construction; seen tracks which ends have
// supplied an offset.
type lineSlot struct {
	line Line
	seen [2]bool
}

type connectionState struct {
	pair  network.Pair
	ends  [2]*endpoint
	lines []*lineSlot
}

// connect contributes st's side to every connection towards its neighbors.
func (c *buildContext) connect(st *stationState) {
	for _, neighbor := range st.neighbors {
		keys := slices.Clone(st.groups[neighbor])
		slices.SortFunc(keys, network.RouteKey.Compare)

		pair, reversed := network.MakePair(st.station.ID, neighbor)
		side := 0
		if reversed {
			side = 1
		}
		conn := c.connection(pair)

		direction := st.resolved[keys[0]]
		conn.ends[side] = &endpoint{direction: direction, x: st.x, z: st.z}

		bucket := st.buckets[direction]
		for i, k := range keys {
			slot := c.slot(conn, i, k)
			if slot == nil {
				continue
			}
			offset := float64(slices.Index(bucket, k)) - float64(len(bucket))/2 + 0.5
			if side == 0 {
				slot.line.Offset1 = offset
			} else {
				slot.line.Offset2 = offset
			}
			slot.seen[side] = true
		}
	}
}

func (c *buildContext) connection(pair network.Pair) *connectionState {
	if conn, ok := c.connections[pair]; ok {
		return conn
	}
	conn := &connectionState{pair: pair}
	c.connections[pair] = conn
	c.pairs = append(c.pairs, pair)
	return conn
}

// slot returns line slot i of conn for route k, creating it when neither end
// has reported it yet. It returns nil, after reporting a mismatch, when the
// slot already belongs to another route.
func (c *buildContext) slot(conn *connectionState, i int, k network.RouteKey) *lineSlot {
	if i < len(conn.lines) {
		slot := conn.lines[i]
		if slot.line.Route != k {
			pair, route := conn.pair, k
			c.report(Diagnostic{
				Kind:    DiagLineMismatch,
				Pair:    &pair,
				Route:   &route,
				Message: fmt.Sprintf("connection %s: line %d is %s at one end and %s at the other", conn.pair, i, slot.line.Route, k),
			})
			return nil
		}
		return slot
	}
	slot := &lineSlot{line: Line{Route: k, OneWay: c.oneWay(conn.pair, k)}}
	conn.lines = append(conn.lines, slot)
	return slot
}

// oneWay classifies the service of route k between the stations of pair.
func (c *buildContext) oneWay(pair network.Pair, k network.RouteKey) int {
	if c.opts.DisableOneWay {
		return 0
	}
	adj, ok := c.adjacency[adjacencyKey{pair: pair, route: k}]
	switch {
	case ok && adj.forwards && adj.backwards:
		return 0
	case ok && adj.forwards:
		return 1
	case ok && adj.backwards:
		return -1
	}
	p, route := pair, k
	c.report(Diagnostic{
		Kind:    DiagMissingAdjacency,
		Pair:    &p,
		Route:   &route,
		Message: fmt.Sprintf("route %s is grouped on %s but was never traversed there", k, pair),
	})
	return 0
}
