package mapmodel

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/matzehuels/railmap/pkg/network"
)

// finish assembles the Map from the build context.
func (c *buildContext) finish() *Map {
	m := &Map{
		Stations:           make([]Station, 0, len(c.order)),
		RouteTypes:         slices.Clone(c.routeTypes),
		Connections:        make([]Connection, 0, len(c.pairs)),
		StationConnections: []StationConnection{},
	}
	if m.RouteTypes == nil {
		m.RouteTypes = []string{}
	}

	closest := math.Inf(1)
	for _, st := range c.order {
		if d := math.Abs(st.x) + math.Abs(st.z); d < closest {
			closest = d
			m.CenterX, m.CenterY = negate(st.x), negate(st.z)
		}
		m.Stations = append(m.Stations, Station{
			ID:         st.station.ID,
			Name:       st.station.Name,
			X:          st.x,
			Y:          st.y,
			Z:          st.z,
			RouteCount: st.routeCount,
			Width:      st.width,
			Height:     st.height,
			Rotate:     st.rotate,
			Types:      slices.Clone(c.types[st.station.ID]),
		})
	}
	slices.SortStableFunc(m.Stations, func(a, b Station) int {
		if a.RouteCount != b.RouteCount {
			return cmp.Compare(b.RouteCount, a.RouteCount)
		}
		return cmp.Compare(utf8.RuneCountInString(b.Name), utf8.RuneCountInString(a.Name))
	})

	for _, pair := range c.pairs {
		if conn, ok := c.complete(c.connections[pair]); ok {
			m.Connections = append(m.Connections, conn)
			m.MaxConnectionLength = math.Max(m.MaxConnectionLength, conn.Length)
		}
	}
	slices.SortStableFunc(m.Connections, func(a, b Connection) int {
		if a.Length != b.Length {
			return cmp.Compare(b.Length, a.Length)
		}
		return a.Pair.Compare(b.Pair)
	})

	m.StationConnections = c.stationConnections()
	m.Diagnostics = c.diagnostics
	return m
}

// complete converts a connection once both ends have contributed. Lines only
// one end reported are flagged and still emitted.
func (c *buildContext) complete(conn *connectionState) (Connection, bool) {
	a, b := conn.ends[0], conn.ends[1]
	if a == nil || b == nil {
		pair := conn.pair
		c.report(Diagnostic{
			Kind:    DiagIncompleteConnection,
			Pair:    &pair,
			Message: fmt.Sprintf("connection %s has only one endpoint", conn.pair),
		})
		return Connection{}, false
	}

	out := Connection{
		Pair:       conn.pair,
		Direction1: a.direction,
		Direction2: b.direction,
		X1:         a.x,
		Z1:         a.z,
		X2:         b.x,
		Z2:         b.z,
		Lines:      make([]Line, 0, len(conn.lines)),
		Length:     math.Abs(b.x-a.x) + math.Abs(b.z-a.z),
	}
	for i, slot := range conn.lines {
		if !slot.seen[0] || !slot.seen[1] {
			pair, route := conn.pair, slot.line.Route
			c.report(Diagnostic{
				Kind:    DiagLineMismatch,
				Pair:    &pair,
				Route:   &route,
				Message: fmt.Sprintf("connection %s: line %d (%s) is only reported by one end", conn.pair, i, slot.line.Route),
			})
		}
		out.Lines = append(out.Lines, slot.line)
	}
	return out, true
}

// stationConnections builds the plain station links. Each station supplies
// its own end of a link from its connection list, so a link is only emitted
// when both participating stations list each other.
func (c *buildContext) stationConnections() []StationConnection {
	type half struct {
		set  [2]bool
		conn StationConnection
	}
	links := make(map[network.Pair]*half)
	var pairs []network.Pair

	for _, st := range c.order {
		for _, other := range st.station.Connections {
			if other == st.station.ID {
				continue
			}
			pair, reversed := network.MakePair(st.station.ID, other)
			h, ok := links[pair]
			if !ok {
				h = &half{conn: StationConnection{Pair: pair}}
				links[pair] = h
				pairs = append(pairs, pair)
			}
			if reversed {
				h.conn.X2, h.conn.Z2, h.set[1] = st.x, st.z, true
			} else {
				h.conn.X1, h.conn.Z1, h.set[0] = st.x, st.z, true
			}
		}
	}

	out := []StationConnection{}
	for _, pair := range pairs {
		h := links[pair]
		if !h.set[0] || !h.set[1] {
			continue
		}
		h.conn.Length = math.Abs(h.conn.X2-h.conn.X1) + math.Abs(h.conn.Z2-h.conn.Z1)
		out = append(out, h.conn)
	}
	slices.SortFunc(out, func(a, b StationConnection) int { return a.Pair.Compare(b.Pair) })
	return out
}

// negate returns -v without producing negative zero.
func negate(v float64) float64 { return 0 - v }
