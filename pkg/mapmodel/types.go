package mapmodel

import "github.com/matzehuels/railmap/pkg/network"

// directionCount is the number of direction buckets.
const directionCount = 4

// Options selects between variants of the derivation.
//
// The zero value enables everything: one-way detection and diagonal scaling
// of station sizes.
type Options struct {
	// DisableOneWay skips one-way classification; every line is reported as
	// two-way.
	DisableOneWay bool `json:"disable_one_way,omitempty"`

	// DisableDiagonalScaling sizes diagonal bundles like axis-aligned ones
	// instead of scaling them by √½.
	DisableDiagonalScaling bool `json:"disable_diagonal_scaling,omitempty"`
}

// Map is the derived, renderable map model.
type Map struct {
	// CenterX and CenterY translate the map so the station closest to the
	// origin lands at the center.
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`

	Stations []Station `json:"stations"`

	// RouteTypes lists every route type seen in the network, selected or not,
	// in first-seen order.
	RouteTypes []string `json:"route_types"`

	Connections         []Connection `json:"connections"`
	MaxConnectionLength float64      `json:"max_connection_length"`

	// StationConnections are plain station-to-station links from the feed's
	// station connection lists, independent of routes.
	StationConnections []StationConnection `json:"station_connections"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Station is a participating station with its averaged position and derived
// marker geometry.
type Station struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`

	RouteCount int     `json:"route_count"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Rotate     bool    `json:"rotate"` // buckets 1 and 3 outweigh buckets 0 and 2

	// Types are all route types touching the station, selected or not.
	Types []string `json:"types"`
}

// Connection is the rendering record for one pair of adjacent stations.
// Endpoint 1 is Pair.A and endpoint 2 is Pair.B.
type Connection struct {
	Pair       network.Pair `json:"pair"`
	Direction1 int          `json:"direction1"`
	Direction2 int          `json:"direction2"`
	X1         float64      `json:"x1"`
	Z1         float64      `json:"z1"`
	X2         float64      `json:"x2"`
	Z2         float64      `json:"z2"`
	Lines      []Line       `json:"lines"`
	Length     float64      `json:"length"` // Manhattan distance between the endpoints
}

// Line is one route drawn along a connection.
type Line struct {
	Route   network.RouteKey `json:"route"`
	Offset1 float64          `json:"offset1"`
	Offset2 float64          `json:"offset2"`

	// OneWay is 0 when the route runs both ways, +1 when it only runs from
	// Pair.A to Pair.B and -1 when it only runs from Pair.B to Pair.A.
	OneWay int `json:"one_way"`
}

// StationConnection is a plain link between two stations.
type StationConnection struct {
	Pair   network.Pair `json:"pair"`
	X1     float64      `json:"x1"`
	Z1     float64      `json:"z1"`
	X2     float64      `json:"x2"`
	Z2     float64      `json:"z2"`
	Length float64      `json:"length"`
}

// DiagnosticKind classifies a data-integrity problem found during a build.
type DiagnosticKind string

const (
	// DiagDuplicateGroupRoute: a route ended up in more than one merged
	// group, or in none, at a station.
	DiagDuplicateGroupRoute DiagnosticKind = "duplicate_group_route"

	// DiagLineMismatch: the two ends of a connection disagree on which route
	// occupies a line slot.
	DiagLineMismatch DiagnosticKind = "line_mismatch"

	// DiagMissingAdjacency: a route is grouped towards a neighbor but no
	// traversal in either direction recorded the adjacency.
	DiagMissingAdjacency DiagnosticKind = "missing_adjacency"

	// DiagIncompleteConnection: only one end of a connection contributed.
	DiagIncompleteConnection DiagnosticKind = "incomplete_connection"
)

// Diagnostic describes one data-integrity problem. The build continues with
// best-effort data when it records one.
type Diagnostic struct {
	Kind    DiagnosticKind    `json:"kind"`
	Station string            `json:"station,omitempty"`
	Pair    *network.Pair     `json:"pair,omitempty"`
	Route   *network.RouteKey `json:"route,omitempty"`
	Message string            `json:"message"`
}

func (d Diagnostic) String() string { return string(d.Kind) + ": " + d.Message }
