package network

import (
	"cmp"
	"strings"
)

// Route types known to the upstream feed, in the order used to pick the
// default selection. The first available type in this order is selected on
// first load.
var DefaultRouteTypeOrder = []string{
	"train_normal",
	"train_light_rail",
	"train_high_speed",
	"boat_normal",
	"boat_light_rail",
	"boat_high_speed",
	"cable_car_normal",
	"bus_normal",
	"bus_light_rail",
	"bus_high_speed",
	"airplane_normal",
}

// Network is the raw transit network as delivered by the feed.
type Network struct {
	Stations []Station `json:"stations"`
	Routes   []Route   `json:"routes"`
}

// Station is a named place that routes stop at.
//
// X, Y and Z are the station's own coordinates. They are not used for map
// placement; placement is derived from the route stops that reference the
// station.
type Station struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Color       string   `json:"color,omitempty"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Z           float64  `json:"z"`
	Connections []string `json:"connections,omitempty"` // IDs of directly linked stations
}

// Route is an ordered list of stops served by one line.
type Route struct {
	Name     string         `json:"name,omitempty"`
	Color    string         `json:"color"`
	Type     string         `json:"type"`
	Stations []RouteStation `json:"stations"`
}

// Key returns the route's identity for bucketing.
func (r Route) Key() RouteKey { return RouteKey{Color: r.Color, Type: r.Type} }

// RouteStation is a route's reference to a station together with the
// coordinates of the stop itself.
type RouteStation struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// RouteKey identifies a route by color and type.
type RouteKey struct {
	Color string `json:"color"`
	Type  string `json:"type"`
}

// String returns the key as "color|type".
func (k RouteKey) String() string { return k.Color + "|" + k.Type }

// Compare orders keys lexicographically by color, then type.
func (k RouteKey) Compare(o RouteKey) int {
	if c := strings.Compare(k.Color, o.Color); c != 0 {
		return c
	}
	return strings.Compare(k.Type, o.Type)
}

// Pair is an unordered pair of station IDs. A is always less than B when the
// pair is built with [MakePair].
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// MakePair normalizes two station IDs into a Pair. reversed reports whether
// from is the second element of the pair.
func MakePair(from, to string) (p Pair, reversed bool) {
	if from > to {
		return Pair{A: to, B: from}, true
	}
	return Pair{A: from, B: to}, false
}

// Compare orders pairs by A, then B.
func (p Pair) Compare(o Pair) int {
	if c := cmp.Compare(p.A, o.A); c != 0 {
		return c
	}
	return cmp.Compare(p.B, o.B)
}

// String returns the pair as "A-B".
func (p Pair) String() string { return p.A + "-" + p.B }
