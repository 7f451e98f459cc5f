package mapmodel

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/railmap/pkg/network"
)

const train = "train_normal"

var (
	red   = network.RouteKey{Color: "red", Type: train}
	blue  = network.RouteKey{Color: "blue", Type: train}
	green = network.RouteKey{Color: "green", Type: train}
)

// station returns a test station placed at (x, 0, z).
func station(id string, x, z float64) network.Station {
	return network.Station{ID: id, Name: id, X: x, Z: z}
}

// through returns a route stopping at stations in order, using each
// station's own coordinates for the stop.
func through(k network.RouteKey, stations ...network.Station) network.Route {
	r := network.Route{Color: k.Color, Type: k.Type}
	for _, s := range stations {
		r.Stations = append(r.Stations, network.RouteStation{ID: s.ID, X: s.X, Y: s.Y, Z: s.Z})
	}
	return r
}

func buildNetwork(n network.Network, sel Selection, opts Options) *Map {
	return Build(network.Normalize(n), sel, opts)
}

func findStation(t *testing.T, m *Map, id string) Station {
	t.Helper()
	for _, s := range m.Stations {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("station %s not in map", id)
	return Station{}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ringNetwork is a small network with shared segments, a branch and a bus.
func ringNetwork() network.Network {
	a := station("A", 0, 0)
	b := station("B", 10, 0)
	c := station("C", 10, 10)
	d := station("D", 0, 10)
	e := station("E", 20, 5)
	return network.Network{
		Stations: []network.Station{a, b, c, d, e},
		Routes: []network.Route{
			through(red, a, b, c, d),
			through(blue, b, c, e),
			through(green, d, a, b),
			through(red, d, c, b, a),
			through(network.RouteKey{Color: "gray", Type: "bus_normal"}, a, e),
		},
	}
}

func TestBuildSingleSegment(t *testing.T) {
	a, b := station("A", 0, 0), station("B", 10, 0)
	routes := network.Normalize(network.Network{
		Stations: []network.Station{a, b},
		Routes:   []network.Route{through(red, a, b)},
	})

	ctx := newBuildContext(NewSelection(train), Options{})
	m := ctx.run(routes)

	if len(m.Stations) != 2 {
		t.Fatalf("len(Stations) = %d, want 2", len(m.Stations))
	}
	if len(m.Connections) != 1 {
		t.Fatalf("len(Connections) = %d, want 1", len(m.Connections))
	}
	conn := m.Connections[0]
	if conn.Pair != (network.Pair{A: "A", B: "B"}) {
		t.Errorf("Pair = %v, want A-B", conn.Pair)
	}
	if conn.Direction1 != 0 || conn.Direction2 != 0 {
		t.Errorf("directions = %d, %d; want 0, 0", conn.Direction1, conn.Direction2)
	}
	if conn.X1 != 0 || conn.X2 != 10 || conn.Length != 10 {
		t.Errorf("connection = %+v", conn)
	}
	want := []Line{{Route: red, Offset1: 0, Offset2: 0, OneWay: 1}}
	if !reflect.DeepEqual(conn.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", conn.Lines, want)
	}
	if m.MaxConnectionLength != 10 {
		t.Errorf("MaxConnectionLength = %v, want 10", m.MaxConnectionLength)
	}
	if len(m.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", m.Diagnostics)
	}

	// One sample per walk: the endpoints have no interior segment.
	for _, id := range []string{"A", "B"} {
		st := ctx.stations[id]
		if n := len(st.directions[red]); n != 2 {
			t.Errorf("station %s: %d direction samples, want 2", id, n)
		}
		if n := len(st.samples[0]); n != 1 {
			t.Errorf("station %s: %d position samples, want 1", id, n)
		}
	}
}

func TestBuildSharedSegment(t *testing.T) {
	c, d := station("C", 0, 0), station("D", 10, 0)
	m := buildNetwork(network.Network{
		Stations: []network.Station{c, d},
		Routes:   []network.Route{through(red, c, d), through(blue, c, d)},
	}, NewSelection(train), Options{})

	if len(m.Connections) != 1 {
		t.Fatalf("len(Connections) = %d, want 1", len(m.Connections))
	}
	want := []Line{
		{Route: blue, Offset1: -0.5, Offset2: -0.5, OneWay: 1},
		{Route: red, Offset1: 0.5, Offset2: 0.5, OneWay: 1},
	}
	if got := m.Connections[0].Lines; !reflect.DeepEqual(got, want) {
		t.Errorf("Lines = %+v, want %+v", got, want)
	}

	for _, id := range []string{"C", "D"} {
		s := findStation(t, m, id)
		if s.RouteCount != 2 || s.Width != 1 || s.Height != 0 || s.Rotate {
			t.Errorf("station %s = %+v", id, s)
		}
	}
}

func TestBuildOneWay(t *testing.T) {
	a, b := station("A", 0, 0), station("B", 10, 0)
	tests := []struct {
		name   string
		routes []network.Route
		opts   Options
		want   int
	}{
		{"Forwards", []network.Route{through(red, a, b)}, Options{}, 1},
		{"Backwards", []network.Route{through(red, b, a)}, Options{}, -1},
		{"Both", []network.Route{through(red, a, b), through(red, b, a)}, Options{}, 0},
		{"Disabled", []network.Route{through(red, a, b)}, Options{DisableOneWay: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := buildNetwork(network.Network{
				Stations: []network.Station{a, b},
				Routes:   tt.routes,
			}, NewSelection(train), tt.opts)
			if len(m.Connections) != 1 || len(m.Connections[0].Lines) != 1 {
				t.Fatalf("Connections = %+v", m.Connections)
			}
			if got := m.Connections[0].Lines[0].OneWay; got != tt.want {
				t.Errorf("OneWay = %d, want %d", got, tt.want)
			}
			if len(m.Diagnostics) != 0 {
				t.Errorf("unexpected diagnostics: %v", m.Diagnostics)
			}
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	sel := NewSelection(train, "bus_normal")
	first, err := json.Marshal(buildNetwork(ringNetwork(), sel, Options{}))
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, err := json.Marshal(buildNetwork(ringNetwork(), sel, Options{}))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("builds differ:\n%s\n%s", first, again)
		}
	}
}

func TestBuildRouteOrderIndependent(t *testing.T) {
	sel := NewSelection(train, "bus_normal")
	n := ringNetwork()
	forward := buildNetwork(n, sel, Options{})

	reversed := ringNetwork()
	slices.Reverse(reversed.Routes)
	slices.Reverse(reversed.Stations)
	backward := buildNetwork(reversed, sel, Options{})

	if !reflect.DeepEqual(forward.Connections, backward.Connections) {
		t.Errorf("connections depend on route order:\n%+v\n%+v", forward.Connections, backward.Connections)
	}
	if forward.CenterX != backward.CenterX || forward.CenterY != backward.CenterY {
		t.Errorf("center depends on route order")
	}
}

func TestBuildPartition(t *testing.T) {
	ctx := newBuildContext(NewSelection(train, "bus_normal"), Options{})
	m := ctx.run(network.Normalize(ringNetwork()))
	if len(m.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", m.Diagnostics)
	}

	for _, st := range ctx.order {
		count := make(map[network.RouteKey]int)
		for _, bucket := range st.buckets {
			for _, k := range bucket {
				count[k]++
			}
		}
		for _, k := range st.routes {
			if count[k] != 1 {
				t.Errorf("station %s: route %s in %d buckets", st.station.ID, k, count[k])
			}
		}
		if len(count) != len(st.routes) {
			t.Errorf("station %s: buckets hold %d routes, want %d", st.station.ID, len(count), len(st.routes))
		}
	}
}

func TestBuildEndpointsAgree(t *testing.T) {
	ctx := newBuildContext(NewSelection(train, "bus_normal"), Options{})
	m := ctx.run(network.Normalize(ringNetwork()))

	for _, conn := range m.Connections {
		a, b := ctx.stations[conn.Pair.A], ctx.stations[conn.Pair.B]
		if conn.X1 != a.x || conn.Z1 != a.z || conn.X2 != b.x || conn.Z2 != b.z {
			t.Errorf("%s: endpoints do not match station positions", conn.Pair)
		}
		for _, line := range conn.Lines {
			if a.resolved[line.Route] != conn.Direction1 || b.resolved[line.Route] != conn.Direction2 {
				t.Errorf("%s: %s resolved differently from connection directions", conn.Pair, line.Route)
			}
		}
	}
}

func TestBuildMergesNeighborGroups(t *testing.T) {
	y := station("Y", -10, 0)
	o := station("O", 0, 0)
	z := station("Z", 10, 0)
	n := station("N", 0, -10)
	w := station("W", 0, 10)

	ctx := newBuildContext(NewSelection(train), Options{})
	ctx.run(network.Normalize(network.Network{
		Stations: []network.Station{y, o, z, n, w},
		Routes: []network.Route{
			through(red, y, o, z),
			through(blue, n, o, z),
			through(green, o, w),
		},
	}))

	st := ctx.stations["O"]
	// Alone blue would resolve to the diagonal; sharing O-Z with red puts
	// both in one bundle.
	if st.resolved[red] != 0 || st.resolved[blue] != 0 {
		t.Errorf("red, blue resolved to %d, %d; want 0, 0", st.resolved[red], st.resolved[blue])
	}
	if st.resolved[green] != 2 {
		t.Errorf("green resolved to %d, want 2", st.resolved[green])
	}
	if want := []network.RouteKey{blue, red}; !slices.Equal(st.buckets[0], want) {
		t.Errorf("bucket 0 = %v, want %v", st.buckets[0], want)
	}
	if st.routeCount != 3 {
		t.Errorf("routeCount = %d, want 3", st.routeCount)
	}
}

func TestBuildStationSize(t *testing.T) {
	o := station("O", 0, 0)
	e := station("E", 10, 0)
	n := station("N", 0, 10)
	ne := station("NE", 10, 10)
	yellow := network.RouteKey{Color: "yellow", Type: train}

	mixed := network.Network{
		Stations: []network.Station{o, e, n, ne},
		Routes: []network.Route{
			through(red, o, e),
			through(blue, o, n),
			through(green, o, ne),
			through(yellow, o, ne),
		},
	}
	diagonal := network.Network{
		Stations: []network.Station{o, ne},
		Routes:   []network.Route{through(green, o, ne), through(yellow, o, ne)},
	}

	tests := []struct {
		name          string
		network       network.Network
		opts          Options
		width, height float64
		rotate        bool
	}{
		{"Scaled", mixed, Options{}, math.Sqrt2 / 2, 0, false},
		{"Unscaled", mixed, Options{DisableDiagonalScaling: true}, 1, 0, false},
		{"Rotated", diagonal, Options{}, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := findStation(t, buildNetwork(tt.network, NewSelection(train), tt.opts), "O")
			if !approx(s.Width, tt.width) || !approx(s.Height, tt.height) || s.Rotate != tt.rotate {
				t.Errorf("O = width %v height %v rotate %v; want %v %v %v",
					s.Width, s.Height, s.Rotate, tt.width, tt.height, tt.rotate)
			}
		})
	}
}

func TestBuildSelection(t *testing.T) {
	a, b, c := station("A", 0, 0), station("B", 10, 0), station("C", 20, 0)
	bus := network.RouteKey{Color: "green", Type: "bus_normal"}
	n := network.Network{
		Stations: []network.Station{a, b, c},
		Routes:   []network.Route{through(red, a, b), through(bus, b, c)},
	}

	m := buildNetwork(n, NewSelection(train), Options{})
	if len(m.Stations) != 2 || len(m.Connections) != 1 {
		t.Fatalf("got %d stations, %d connections; want 2, 1", len(m.Stations), len(m.Connections))
	}
	if want := []string{train, "bus_normal"}; !slices.Equal(m.RouteTypes, want) {
		t.Errorf("RouteTypes = %v, want %v", m.RouteTypes, want)
	}
	if got := findStation(t, m, "B").Types; !slices.Equal(got, []string{train, "bus_normal"}) {
		t.Errorf("B.Types = %v", got)
	}

	nothing := buildNetwork(n, Selection{}, Options{})
	if len(nothing.Stations) != 0 || len(nothing.RouteTypes) != 2 {
		t.Errorf("empty selection: %d stations, route types %v", len(nothing.Stations), nothing.RouteTypes)
	}
}

func TestBuildToggleIdempotent(t *testing.T) {
	sel := NewSelection(train)
	before, _ := json.Marshal(buildNetwork(ringNetwork(), sel, Options{}))
	after, _ := json.Marshal(buildNetwork(ringNetwork(), sel.With("bus_normal").Without("bus_normal"), Options{}))
	if !bytes.Equal(before, after) {
		t.Errorf("toggling a type on and off changed the map:\n%s\n%s", before, after)
	}

	with, _ := json.Marshal(buildNetwork(ringNetwork(), sel.With("bus_normal"), Options{}))
	if bytes.Equal(before, with) {
		t.Error("selecting bus_normal should change the map")
	}
}

func TestBuildEmpty(t *testing.T) {
	m := Build(nil, nil, Options{})
	if m.Stations == nil || m.Connections == nil || m.RouteTypes == nil || m.StationConnections == nil {
		t.Fatalf("lists should be empty, not nil: %+v", m)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"center_x":0,"center_y":0,"stations":[],"route_types":[],"connections":[],"max_connection_length":0,"station_connections":[]}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}

func TestBuildDropsSingleStationRoute(t *testing.T) {
	a := station("A", 0, 0)
	m := buildNetwork(network.Network{
		Stations: []network.Station{a},
		Routes: []network.Route{
			{Color: "red", Type: train, Stations: []network.RouteStation{{ID: "A"}, {ID: "missing"}}},
		},
	}, NewSelection(train), Options{})
	if len(m.Stations) != 0 || len(m.Connections) != 0 {
		t.Errorf("one-station route should be dropped: %+v", m)
	}
}

func TestBuildRepeatedStop(t *testing.T) {
	a, b := station("A", 0, 0), station("B", 10, 0)
	m := buildNetwork(network.Network{
		Stations: []network.Station{a, b},
		Routes:   []network.Route{through(red, a, a, b)},
	}, NewSelection(train), Options{})

	if len(m.Connections) != 1 || m.Connections[0].Pair != (network.Pair{A: "A", B: "B"}) {
		t.Errorf("Connections = %+v, want only A-B", m.Connections)
	}
	if len(m.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", m.Diagnostics)
	}
}

func TestBuildCenter(t *testing.T) {
	p, q := station("P", 5, 5), station("Q", -1, 2)
	m := buildNetwork(network.Network{
		Stations: []network.Station{p, q},
		Routes:   []network.Route{through(red, p, q)},
	}, NewSelection(train), Options{})
	if m.CenterX != 1 || m.CenterY != -2 {
		t.Errorf("center = (%v, %v), want (1, -2)", m.CenterX, m.CenterY)
	}
}

func TestBuildStationOrder(t *testing.T) {
	a := network.Station{ID: "a", Name: "Al", X: 0}
	h := network.Station{ID: "h", Name: "Hub", X: 10}
	b := network.Station{ID: "b", Name: "Bravo", X: 20}
	c := network.Station{ID: "c", Name: "Cy", X: 10, Z: 10}
	m := buildNetwork(network.Network{
		Stations: []network.Station{a, h, b, c},
		Routes: []network.Route{
			through(red, a, h),
			through(blue, h, b),
			through(green, c, h),
		},
	}, NewSelection(train), Options{})

	var got []string
	for _, s := range m.Stations {
		got = append(got, s.ID)
	}
	// Hub has three routes; Al and Cy tie on name length and keep their
	// first-seen order.
	if want := []string{"h", "b", "a", "c"}; !slices.Equal(got, want) {
		t.Errorf("station order = %v, want %v", got, want)
	}
}

func TestBuildStationConnections(t *testing.T) {
	a := station("A", 0, 0)
	a.Connections = []string{"B", "C", "A", "D"}
	b := station("B", 10, 0)
	b.Connections = []string{"A"}
	c := station("C", 20, 5)
	d := station("D", 30, 0)
	d.Connections = []string{"A"}

	m := buildNetwork(network.Network{
		Stations: []network.Station{a, b, c, d},
		Routes:   []network.Route{through(red, a, b, c)},
	}, NewSelection(train), Options{})

	want := []StationConnection{{Pair: network.Pair{A: "A", B: "B"}, X2: 10, Length: 10}}
	if !reflect.DeepEqual(m.StationConnections, want) {
		t.Errorf("StationConnections = %+v, want %+v", m.StationConnections, want)
	}
}
