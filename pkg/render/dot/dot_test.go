package dot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/render"
)

func testMap() *mapmodel.Map {
	n := network.Network{
		Stations: []network.Station{
			{ID: "c", Name: "Central|中環", Connections: []string{"h"}},
			{ID: "h", Name: "Harbour", Connections: []string{"c"}},
			{ID: "p", Name: "Pier"},
		},
		Routes: []network.Route{
			{Color: "16711680", Type: "train_normal", Stations: []network.RouteStation{{ID: "c"}, {ID: "h", X: 100}}},
			{Color: "#0000ff", Type: "train_normal", Stations: []network.RouteStation{{ID: "h", X: 100}, {ID: "c"}}},
			{Color: "65280", Type: "train_normal", Stations: []network.RouteStation{
				{ID: "c"}, {ID: "h", X: 100}, {ID: "h", X: 100}, {ID: "c"},
			}},
			{Color: "255", Type: "train_normal", Stations: []network.RouteStation{{ID: "h", X: 100}, {ID: "p", X: 100, Z: 50}}},
		},
	}
	return mapmodel.Build(network.Normalize(n), mapmodel.NewSelection("train_normal"), mapmodel.Options{})
}

func TestToDOT(t *testing.T) {
	src := ToDOT(testMap(), Options{StationConnections: true})

	for _, want := range []string{
		"graph railmap {",
		"layout=neato;",
		"inputscale=50;",
		`"c" [pos="0,0!"`,
		`"h" [pos="100,0!"`,
		`"p" [pos="100,-50!"`,
		`label="Central\n中環"`,
		`"c" -- "h" [color="#ff0000", tooltip="train_normal", dir=forward`,
		`"c" -- "h" [color="#0000ff", tooltip="train_normal", dir=back`,
		`"c" -- "h" [color="#00ff00", tooltip="train_normal"]`,
		`"h" -- "p" [color="#0000ff"`,
		`"c" -- "h" [style=dashed`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("DOT missing %q\n%s", want, src)
		}
	}
	if !strings.HasSuffix(src, "}\n") {
		t.Error("DOT should end with closing brace")
	}
}

func TestToDOTOptions(t *testing.T) {
	m := testMap()

	src := ToDOT(m, Options{HideNames: true, Scale: 10})
	if strings.Contains(src, "Harbour") {
		t.Error("HideNames should drop labels")
	}
	if !strings.Contains(src, "inputscale=10;") {
		t.Error("Scale should set inputscale")
	}
	if strings.Contains(src, "style=dashed") {
		t.Error("station connections should be off by default")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	if ToDOT(testMap(), Options{}) != ToDOT(testMap(), Options{}) {
		t.Error("ToDOT should be deterministic")
	}
}

func TestToDOTEmpty(t *testing.T) {
	src := ToDOT(mapmodel.Build(nil, nil, mapmodel.Options{}), Options{})
	if !strings.HasPrefix(src, "graph railmap {") || strings.Contains(src, "--") {
		t.Errorf("empty map DOT = %s", src)
	}
}

func TestMarkerSize(t *testing.T) {
	opts := Options{}.withDefaults()
	w, h := markerSize(mapmodel.Station{Width: 2, Height: 0}, opts)
	if w <= h {
		t.Errorf("wider bundle should give a wider marker: w=%v h=%v", w, h)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testMap(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output should contain an svg element")
	}
	if !bytes.Contains(svg, []byte(`width="100%"`)) {
		t.Error("svg tag should be normalized")
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	if _, err := Render(context.Background(), "graph {}", render.FormatJSON); err == nil {
		t.Error("expected error for json format")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="200pt" height="100pt" viewBox="0.00 0.00 200.00 100.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 200.00 100.00"`) || strings.Contains(out, "200pt") {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should pass through")
	}
}
