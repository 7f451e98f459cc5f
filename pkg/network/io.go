package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrDecode is returned by [ReadJSON] when the input is not a valid feed
// document.
var ErrDecode = errors.New("decode network")

// document is the feed envelope: {"data": {"stations": [...], "routes": [...]}}.
type document struct {
	Data struct {
		Stations []rawStation `json:"stations"`
		Routes   []rawRoute   `json:"routes"`
	} `json:"data"`
}

type rawStation struct {
	ID          flexString   `json:"id"`
	Name        string       `json:"name"`
	Color       flexString   `json:"color"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	Z           float64      `json:"z"`
	Connections []flexString `json:"connections"`
}

type rawRoute struct {
	Name     string            `json:"name"`
	Color    flexString        `json:"color"`
	Type     string            `json:"type"`
	Stations []rawRouteStation `json:"stations"`
}

type rawRouteStation struct {
	ID flexString `json:"id"`
	X  float64    `json:"x"`
	Y  float64    `json:"y"`
	Z  float64    `json:"z"`
}

// flexString accepts a JSON string or number. The feed serialises IDs and
// colors as numbers in some versions and as strings in others.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// ReadJSON decodes a feed document from r.
//
// Unknown fields are ignored. Missing "stations" or "routes" arrays decode
// as empty lists, so an empty envelope yields an empty network rather than an
// error. Malformed JSON is reported wrapped in [ErrDecode].
func ReadJSON(r io.Reader) (Network, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Network{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	n := Network{
		Stations: make([]Station, 0, len(doc.Data.Stations)),
		Routes:   make([]Route, 0, len(doc.Data.Routes)),
	}
	for _, s := range doc.Data.Stations {
		st := Station{
			ID:    string(s.ID),
			Name:  s.Name,
			Color: string(s.Color),
			X:     s.X,
			Y:     s.Y,
			Z:     s.Z,
		}
		for _, c := range s.Connections {
			st.Connections = append(st.Connections, string(c))
		}
		n.Stations = append(n.Stations, st)
	}
	for _, r := range doc.Data.Routes {
		rt := Route{
			Name:     r.Name,
			Color:    string(r.Color),
			Type:     r.Type,
			Stations: make([]RouteStation, 0, len(r.Stations)),
		}
		for _, rs := range r.Stations {
			rt.Stations = append(rt.Stations, RouteStation{ID: string(rs.ID), X: rs.X, Y: rs.Y, Z: rs.Z})
		}
		n.Routes = append(n.Routes, rt)
	}
	return n, nil
}

// ImportJSON reads the feed document stored at path.
func ImportJSON(path string) (Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return Network{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes n in the feed envelope format accepted by [ReadJSON].
func WriteJSON(w io.Writer, n Network) error {
	env := struct {
		Data Network `json:"data"`
	}{Data: n}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// Marshal returns the feed envelope encoding of n. It is used to derive
// content hashes for caching.
func Marshal(n Network) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
