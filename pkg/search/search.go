// Package search finds stations and routes by name.
//
// Matching is a case-insensitive substring test. Results are ordered by the
// position of the match within the name, so prefix matches come first, then
// by name in Unicode collation order, then by color. Routes that appear
// several times in the feed (one entry per direction, say) are listed once
// per name and color.
package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matzehuels/railmap/pkg/network"
)

// Kind tells stations and routes apart in results.
type Kind string

const (
	KindStation Kind = "station"
	KindRoute   Kind = "route"
)

// Result is one match.
type Result struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id,omitempty"` // station ID; empty for routes
	Name  string `json:"name"`
	Color string `json:"color"`
	Type  string `json:"type,omitempty"` // route type; empty for stations
	Index int    `json:"index"`          // rune offset of the match in Name
}

// Results groups matches by kind.
type Results struct {
	Stations []Result `json:"stations"`
	Routes   []Result `json:"routes"`
}

// Len returns the total number of matches.
func (r Results) Len() int { return len(r.Stations) + len(r.Routes) }

type entry struct {
	Result
	lower string
}

// Options tunes a search.
type Options struct {
	// IncludeRoutes adds route matches.
	IncludeRoutes bool

	// Limit caps each result list when positive.
	Limit int

	// Language selects the collation for ordering names. The zero value is
	// the root collation.
	Language language.Tag
}

// Index is a searchable snapshot of a network. It is safe for concurrent
// use.
type Index struct {
	stations []entry
	routes   []entry
}

// NewIndex indexes the stations and routes of n.
func NewIndex(n network.Network) *Index {
	ix := &Index{}

	seenStations := make(map[string]bool, len(n.Stations))
	for _, s := range n.Stations {
		if seenStations[s.ID] {
			continue
		}
		seenStations[s.ID] = true
		ix.stations = append(ix.stations, newEntry(Result{Kind: KindStation, ID: s.ID, Name: s.Name, Color: s.Color}))
	}

	type routeIdentity struct{ name, color string }
	seenRoutes := make(map[routeIdentity]bool, len(n.Routes))
	for _, r := range n.Routes {
		id := routeIdentity{r.Name, r.Color}
		if r.Name == "" || seenRoutes[id] {
			continue
		}
		seenRoutes[id] = true
		ix.routes = append(ix.routes, newEntry(Result{Kind: KindRoute, Name: r.Name, Color: r.Color, Type: r.Type}))
	}
	return ix
}

func newEntry(r Result) entry {
	return entry{Result: r, lower: strings.ToLower(r.Name)}
}

// Search returns the matches for query. An empty query matches nothing.
func (ix *Index) Search(query string, opts Options) Results {
	out := Results{Stations: []Result{}, Routes: []Result{}}
	if query == "" {
		return out
	}
	q := strings.ToLower(query)
	c := collate.New(opts.Language)

	out.Stations = match(ix.stations, q, c, opts.Limit)
	if opts.IncludeRoutes {
		out.Routes = match(ix.routes, q, c, opts.Limit)
	}
	return out
}

func match(entries []entry, q string, c *collate.Collator, limit int) []Result {
	results := []Result{}
	for _, e := range entries {
		i := strings.Index(e.lower, q)
		if i < 0 {
			continue
		}
		r := e.Result
		r.Index = utf8.RuneCountInString(e.lower[:i])
		results = append(results, r)
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		if a.Index != b.Index {
			return cmp.Compare(a.Index, b.Index)
		}
		if n := c.CompareString(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.Color, b.Color)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
