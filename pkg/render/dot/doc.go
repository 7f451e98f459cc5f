// Package dot renders a map model as a Graphviz diagram.
//
// [ToDOT] emits an undirected graph in which every station is a node pinned
// at its map position and every line on a connection is its own edge,
// colored by route. Station sizes follow the derived marker geometry, so
// busy interchanges are drawn wider. One-way lines get an arrow in their
// direction of travel.
//
//	src := dot.ToDOT(m, dot.Options{})
//	svg, err := dot.Render(ctx, src, render.FormatSVG)
//
// Rendering runs Graphviz in-process through [github.com/goccy/go-graphviz]
// with the neato engine, which honors pinned positions.
package dot
