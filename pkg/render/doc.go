// Package render turns a derived [mapmodel.Map] into output artifacts.
//
// # Formats
//
//   - json: the map model itself, see [MarshalMap]
//   - dot: Graphviz source with pinned station positions, see [dot.ToDOT]
//   - svg, png: the DOT source laid out by Graphviz, see [dot.Render]
//
// This package holds the format names and the JSON codec. The Graphviz
// renderer lives in the [dot] subpackage.
//
// # Colors
//
// The feed encodes route colors as decimal RGB integers. [Color] converts
// them to the "#rrggbb" form used by SVG and terminal styling.
//
// [dot]: github.com/matzehuels/railmap/pkg/render/dot
// [dot.ToDOT]: github.com/matzehuels/railmap/pkg/render/dot#ToDOT
// [dot.Render]: github.com/matzehuels/railmap/pkg/render/dot#Render
package render
