package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/render"
)

// Defaults for [Options].
const (
	DefaultScale       = 50.0 // world units per inch
	DefaultLineSpacing = 0.08 // inches between parallel lines
)

// Options configures DOT generation.
type Options struct {
	// Scale is the number of world units per inch of output.
	Scale float64

	// LineSpacing is the marker growth per extra parallel line, in inches.
	LineSpacing float64

	// HideNames drops station labels.
	HideNames bool

	// StationConnections adds the plain station links as dashed edges.
	StationConnections bool
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.LineSpacing <= 0 {
		o.LineSpacing = DefaultLineSpacing
	}
	return o
}

// ToDOT converts m to Graphviz DOT source. Positions are translated by the
// map's center and flipped on the z axis, since Graphviz's y axis points up.
func ToDOT(m *mapmodel.Map, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("graph railmap {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  inputscale=%s;\n", num(opts.Scale))
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, penwidth=2, fontsize=10, fixedsize=shape];\n")
	buf.WriteString("  edge [penwidth=3];\n")
	buf.WriteString("\n")

	for _, s := range m.Stations {
		x := s.X + m.CenterX
		y := 0 - (s.Z + m.CenterY)
		w, h := markerSize(s, opts)
		attrs := []string{
			fmt.Sprintf("pos=\"%s,%s!\"", num(x), num(y)),
			fmt.Sprintf("width=%s", num(w)),
			fmt.Sprintf("height=%s", num(h)),
			fmt.Sprintf("label=%q", label(s, opts)),
		}
		if s.Rotate {
			attrs = append(attrs, "orientation=45")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", s.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range m.Connections {
		for _, l := range c.Lines {
			attrs := []string{
				fmt.Sprintf("color=%q", render.Color(l.Route.Color)),
				fmt.Sprintf("tooltip=%q", l.Route.Type),
			}
			switch l.OneWay {
			case 1:
				attrs = append(attrs, "dir=forward", "arrowsize=0.5")
			case -1:
				attrs = append(attrs, "dir=back", "arrowsize=0.5")
			}
			fmt.Fprintf(&buf, "  %q -- %q [%s];\n", c.Pair.A, c.Pair.B, strings.Join(attrs, ", "))
		}
	}

	if opts.StationConnections && len(m.StationConnections) > 0 {
		buf.WriteString("\n")
		for _, c := range m.StationConnections {
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed, color=\"#aaaaaa\", penwidth=1];\n", c.Pair.A, c.Pair.B)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// markerSize converts a station's marker geometry to node inches.
func markerSize(s mapmodel.Station, opts Options) (w, h float64) {
	base := 2 * opts.LineSpacing
	w = base + s.Width*opts.LineSpacing
	h = base + s.Height*opts.LineSpacing
	return w, h
}

func label(s mapmodel.Station, opts Options) string {
	if opts.HideNames {
		return ""
	}
	// Multilingual names are separated by "|".
	return strings.ReplaceAll(s.Name, "|", "\n")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render lays out DOT source with neato and renders it as SVG or PNG.
func Render(ctx context.Context, dot string, format string) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case render.FormatSVG:
		gvFormat = graphviz.SVG
	case render.FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("unsupported graphviz format: %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == render.FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// RenderSVG is shorthand for Render(ctx, dot, render.FormatSVG).
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, render.FormatSVG)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg tag with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="100%%" preserveAspectRatio="xMidYMid meet">`, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
