package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/render"
	"github.com/matzehuels/railmap/pkg/render/dot"
)

// Render encodes m in a single format.
func Render(ctx context.Context, m *mapmodel.Map, format string, opts Options) ([]byte, error) {
	switch format {
	case render.FormatJSON:
		return render.MarshalMap(m)
	case render.FormatDOT:
		return []byte(dot.ToDOT(m, dotOptions(opts))), nil
	case render.FormatSVG, render.FormatPNG:
		return dot.Render(ctx, dot.ToDOT(m, dotOptions(opts)), format)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func dotOptions(opts Options) dot.Options {
	return dot.Options{
		HideNames:          opts.HideNames,
		StationConnections: opts.StationConnections,
	}
}
