package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/pipeline"
	"github.com/matzehuels/railmap/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output             string // output file path (or base path for multiple outputs)
	formats            string // comma-separated: dot, svg, png, json
	hideNames          bool   // omit station labels
	stationConnections bool   // draw plain station links as dashed edges
}

// renderCommand creates the render command for drawing a saved map model.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [map.json]",
		Short: "Render a map model to DOT, SVG or PNG",
		Long: `Render draws a map model written by "railmap build". Stations are pinned
at their map positions and laid out with Graphviz neato.`,
		Example: `  railmap render map.json
  railmap render map.json -f svg,png -o out/map`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple); defaults to the input name")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, png, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.hideNames, "hide-names", false, "omit station names")
	cmd.Flags().BoolVar(&opts.stationConnections, "station-connections", false, "draw plain station links")
	registerFormatCompletion(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	formats := parseFormats(opts.formats, render.FormatSVG)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	m, err := readMap(input)
	if err != nil {
		return err
	}

	sw := startStopwatch(c.Logger)
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	artifacts, err := runner.Render(ctx, m, pipeline.Options{
		Formats:            formats,
		HideNames:          opts.hideNames,
		StationConnections: opts.stationConnections,
	})
	if err != nil {
		return err
	}
	sw.done("rendered map", "stations", len(m.Stations), "formats", formats)

	output := opts.output
	if output == "" {
		output = outputPath(input, formats[0], true)
	}
	paths, err := writeArtifacts(artifacts, formats, output)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", input)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// readMap loads a map model written by the build command.
func readMap(path string) (*mapmodel.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	m, err := render.UnmarshalMap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
