package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/observability"
	"github.com/matzehuels/railmap/pkg/pipeline"
	"github.com/matzehuels/railmap/pkg/render"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	feedFlags
	input              string // saved feed document instead of a download
	output             string // output file (or base path for multiple formats)
	formats            string // comma-separated output formats
	hideNames          bool
	stationConnections bool
}

// buildCommand creates the build command: feed → map model (+ renders).
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the map model from a stations-and-routes feed",
		Long: `Build fetches the stations-and-routes feed, derives the map model for the
selected route types and writes it as JSON. Other formats (dot, svg, png)
can be written in the same run.`,
		Example: `  railmap build --page-url https://map.example.net/ -o map.json
  railmap build --input feed.json -t train_normal,boat_normal -f json,svg -o out/map`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "read the feed from a file instead of downloading it")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "map.json", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), dot, svg, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.hideNames, "hide-names", false, "omit station names in rendered output")
	cmd.Flags().BoolVar(&opts.stationConnections, "station-connections", false, "draw plain station links in rendered output")
	registerFormatCompletion(cmd)

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, opts *buildOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	popts := opts.pipelineOptions(cfg, c.Logger)
	popts.Formats = parseFormats(opts.formats, render.FormatJSON)
	popts.HideNames = opts.hideNames
	popts.StationConnections = opts.stationConnections
	if err := pipeline.ValidateFormats(popts.Formats); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := c.startSpinner(ctx, "Starting")
	res, err := c.build(ctx, runner, opts.input, popts)
	if err != nil {
		spinner.StopWithError(err.Error())
		return err
	}
	spinner.Stop()

	printBuildSummary(res)
	paths, err := writeArtifacts(res.Artifacts, popts.Formats, opts.output)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	if len(popts.Formats) == 1 && popts.Formats[0] == render.FormatJSON && opts.output != "-" {
		printNextStep("Render it", "railmap render "+opts.output+" -f svg")
	}
	return nil
}

// build runs the pipeline, reading the feed from input when given.
func (c *CLI) build(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) (*pipeline.Result, error) {
	if input == "" {
		return runner.Execute(ctx, opts)
	}

	sw := startStopwatch(c.Logger)
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	f, err := pipeline.NewFeed(input, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	m, hit, err := runner.BuildMapWithCacheInfo(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	artifacts, err := runner.Render(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	sw.done("built map", "feed", input, "stations", len(m.Stations), "connections", len(m.Connections))

	return &pipeline.Result{
		Feed:      f,
		Selection: opts.Selection(f.Network),
		Map:       m,
		Artifacts: artifacts,
		Stats:     statsOf(m, f),
		CacheInfo: pipeline.CacheInfo{MapHit: hit},
	}, nil
}

// startSpinner shows pipeline progress on stderr when it is a terminal. The
// returned spinner must be stopped; it also removes the stage hooks.
func (c *CLI) startSpinner(ctx context.Context, message string) *Spinner {
	s := newSpinner(ctx, os.Stderr, message)
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return s
	}
	observability.SetPipelineHooks(stageHooks{spinner: s})
	go func() {
		<-s.ctx.Done()
		observability.Reset()
	}()
	s.Start()
	return s
}

func statsOf(m *mapmodel.Map, f *pipeline.Feed) pipeline.Stats {
	return pipeline.Stats{
		FeedBytes:              f.Size,
		StationCount:           len(m.Stations),
		ConnectionCount:        len(m.Connections),
		StationConnectionCount: len(m.StationConnections),
		DiagnosticCount:        len(m.Diagnostics),
		MaxConnectionLength:    m.MaxConnectionLength,
	}
}

func printBuildSummary(res *pipeline.Result) {
	printSuccess("Built map for %s", StyleHighlight.Render(fmt.Sprint(res.Selection.Types())))
	fmt.Println(statsLine(res.Stats.StationCount, res.Stats.ConnectionCount, res.CacheInfo.MapHit))
	if res.Stats.MaxConnectionLength > 0 {
		printDetail("Longest connection: %g", res.Stats.MaxConnectionLength)
	}
	if n := res.Stats.DiagnosticCount; n > 0 && res.Map != nil {
		printWarning("%d data problems: %s", n, diagnosticSummary(res.Map.Diagnostics))
	}
}

// writeArtifacts writes each format to its output path and returns the
// paths in format order. An output of "-" writes a single format to stdout.
func writeArtifacts(artifacts map[string][]byte, formats []string, output string) ([]string, error) {
	multiple := len(formats) > 1
	if output == "-" {
		if multiple {
			return nil, fmt.Errorf("cannot write %d formats to stdout", len(formats))
		}
		_, err := os.Stdout.Write(artifacts[formats[0]])
		return nil, err
	}

	var paths []string
	for _, format := range formats {
		path := outputPath(output, format, multiple)
		if err := writeFile(path, artifacts[format]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
