// Package cli implements the railmap command-line interface.
//
// The commands are:
//   - build: Fetch a feed (or read a saved one) and write the map model
//   - render: Render a saved map model as DOT, SVG or PNG
//   - stations: List the stations of a map in a table
//   - search: Search stations and routes, interactively without a query
//   - serve: Run the HTTP API
//   - cache: Manage the cache
//
// All commands support --verbose (-v) for debug-level logging and --config
// for a TOML or YAML configuration file.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railmap/pkg/buildinfo"
	"github.com/matzehuels/railmap/pkg/cache"
	"github.com/matzehuels/railmap/pkg/config"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/observability"
	"github.com/matzehuels/railmap/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "railmap"

	// envConfig names a config file when --config is not given.
	envConfig = "RAILMAP_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Railmap derives schematic transit maps from station and route feeds",
		Long:         `Railmap fetches a stations-and-routes feed, bundles parallel routes into map connections and renders the result as JSON, DOT, SVG or PNG.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.toml, .yaml); defaults to $"+envConfig)

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.stationsCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the config file named by --config or $RAILMAP_CONFIG.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv(envConfig)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	observability.SetCacheHooks(observability.NewLogCacheHooks(c.Logger))
	observability.SetHTTPHooks(observability.NewLogHTTPHooks(c.Logger))

	r := pipeline.NewRunner(cc, cfg.Keyer(), c.Logger)
	r.FeedTTL = cfg.Cache.FeedTTL
	r.MapTTL = cfg.Cache.MapTTL
	return r, nil
}

// newCache opens the configured cache. Without a configured backend the CLI
// falls back to a file cache in the user cache directory.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	opts := cfg.CacheOptions()
	if opts.Backend == "" || opts.Backend == cache.BackendNone {
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		opts.Backend, opts.Dir = cache.BackendFile, dir
	}
	c.Logger.Debug("opening cache", "backend", opts.Backend)
	return cache.Open(ctx, opts)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/railmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// feedFlags are the flags shared by commands that fetch a feed.
type feedFlags struct {
	feedURL    string
	pageURL    string
	routeTypes []string
	noOneWay   bool
	noDiagonal bool
	refresh    bool
	noCache    bool
}

func (f *feedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.feedURL, "feed-url", "", "stations-and-routes feed URL")
	cmd.Flags().StringVar(&f.pageURL, "page-url", "", "URL of the map page; the feed URL is derived from it")
	cmd.Flags().StringSliceVarP(&f.routeTypes, "types", "t", nil, "route types to include (comma-separated); default: first known type in the feed")
	cmd.Flags().BoolVar(&f.noOneWay, "no-one-way", false, "report every line as two-way")
	cmd.Flags().BoolVar(&f.noDiagonal, "no-diagonal-scaling", false, "size diagonal stations like axis-aligned ones")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached feed and map")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("types", completeList(network.DefaultRouteTypeOrder))
}

// pipelineOptions merges config values and flags. Flags win.
func (f *feedFlags) pipelineOptions(cfg config.Config, logger *log.Logger) pipeline.Options {
	opts := pipelineOptions(cfg, logger)
	if f.feedURL != "" || f.pageURL != "" {
		opts.FeedURL, opts.PageURL = f.feedURL, f.pageURL
	}
	if len(f.routeTypes) > 0 {
		opts.RouteTypes = f.routeTypes
	}
	opts.DisableOneWay = opts.DisableOneWay || f.noOneWay
	opts.DisableDiagonalScaling = opts.DisableDiagonalScaling || f.noDiagonal
	opts.Refresh = f.refresh
	return opts
}

// pipelineOptions converts the config into pipeline options.
func pipelineOptions(cfg config.Config, logger *log.Logger) pipeline.Options {
	return pipeline.Options{
		FeedURL:                cfg.Feed.URL,
		PageURL:                cfg.Feed.PageURL,
		Timeout:                cfg.Feed.Timeout,
		Attempts:               cfg.Feed.Attempts,
		RouteTypes:             cfg.Map.RouteTypes,
		RouteTypeOrder:         cfg.Map.RouteTypeOrder,
		DisableOneWay:          !cfg.Map.OneWay,
		DisableDiagonalScaling: !cfg.Map.DiagonalScaling,
		Logger:                 logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, strings.ToLower(f))
		}
	}
	return formats
}

// outputPath returns the file for format given the -o flag: the flag itself
// for a single format, otherwise the flag's base name with the format as
// extension.
func outputPath(output, format string, multiple bool) string {
	if !multiple {
		return output
	}
	return strings.TrimSuffix(output, filepath.Ext(output)) + "." + format
}
