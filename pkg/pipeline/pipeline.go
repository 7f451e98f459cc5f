// Package pipeline provides the core map pipeline for railmap.
//
// This package implements the complete fetch → build → render pipeline that
// is shared by the CLI and the HTTP server, so both entry points cache, log
// and validate the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: Download the stations-and-routes feed (or read it from cache)
//  2. Build: Derive the map model for the selected route types
//  3. Render: Encode the map in the requested formats (JSON, DOT, SVG, PNG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    PageURL:    "https://map.example.net/index.html",
//	    RouteTypes: []string{"train_normal"},
//	    Formats:    []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	f, err := runner.Fetch(ctx, opts)
//	m, err := runner.BuildMap(ctx, f, opts)
//	artifacts, err := runner.Render(ctx, m, opts)
package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/feed"
	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/render"
)

// MapFormatVersion is part of every map cache key. Bump it whenever the
// encoded map changes shape so stale entries are ignored.
const MapFormatVersion = 1

// DefaultFormats is used when Options.Formats is empty.
var DefaultFormats = []string{render.FormatJSON}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	render.FormatJSON: true,
	render.FormatDOT:  true,
	render.FormatSVG:  true,
	render.FormatPNG:  true,
}

// Options contains all configuration for the map pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Fetch options. FeedURL wins over PageURL; PageURL is turned into a
	// feed URL with feed.DataURL.
	FeedURL  string        `json:"feed_url,omitempty"`
	PageURL  string        `json:"page_url,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty"`
	Attempts int           `json:"attempts,omitempty"`
	Refresh  bool          `json:"refresh,omitempty"`

	// Build options. An empty RouteTypes selects the first available type
	// of RouteTypeOrder.
	RouteTypes             []string `json:"route_types,omitempty"`
	RouteTypeOrder         []string `json:"route_type_order,omitempty"`
	DisableOneWay          bool     `json:"disable_one_way,omitempty"`
	DisableDiagonalScaling bool     `json:"disable_diagonal_scaling,omitempty"`

	// Render options
	Formats            []string `json:"formats,omitempty"`
	HideNames          bool     `json:"hide_names,omitempty"`
	StationConnections bool     `json:"station_connections,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Feed is a downloaded and decoded network.
type Feed struct {
	URL     string
	Hash    string // content hash of the raw document
	Size    int
	Network network.Network
}

// NewFeed decodes a feed document obtained outside the runner, such as a
// saved file. source is recorded as the feed URL.
func NewFeed(source string, data []byte) (*Feed, error) {
	n, err := network.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return newFeed(source, data, n), nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// Feed is the fetched network and its content hash.
	Feed *Feed

	// Selection is the route type selection the map was built for.
	Selection mapmodel.Selection

	// Map is the derived map model.
	Map *mapmodel.Map

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FeedBytes              int
	StationCount           int
	ConnectionCount        int
	StationConnectionCount int
	DiagnosticCount        int
	MaxConnectionLength    float64
	FetchTime              time.Duration
	BuildTime              time.Duration
	RenderTime             time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FeedHit bool // Whether the feed came from cache
	MapHit  bool // Whether the map model came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForFetch(); err != nil {
		return err
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForFetch resolves the feed URL and applies fetch defaults.
func (o *Options) ValidateForFetch() error {
	if o.FeedURL == "" {
		if o.PageURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "feed_url or page_url is required")
		}
		u, err := feed.DataURL(o.PageURL)
		if err != nil {
			return err
		}
		o.FeedURL = u
	}
	if err := errors.ValidateURL(o.FeedURL); err != nil {
		return err
	}
	if o.Timeout <= 0 {
		o.Timeout = feed.DefaultTimeout
	}
	if o.Attempts <= 0 {
		o.Attempts = feed.DefaultAttempts
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForBuild checks the route type selection.
func (o *Options) ValidateForBuild() error {
	if err := errors.ValidateRouteTypes(o.RouteTypes); err != nil {
		return err
	}
	if len(o.RouteTypeOrder) == 0 {
		o.RouteTypeOrder = network.DefaultRouteTypeOrder
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForRender checks the output formats.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return fmt.Errorf("render options: %w", err)
	}
	return nil
}

// MapOptions converts the build toggles for mapmodel.Build.
func (o Options) MapOptions() mapmodel.Options {
	return mapmodel.Options{
		DisableOneWay:          o.DisableOneWay,
		DisableDiagonalScaling: o.DisableDiagonalScaling,
	}
}

// Selection returns the route types to build for n.
func (o Options) Selection(n network.Network) mapmodel.Selection {
	if len(o.RouteTypes) > 0 {
		return mapmodel.NewSelection(o.RouteTypes...)
	}
	return mapmodel.DefaultSelection(network.RouteTypes(n), o.RouteTypeOrder)
}
