package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/railmap/pkg/cache"
	"github.com/matzehuels/railmap/pkg/feed"
	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/observability"
	"github.com/matzehuels/railmap/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Client overrides the feed client built from Options.Timeout and
	// Options.Attempts.
	Client *feed.Client

	// FeedTTL and MapTTL default to cache.TTLFeed and cache.TTLMap.
	FeedTTL time.Duration
	MapTTL  time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		FeedTTL: cache.TTLFeed,
		MapTTL:  cache.TTLMap,
	}
}

// Execute runs the complete fetch → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}
	logger := opts.Logger.With("run", result.RunID)

	// Stage 1: Fetch
	fetchStart := time.Now()
	f, feedHit, err := r.FetchWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	result.Feed = f
	result.Stats.FeedBytes = f.Size
	result.Stats.FetchTime = time.Since(fetchStart)
	result.CacheInfo.FeedHit = feedHit

	logger.Info("fetched feed",
		"stations", len(f.Network.Stations),
		"routes", len(f.Network.Routes),
		"bytes", f.Size,
		"cached", feedHit,
		"duration", result.Stats.FetchTime)

	// Stage 2: Build
	buildStart := time.Now()
	result.Selection = opts.Selection(f.Network)
	m, mapHit, err := r.BuildMapWithCacheInfo(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Map = m
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.StationCount = len(m.Stations)
	result.Stats.ConnectionCount = len(m.Connections)
	result.Stats.StationConnectionCount = len(m.StationConnections)
	result.Stats.DiagnosticCount = len(m.Diagnostics)
	result.Stats.MaxConnectionLength = m.MaxConnectionLength
	result.CacheInfo.MapHit = mapHit

	logger.Info("built map",
		"route_types", result.Selection.Types(),
		"stations", len(m.Stations),
		"connections", len(m.Connections),
		"cached", mapHit,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := r.Render(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// FetchWithCacheInfo downloads the feed with caching and returns cache hit info.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, opts Options) (*Feed, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForFetch(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.FeedKey(opts.FeedURL)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, ok := r.cacheGet(ctx, keyTypeFeed, cacheKey); ok {
			n, err := network.ReadJSON(bytes.NewReader(data))
			if err == nil {
				return newFeed(opts.FeedURL, data, n), true, nil
			}
			opts.Logger.Debug("discarding unreadable cached feed", "key", cacheKey, "error", err)
		}
	}

	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, opts.FeedURL)
	start := time.Now()

	data, err := r.client(opts).FetchRaw(ctx, opts.FeedURL)
	if err != nil {
		hooks.OnFetchComplete(ctx, opts.FeedURL, 0, time.Since(start), err)
		return nil, false, err
	}
	n, err := network.ReadJSON(bytes.NewReader(data))
	hooks.OnFetchComplete(ctx, opts.FeedURL, len(data), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.cacheSet(ctx, keyTypeFeed, cacheKey, data, r.FeedTTL)
	return newFeed(opts.FeedURL, data, n), false, nil
}

// Fetch is a convenience wrapper that calls FetchWithCacheInfo and discards the cache hit info.
func (r *Runner) Fetch(ctx context.Context, opts Options) (*Feed, error) {
	f, _, err := r.FetchWithCacheInfo(ctx, opts)
	return f, err
}

// BuildMapWithCacheInfo derives the map model with caching and returns cache hit info.
// Diagnostics are logged at warn level; they never fail the build.
func (r *Runner) BuildMapWithCacheInfo(ctx context.Context, f *Feed, opts Options) (*mapmodel.Map, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBuild(); err != nil {
		return nil, false, err
	}

	sel := opts.Selection(f.Network)
	cacheKey := r.Keyer.MapKey(f.Hash, cache.MapKeyOpts{
		RouteTypes:      sel.Types(),
		OneWay:          !opts.DisableOneWay,
		DiagonalScaling: !opts.DisableDiagonalScaling,
		FormatVersion:   MapFormatVersion,
	})

	if !opts.Refresh {
		if data, ok := r.cacheGet(ctx, keyTypeMap, cacheKey); ok {
			m, err := render.UnmarshalMap(data)
			if err == nil {
				return m, true, nil
			}
			opts.Logger.Debug("discarding unreadable cached map", "key", cacheKey, "error", err)
		}
	}

	routes := network.Normalize(f.Network)
	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, sel.Types(), len(routes))
	start := time.Now()

	m := mapmodel.Build(routes, sel, opts.MapOptions())

	hooks.OnBuildComplete(ctx, len(m.Stations), len(m.Connections), len(m.Diagnostics), time.Since(start))
	for _, d := range m.Diagnostics {
		opts.Logger.Warn("map diagnostic", "kind", d.Kind, "message", d.Message)
	}

	if data, err := render.MarshalMap(m); err == nil {
		r.cacheSet(ctx, keyTypeMap, cacheKey, data, r.MapTTL)
	}
	return m, false, nil
}

// BuildMap is a convenience wrapper that calls BuildMapWithCacheInfo and discards the cache hit info.
func (r *Runner) BuildMap(ctx context.Context, f *Feed, opts Options) (*mapmodel.Map, error) {
	m, _, err := r.BuildMapWithCacheInfo(ctx, f, opts)
	return m, err
}

// Render generates artifacts in every requested format.
func (r *Runner) Render(ctx context.Context, m *mapmodel.Map, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	hooks := observability.Pipeline()
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		hooks.OnRenderStart(ctx, format)
		start := time.Now()
		data, err := Render(ctx, m, format, opts)
		hooks.OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) client(opts Options) *feed.Client {
	if r.Client != nil {
		return r.Client
	}
	return feed.NewClient(opts.Timeout, opts.Attempts, nil)
}

// Key types reported to observability.CacheHooks.
const (
	keyTypeFeed = "feed"
	keyTypeMap  = "map"
)

// cacheGet treats cache errors as misses; a broken cache never fails a run.
func (r *Runner) cacheGet(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

func (r *Runner) cacheSet(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache set failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func newFeed(url string, data []byte, n network.Network) *Feed {
	return &Feed{URL: url, Hash: cache.Hash(data), Size: len(data), Network: n}
}
