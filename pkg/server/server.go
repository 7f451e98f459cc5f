// Package server exposes the map pipeline over HTTP.
//
// Routes:
//
//	GET /healthz              build information
//	GET /api/route-types      route types in the feed and the default selection
//	GET /api/map              map model as JSON
//	GET /api/map.{format}     map rendered as json, dot, svg or png
//	GET /api/search?q=...     station and route search
//
// Map endpoints accept the query parameters types (comma separated or
// repeated), one_way, diagonal_scaling, names, station_connections and
// refresh. Concurrent requests for the same map share one pipeline run.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/matzehuels/railmap/pkg/buildinfo"
	"github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/mapmodel"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/pipeline"
	"github.com/matzehuels/railmap/pkg/render"
	"github.com/matzehuels/railmap/pkg/search"
)

// maxSearchLimit caps the limit query parameter of /api/search.
const maxSearchLimit = 100

// Server serves maps built by a pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	logger   *log.Logger
	router   chi.Router

	builds singleflight.Group

	mu        sync.Mutex
	indexHash string
	index     *search.Index
}

// New creates a server. defaults supplies the feed location and the build
// options that requests do not override.
func New(runner *pipeline.Runner, defaults pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:   runner,
		defaults: defaults,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/route-types", s.handleRouteTypes)
		r.Get("/map", s.handleMap)
		r.Get("/map.{format}", s.handleMap)
		r.Get("/search", s.handleSearch)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleRouteTypes(w http.ResponseWriter, r *http.Request) {
	opts := s.defaults
	f, err := s.runner.Fetch(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	order := opts.RouteTypeOrder
	if len(order) == 0 {
		order = network.DefaultRouteTypeOrder
	}
	available := network.RouteTypes(f.Network)
	if available == nil {
		available = []string{}
	}
	writeJSON(w, http.StatusOK, struct {
		Types   []string `json:"types"`
		Default []string `json:"default"`
	}{available, mapmodel.DefaultSelection(available, order).Types()})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format == "" {
		format = render.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts, err := s.mapOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("X-Run-ID", res.RunID)
	w.Header().Set("X-Feed-Hash", res.Feed.Hash)
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Artifacts[format])
}

// execute runs the pipeline, sharing the run between identical concurrent
// requests. The shared run is detached from any single request's
// cancellation.
func (s *Server) execute(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	key, err := json.Marshal(opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode options")
	}
	ch := s.builds.DoChan(string(key), func() (any, error) {
		return s.runner.Execute(context.WithoutCancel(ctx), opts)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pipeline.Result), nil
	}
}

func (s *Server) mapOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	q := r.URL.Query()

	if types := splitList(q["types"]); len(types) > 0 {
		if err := errors.ValidateRouteTypes(types); err != nil {
			return opts, err
		}
		slices.Sort(types)
		opts.RouteTypes = slices.Compact(types)
	}

	flags := []struct {
		name   string
		target *bool
		invert bool
	}{
		{"one_way", &opts.DisableOneWay, true},
		{"diagonal_scaling", &opts.DisableDiagonalScaling, true},
		{"names", &opts.HideNames, true},
		{"station_connections", &opts.StationConnections, false},
		{"refresh", &opts.Refresh, false},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean", f.name)
		}
		*f.target = b != f.invert
	}
	return opts, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if err := errors.ValidateQuery(query); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := search.Options{Limit: maxSearchLimit}
	if v := q.Get("routes"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "routes must be a boolean"))
			return
		}
		opts.IncludeRoutes = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		opts.Limit = min(n, maxSearchLimit)
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		opts.Language = tags[0]
	}

	ix, err := s.searchIndex(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ix.Search(query, opts))
}

// searchIndex returns an index over the current feed, rebuilding it when the
// feed content changes.
func (s *Server) searchIndex(ctx context.Context) (*search.Index, error) {
	f, err := s.runner.Fetch(ctx, s.defaults)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil || s.indexHash != f.Hash {
		s.index = search.NewIndex(f.Network)
		s.indexHash = f.Hash
	}
	return s.index, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func cacheHeader(info pipeline.CacheInfo) string {
	switch {
	case info.MapHit:
		return "hit"
	case info.FeedHit:
		return "feed"
	default:
		return "miss"
	}
}
