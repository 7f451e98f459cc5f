package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railmap/pkg/cache"
	"github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/feed"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/pipeline"
	"github.com/matzehuels/railmap/pkg/render"
	"github.com/matzehuels/railmap/pkg/search"
)

const testFeed = `{"data": {
	"stations": [
		{"id": "1", "name": "Central"},
		{"id": "2", "name": "Harbour"},
		{"id": "3", "name": "Central Pier"}
	],
	"routes": [
		{"name": "Red Line", "color": 16711680, "type": "train_normal",
			"stations": [{"id": "1", "x": 0, "z": 0}, {"id": "2", "x": 10, "z": 0}]},
		{"name": "Ferry", "color": 255, "type": "boat_normal",
			"stations": [{"id": "2", "x": 10, "z": 0}, {"id": "3", "x": 10, "z": 20}]}
	]
}}`

type fixture struct {
	srv  *Server
	hits *atomic.Int32
	logs *bytes.Buffer
	feed *httptest.Server
	fail *atomic.Int32 // status code to return when non-zero
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{hits: &atomic.Int32{}, fail: &atomic.Int32{}, logs: &bytes.Buffer{}}
	f.feed = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if code := f.fail.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		w.Write([]byte(testFeed))
	}))
	t.Cleanup(f.feed.Close)

	logger := log.NewWithOptions(f.logs, log.Options{})
	mc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(mc, nil, logger)
	runner.Client = feed.NewClient(0, 1, nil)
	f.srv = New(runner, pipeline.Options{FeedURL: f.feed.URL}, logger)
	return f
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" || body["version"] == "" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q", got)
	}
	if !strings.Contains(f.logs.String(), "abc-123") {
		t.Errorf("request log missing ID:\n%s", f.logs.String())
	}
}

func TestMapJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/api/map")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Run-ID") == "" || rec.Header().Get("X-Cache") != "miss" {
		t.Errorf("headers = %v", rec.Header())
	}
	m, err := render.UnmarshalMap(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Stations) != 2 || len(m.Connections) != 1 {
		t.Errorf("map has %d stations, %d connections", len(m.Stations), len(m.Connections))
	}

	again := f.get(t, "/api/map")
	if again.Header().Get("X-Cache") != "hit" {
		t.Errorf("second request X-Cache = %q", again.Header().Get("X-Cache"))
	}
	if f.hits.Load() != 1 {
		t.Errorf("feed fetched %d times", f.hits.Load())
	}
}

func TestMapTypes(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/api/map?types=train_normal,boat_normal",
		"/api/map?types=boat_normal&types=train_normal",
		"/api/map.json?types=train_normal,boat_normal,train_normal",
	} {
		rec := f.get(t, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
		m, err := render.UnmarshalMap(rec.Body.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		if len(m.Stations) != 3 {
			t.Errorf("%s: %d stations, want 3", target, len(m.Stations))
		}
	}
}

func TestMapDOT(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/api/map.dot?names=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "graph railmap {") || strings.Contains(body, "Central") {
		t.Errorf("body = %s", body)
	}
}

func TestMapBadRequests(t *testing.T) {
	tests := []struct {
		target string
		status int
		code   errors.Code
	}{
		{"/api/map.pdf", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"/api/map?types=Train", http.StatusBadRequest, errors.ErrCodeInvalidRouteType},
		{"/api/map?one_way=maybe", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/search?q=a&limit=0", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/search?q=a&routes=perhaps", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/api/search?q=" + strings.Repeat("a", 300), http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	f := newFixture(t)
	for _, tt := range tests {
		rec := f.get(t, tt.target)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.target, rec.Code, tt.status)
			continue
		}
		body := decode[errorBody](t, rec)
		if body.Error.Code != tt.code || body.Error.RequestID == "" {
			t.Errorf("%s: body = %+v", tt.target, body)
		}
	}
}

func TestMapUpstreamFailure(t *testing.T) {
	tests := []struct {
		upstream int
		code     errors.Code
	}{
		{http.StatusNotFound, errors.ErrCodeNotFound},
		{http.StatusBadGateway, errors.ErrCodeNetwork},
		{http.StatusForbidden, errors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.upstream), func(t *testing.T) {
			f := newFixture(t)
			f.fail.Store(int32(tt.upstream))
			rec := f.get(t, "/api/map")
			if rec.Code != http.StatusBadGateway {
				t.Fatalf("status = %d, want 502", rec.Code)
			}
			if body := decode[errorBody](t, rec); body.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.code)
			}
		})
	}
}

func TestRouteTypes(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/api/route-types")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[struct {
		Types   []string `json:"types"`
		Default []string `json:"default"`
	}](t, rec)
	if len(body.Types) != 2 || len(body.Default) != 1 || body.Default[0] != "train_normal" {
		t.Errorf("body = %+v", body)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/search?q=central")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	res := decode[search.Results](t, rec)
	if len(res.Stations) != 2 || res.Stations[0].Name != "Central" || len(res.Routes) != 0 {
		t.Errorf("results = %+v", res)
	}

	res = decode[search.Results](t, f.get(t, "/api/search?q=line&routes=true"))
	if len(res.Routes) != 1 || res.Routes[0].Name != "Red Line" {
		t.Errorf("route results = %+v", res.Routes)
	}

	res = decode[search.Results](t, f.get(t, "/api/search?q=central&limit=1"))
	if len(res.Stations) != 1 {
		t.Errorf("limit ignored: %+v", res.Stations)
	}

	res = decode[search.Results](t, f.get(t, "/api/search"))
	if res.Len() != 0 {
		t.Errorf("empty query = %+v", res)
	}
}

func TestSearchIndexReused(t *testing.T) {
	f := newFixture(t)
	a, err := f.srv.searchIndex(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.srv.searchIndex(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("index rebuilt for unchanged feed")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errors.New(errors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeRateLimited, "x"), http.StatusTooManyRequests},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{fmt.Errorf("fetch: %w", network.ErrDecode), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := classify(tt.err); got != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
