package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	rmerrors "github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/httputil"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/observability"
)

const sampleFeed = `{"data": {
	"stations": [{"id": "1", "name": "Central"}, {"id": "2", "name": "Harbour"}],
	"routes": [{"name": "Red", "color": 16711680, "type": "train_normal",
		"stations": [{"id": "1", "x": 0, "z": 0}, {"id": "2", "x": 10, "z": 0}]}]
}}`

func TestDataURL(t *testing.T) {
	tests := []struct {
		page    string
		want    string
		wantErr bool
	}{
		{"https://example.com/", "https://example.com/mtr/api/data/stations-and-routes", false},
		{"https://example.com/index.html", "https://example.com/mtr/api/data/stations-and-routes", false},
		{"http://localhost:8888/map/index.html", "http://localhost:8888/map/mtr/api/data/stations-and-routes", false},
		{"https://example.com/map/?station=1#top", "https://example.com/map/mtr/api/data/stations-and-routes", false},
		{"https://example.com/map", "https://example.com/map/mtr/api/data/stations-and-routes", false},
		{"https://example.com", "https://example.com/mtr/api/data/stations-and-routes", false},
		{"ftp://example.com/", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := DataURL(tt.page)
		if (err != nil) != tt.wantErr {
			t.Errorf("DataURL(%q) error = %v, wantErr %v", tt.page, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DataURL(%q) = %q, want %q", tt.page, got, tt.want)
		}
	}
}

func TestDataURLErrorCode(t *testing.T) {
	_, err := DataURL("not a url")
	if !rmerrors.Is(err, rmerrors.ErrCodeInvalidInput) {
		t.Errorf("error code = %v, want %v", rmerrors.GetCode(err), rmerrors.ErrCodeInvalidInput)
	}
}

func testClient(server *httptest.Server) *Client {
	c := NewClient(time.Second, 3, map[string]string{"X-Test": "yes"})
	c.http = server.Client()
	c.backoff.Delay = time.Millisecond
	c.backoff.MaxDelay = 5 * time.Millisecond
	return c
}

func TestClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.Header.Get("X-Test") != "yes" {
			t.Error("client headers not sent")
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent not set")
		}
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	n, err := testClient(server).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(n.Stations) != 2 || len(n.Routes) != 1 {
		t.Fatalf("Fetch() = %d stations, %d routes", len(n.Stations), len(n.Routes))
	}
	if n.Routes[0].Color != "16711680" {
		t.Errorf("route color = %q", n.Routes[0].Color)
	}
}

func TestClientFetchRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	if _, err := testClient(server).Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantCalls int32
		retryable bool
	}{
		{"NotFound", http.StatusNotFound, "", ErrNotFound, 1, false},
		{"BadRequest", http.StatusBadRequest, "", ErrNetwork, 1, false},
		{"ServerError", http.StatusInternalServerError, "", ErrNetwork, 3, true},
		{"BadJSON", http.StatusOK, "{", network.ErrDecode, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testClient(server).Fetch(context.Background(), server.URL)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if httputil.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", httputil.IsRetryable(err), tt.retryable)
			}
			if n := calls.Load(); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	if _, err := testClient(server).Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"7", 7 * time.Second},
		{"-3", 0},
		{"soon", 0},
		{"Mon, 02 Jan 2006 15:04:05 GMT", 0},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.header); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
	if got := retryAfter(time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)); got <= 58*time.Minute {
		t.Errorf("retryAfter(date in an hour) = %v", got)
	}
}

func TestClientFetchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testClient(server).FetchRaw(ctx, server.URL); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchRaw() error = %v, want context.Canceled", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(0, 0, nil)
	if c.http.Timeout != DefaultTimeout || c.backoff.Attempts != DefaultAttempts {
		t.Errorf("NewClient(0, 0) = timeout %v, attempts %d", c.http.Timeout, c.backoff.Attempts)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	requests  atomic.Int32
	responses atomic.Int32
	lastCode  atomic.Int32
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string, string) {
	h.requests.Add(1)
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _, _ string, code int, _ time.Duration) {
	h.responses.Add(1)
	h.lastCode.Store(int32(code))
}

func TestClientHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, _ = testClient(server).FetchRaw(context.Background(), server.URL)
	if hooks.requests.Load() != 1 || hooks.responses.Load() != 1 || hooks.lastCode.Load() != http.StatusNotFound {
		t.Errorf("hooks saw %d requests, %d responses, last status %d",
			hooks.requests.Load(), hooks.responses.Load(), hooks.lastCode.Load())
	}
}
