package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/railmap/pkg/buildinfo"
	rmerrors "github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/httputil"
	"github.com/matzehuels/railmap/pkg/network"
	"github.com/matzehuels/railmap/pkg/observability"
)

// DataPath is the feed location relative to the map page.
const DataPath = "mtr/api/data/stations-and-routes"

// Defaults for [NewClient].
const (
	DefaultTimeout  = 10 * time.Second
	DefaultAttempts = 3

	// maxRetryWait caps how long a Retry-After header can stall a fetch.
	maxRetryWait = 30 * time.Second

	// maxBodySize bounds the feed download.
	maxBodySize = 64 << 20
)

var (
	// ErrNotFound is returned when the server has no feed at the URL.
	ErrNotFound = errors.New("feed not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// DataURL derives the feed URL from the URL of the page hosting the map:
// the page's origin and path, without a trailing "index.html", followed by
// [DataPath].
func DataURL(pageURL string) (string, error) {
	if err := rmerrors.ValidateURL(pageURL); err != nil {
		return "", err
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", rmerrors.Wrap(rmerrors.ErrCodeInvalidInput, err, "invalid page URL")
	}

	path := strings.Replace(u.Path, "index.html", "", 1)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return u.Scheme + "://" + u.Host + path + DataPath, nil
}

// Client fetches feeds over HTTP.
type Client struct {
	http    *http.Client
	headers map[string]string
	backoff httputil.Backoff
}

// NewClient creates a Client. A zero timeout or attempt count selects the
// default. Headers are applied to every request; nil is fine.
func NewClient(timeout time.Duration, attempts int, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		headers: headers,
		backoff: httputil.Backoff{
			Attempts: attempts,
			Delay:    time.Second,
			MaxDelay: maxRetryWait,
		},
	}
}

// FetchRaw downloads the feed document at url and returns its bytes.
func (c *Client) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := c.backoff.Do(ctx, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()

		data, err = io.ReadAll(io.LimitReader(body, maxBodySize))
		if err != nil {
			return httputil.Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Fetch downloads and decodes the feed at url.
func (c *Client) Fetch(ctx context.Context, url string) (network.Network, error) {
	data, err := c.FetchRaw(ctx, url)
	if err != nil {
		return network.Network{}, err
	}
	return network.ReadJSON(bytes.NewReader(data))
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}

	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		err := fmt.Errorf("%w: status %d", ErrNetwork, code)
		return httputil.RetryAfter(err, retryAfter(resp.Header.Get("Retry-After")))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP
// date. Anything unparseable, or in the past, is zero.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}
