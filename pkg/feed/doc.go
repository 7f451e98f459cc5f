// Package feed downloads the transit network from a map server.
//
// A map server publishes its network as a JSON document under
// mtr/api/data/stations-and-routes, relative to the page that hosts the map.
// [DataURL] derives that address from a page URL, and [Client] fetches it
// with retries on transient failures:
//
//	url, err := feed.DataURL("https://example.com/map/index.html")
//	// https://example.com/map/mtr/api/data/stations-and-routes
//	n, err := feed.NewClient(10*time.Second, 3, nil).Fetch(ctx, url)
//
// Network failures, 5xx and 429 responses are retried with an
// [httputil.Backoff] that honors Retry-After; a 404 yields [ErrNotFound] at
// once.
package feed
