// Package httputil holds the retry policy of the feed client.
//
// A [Backoff] re-runs an operation while it fails with a [RetryableError],
// doubling the wait each time. The feed client marks connection failures,
// 5xx responses and 429 responses as retryable; a 429 or 503 with a
// Retry-After header stretches the next wait to what the server asked for,
// up to [Backoff.MaxDelay].
//
//	b := httputil.Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}
//	err := b.Do(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
package httputil
