package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// newHTTPClient assembles the transport stack shared by every GitHub call.
// From the outside in: a static-token oauth2 layer, the secondary rate limit
// waiter, and a retrying core that re-issues a failed request up to
// cfg.MaxAttempts times in total with a fixed pause between attempts. Each
// individual attempt is bounded by cfg.AttemptTimeout, so a stalled attempt
// cannot eat the budget of the ones after it.
func newHTTPClient(token string, cfg Config) (*http.Client, error) {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxAttempts - 1
	rc.RetryWaitMin = cfg.RetryDelay
	rc.RetryWaitMax = cfg.RetryDelay
	rc.Backoff = fixedBackoff
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = passthroughErrorHandler
	rc.Logger = nil
	rc.HTTPClient = &http.Client{Timeout: cfg.AttemptTimeout}

	waiter, err := github_ratelimit.NewRateLimitWaiter(
		&retryablehttp.RoundTripper{Client: rc},
		github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   waiter,
			Source: ts,
		},
	}, nil
}

// retryPolicy retries any outcome other than a clean 200. Every endpoint the
// collector touches is an idempotent GET, so re-issuing a request that died
// on the wire or came back with an error status is always safe.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return true, nil
	}
	return false, nil
}

// fixedBackoff pauses the same duration between attempts no matter how many
// have already failed.
func fixedBackoff(min, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return min
}

// passthroughErrorHandler hands the final response and error back unchanged
// once attempts are exhausted, leaving status interpretation to the API
// client instead of the retry layer.
func passthroughErrorHandler(resp *http.Response, err error, _ int) (*http.Response, error) {
	return resp, err
}
