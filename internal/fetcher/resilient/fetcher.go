// Package resilient wraps a low-level fetcher with status classification,
// exponential backoff and access-key rotation.
package resilient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/litmetrics/journal-crawler/internal/journal"
	"github.com/litmetrics/journal-crawler/internal/keyring"
	"github.com/litmetrics/journal-crawler/internal/metrics"
)

// SleepFunc waits for the given duration or until the context finishes.
// Injected so tests can observe delays without waiting them out.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config controls retry behavior and the proxy endpoint requests go through.
type Config struct {
	// Endpoint is the rendering/fetch proxy. When empty, requests go straight
	// to the target URL (local rendering deployments).
	Endpoint    string
	RenderJS    bool
	MaxAttempts int
	BackoffBase time.Duration
}

// Fetcher retries classified failures around an inner journal.Fetcher.
//
// Classification per attempt:
//   - 401/403: rotate the access key and retry immediately; once the ring
//     reports a full cycle the keys are exhausted and the fetch is terminal.
//   - 429/500: exponential backoff (base * 2^attempt), same key.
//   - other non-2xx: same backoff path. The upstream implementation retried
//     these immediately, which amounts to a retry storm; treating them as the
//     500 class is deliberate.
//   - transport errors: same backoff path.
//
// Exhausting the budget yields a sentinel response with OK=false and an empty
// body; callers skip the page rather than fail the run.
type Fetcher struct {
	inner  journal.Fetcher
	ring   *keyring.Ring
	cfg    Config
	sleep  SleepFunc
	logger *zap.Logger
}

// New builds a Fetcher. A nil logger is replaced with a no-op one.
func New(inner journal.Fetcher, ring *keyring.Ring, cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &Fetcher{
		inner:  inner,
		ring:   ring,
		cfg:    cfg,
		sleep:  defaultSleep,
		logger: logger,
	}
}

// WithSleep overrides the wait function. Intended for tests.
func (f *Fetcher) WithSleep(sleep SleepFunc) *Fetcher {
	f.sleep = sleep
	return f
}

// Fetch retrieves the target URL through the proxy endpoint, retrying up to
// the configured budget. The returned error is non-nil only when the context
// finished; every other failure mode degrades to the OK=false sentinel.
func (f *Fetcher) Fetch(ctx context.Context, request journal.FetchRequest) (journal.FetchResponse, error) {
	f.ring.Reset()

	for attempt := 0; attempt < f.cfg.MaxAttempts; attempt++ {
		proxied := request
		proxied.URL = f.requestURL(request.URL, f.ring.Current(), f.cfg.RenderJS || request.RenderJS)

		start := time.Now()
		resp, err := f.inner.Fetch(ctx, proxied)
		latency := time.Since(start)

		if err != nil {
			metrics.ObserveFetchAttempt("network", latency)
			f.logger.Warn("fetch attempt failed",
				zap.String("url", request.URL),
				zap.Int("attempt", attempt+1),
				zap.Duration("latency", latency),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return sentinel(request.URL), ctx.Err()
			}
			if done := f.backoff(ctx, attempt); done != nil {
				return sentinel(request.URL), done
			}
			continue
		}

		metrics.ObserveFetchAttempt(statusClass(resp.StatusCode), latency)
		f.logger.Debug("fetch attempt",
			zap.String("url", request.URL),
			zap.Int("attempt", attempt+1),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", latency),
		)

		switch {
		case resp.OK:
			resp.URL = request.URL
			return resp, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			metrics.ObserveKeyRotation()
			if cycled := f.ring.Rotate(); cycled {
				f.logger.Error("access keys exhausted", zap.String("url", request.URL))
				return sentinel(request.URL), nil
			}
			// Fresh key, no delay: quota exhaustion, not a transient fault.

		default:
			if attempt < f.cfg.MaxAttempts-1 {
				if done := f.backoff(ctx, attempt); done != nil {
					return sentinel(request.URL), done
				}
			}
		}
	}

	f.logger.Warn("fetch retries exhausted",
		zap.String("url", request.URL),
		zap.Int("attempts", f.cfg.MaxAttempts),
	)
	return sentinel(request.URL), nil
}

func (f *Fetcher) backoff(ctx context.Context, attempt int) error {
	delay := f.cfg.BackoffBase * (1 << attempt)
	metrics.ObserveBackoffDelay(delay)
	return f.sleep(ctx, delay)
}

// requestURL wraps the target in a proxy-service request carrying the access
// key and rendering flag.
func (f *Fetcher) requestURL(target, key string, renderJS bool) string {
	if f.cfg.Endpoint == "" {
		return target
	}
	q := url.Values{}
	q.Set("api_key", key)
	q.Set("url", target)
	q.Set("render_js", strconv.FormatBool(renderJS))
	return f.cfg.Endpoint + "?" + q.Encode()
}

func sentinel(target string) journal.FetchResponse {
	return journal.FetchResponse{
		URL:     target,
		Headers: http.Header{},
		Body:    []byte{},
		OK:      false,
	}
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
