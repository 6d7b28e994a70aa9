// Package collyfetcher implements journal.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/litmetrics/journal-crawler/internal/journal"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs a single HTTP GET per call. Retry, backoff and key
// rotation live one layer up; this client only reports what one attempt saw.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled transport.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	// The fetch endpoint is an API surface, not a crawl target.
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes one HTTP GET. A response that arrived with a non-2xx status
// is returned with OK=false and a nil error so the caller can classify the
// status; only transport-level failures surface as errors.
func (f *Fetcher) Fetch(ctx context.Context, request journal.FetchRequest) (journal.FetchResponse, error) {
	var (
		result   journal.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(request, start, &result, &fetchErr)

	visitErr, err := f.runCollector(ctx, collector, request.URL)
	if err != nil {
		return journal.FetchResponse{}, err
	}
	if result.StatusCode == 0 {
		// Nothing came back at all: transport failure, DNS error, bad URL.
		if fetchErr != nil {
			return journal.FetchResponse{}, fmt.Errorf("fetch %s: %w", request.URL, fetchErr)
		}
		if visitErr != nil {
			return journal.FetchResponse{}, fmt.Errorf("fetch %s: %w", request.URL, visitErr)
		}
		return journal.FetchResponse{}, fmt.Errorf("fetch %s: no response", request.URL)
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	request journal.FetchRequest,
	start time.Time,
	result *journal.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	userAgent := request.UserAgent
	if userAgent == "" {
		userAgent = f.cfg.UserAgent
	}
	if userAgent != "" {
		collector.UserAgent = userAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range request.Headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		*result = journal.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
			OK:         true,
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			headers := http.Header{}
			if r.Headers != nil {
				headers = r.Headers.Clone()
			}
			*result = journal.FetchResponse{
				URL:        request.URL,
				StatusCode: r.StatusCode,
				Headers:    headers,
				Body:       append([]byte(nil), r.Body...),
				Duration:   time.Since(start),
				OK:         false,
			}
		}
		*fetchErr = err
	})

	return collector
}

// runCollector visits the URL on a goroutine so the select can honor context
// cancellation. Visit also errors for non-2xx statuses; those are surfaced
// through the OnError hook instead and classified by the caller.
func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) (visitErr, err error) {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case verr := <-done:
		return verr, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
