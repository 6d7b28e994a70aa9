package assemble

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/litmetrics/journal-crawler/internal/journal"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// pageFetcher serves canned bodies by URL; unknown URLs get the failed
// sentinel response. The two sub-pages are fetched concurrently, hence the
// mutex around calls.
type pageFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *pageFetcher) Fetch(_ context.Context, req journal.FetchRequest) (journal.FetchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.URL)
	f.mu.Unlock()
	body, ok := f.pages[req.URL]
	if !ok {
		return journal.FetchResponse{URL: req.URL, Headers: http.Header{}, Body: []byte{}, OK: false}, nil
	}
	return journal.FetchResponse{
		URL:        req.URL,
		StatusCode: 200,
		Headers:    http.Header{},
		Body:       []byte(body),
		OK:         true,
	}, nil
}

func TestTitleFromURL(t *testing.T) {
	t.Parallel()
	title, err := TitleFromURL("https://shop.example.com/journals/foo-journal/0012-3456")
	require.NoError(t, err)
	require.Equal(t, "foo-journal", title)

	// Deterministic and idempotent.
	again, err := TitleFromURL("https://shop.example.com/journals/foo-journal/0012-3456")
	require.NoError(t, err)
	require.Equal(t, title, again)
}

func TestTitleFromURL_Missing(t *testing.T) {
	t.Parallel()
	_, err := TitleFromURL("https://shop.example.com/books/something")
	require.ErrorIs(t, err, ErrMissingTitle)
}

func TestAssemble_EndToEnd(t *testing.T) {
	t.Parallel()
	shopURL := "https://shop.example.com/journals/foo-journal/0012-3456"
	insightsURL := "https://insights.example.com/journal/foo-journal"

	fetcher := &pageFetcher{pages: map[string]string{
		shopURL: `<html><body><section class="aims-and-scope">Original research on foo.</section></body></html>`,
		insightsURL: `<html><body>
			<div class="metric-box"><span class="metric-label">CiteScore</span><span class="metric-value">3.2</span></div>
		</body></html>`,
	}}
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	a := New(fetcher, &fakeClock{now: now}, Config{
		InsightsURLTemplate: "https://insights.example.com/journal/%s",
	}, nil)

	rec, err := a.Assemble(context.Background(), shopURL)
	require.NoError(t, err)

	require.Equal(t, "foo-journal", rec.JournalTitle)
	require.NotNil(t, rec.AimsAndScope)
	require.Equal(t, "Original research on foo.", *rec.AimsAndScope)
	require.NotNil(t, rec.CiteScore)
	require.InDelta(t, 3.2, *rec.CiteScore, 0.0001)
	require.Nil(t, rec.ISSN)
	require.Equal(t, shopURL, rec.ShopURL)
	require.Equal(t, insightsURL, rec.ScienceDirectURL)
	require.Equal(t, now, rec.CreatedAt)
	require.Len(t, fetcher.calls, 2)
}

func TestAssemble_FailedSubFetchContributesNulls(t *testing.T) {
	t.Parallel()
	shopURL := "https://shop.example.com/journals/bar-journal/"

	// Neither sub-page resolves; assembly still succeeds with nulls.
	fetcher := &pageFetcher{pages: map[string]string{}}
	a := New(fetcher, &fakeClock{now: time.Now()}, Config{}, nil)

	rec, err := a.Assemble(context.Background(), shopURL)
	require.NoError(t, err)
	require.Equal(t, "bar-journal", rec.JournalTitle)
	require.Nil(t, rec.AimsAndScope)
	require.Nil(t, rec.CiteScore)
	require.Nil(t, rec.SubjectAreas)
	require.Nil(t, rec.AbstractingIndexing)
}

func TestAssemble_MissingTitleAborts(t *testing.T) {
	t.Parallel()
	fetcher := &pageFetcher{pages: map[string]string{}}
	a := New(fetcher, &fakeClock{now: time.Now()}, Config{}, nil)

	_, err := a.Assemble(context.Background(), "https://shop.example.com/nothing-here")
	require.ErrorIs(t, err, ErrMissingTitle)
	require.Empty(t, fetcher.calls)
}
