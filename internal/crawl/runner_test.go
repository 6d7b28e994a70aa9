package crawl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/litmetrics/journal-crawler/internal/catalog"
	"github.com/litmetrics/journal-crawler/internal/journal"
	"github.com/litmetrics/journal-crawler/internal/metrics"
	mempub "github.com/litmetrics/journal-crawler/internal/publisher/memory"
	memstore "github.com/litmetrics/journal-crawler/internal/store/memory"
)

type fakeSearcher struct {
	pages map[int][]catalog.Listing
	errs  map[int]error
	calls []int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, page int) ([]catalog.Listing, error) {
	f.calls = append(f.calls, page)
	if err := f.errs[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

type fakeAssembler struct {
	fail map[string]error
}

func (f *fakeAssembler) Assemble(_ context.Context, shopURL string) (journal.Record, error) {
	if err := f.fail[shopURL]; err != nil {
		return journal.Record{}, err
	}
	title := shopURL[len("https://shop.example.com/journals/") : len(shopURL)-1]
	return journal.Record{JournalTitle: title, ShopURL: shopURL}, nil
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

func listing(title string) catalog.Listing {
	return catalog.Listing{
		URL:   "https://shop.example.com/journals/" + title + "/",
		Title: title,
	}
}

func newRunner(searcher Searcher, assembler Assembler, store journal.Store, pub journal.Publisher, cfg Config) *Runner {
	metrics.Init()
	cfg.Topic = "journal-inserted"
	if cfg.RunID == "" {
		cfg.RunID = "run-1"
	}
	clock := fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(searcher, assembler, store, pub, clock, cfg, nil)
}

func TestRun_InsertsAndPublishes(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int][]catalog.Listing{
		1: {listing("journal-a"), listing("journal-b")},
	}}
	store := memstore.New()
	pub := mempub.New()

	runner := newRunner(searcher, &fakeAssembler{}, store, pub, Config{StartPage: 1, EndPage: 1})
	counters, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, counters.Processed)
	require.Equal(t, 2, counters.Inserted)
	require.Equal(t, 0, counters.Skipped)
	require.Equal(t, 0, counters.Failed)
	require.Equal(t, 2, store.Len())

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "journal-inserted", msgs[0].Topic)
	event, ok := msgs[0].Payload.(InsertedEvent)
	require.True(t, ok)
	require.Equal(t, "run-1", event.RunID)
	require.Equal(t, "journal-a", event.JournalTitle)
	require.Equal(t, "2025-06-01T12:00:00Z", event.Timestamp)
}

func TestRun_SkipsDuplicatesAcrossPages(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int][]catalog.Listing{
		1: {listing("journal-a")},
		2: {listing("journal-a")},
	}}
	store := memstore.New()
	pub := mempub.New()

	runner := newRunner(searcher, &fakeAssembler{}, store, pub, Config{StartPage: 1, EndPage: 2})
	counters, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, counters.Processed)
	require.Equal(t, 1, counters.Inserted)
	require.Equal(t, 1, counters.Skipped)
	require.Equal(t, 1, store.Len())
	// Only the insert is announced.
	require.Len(t, pub.Messages(), 1)
}

func TestRun_AssemblyFailureIsContained(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int][]catalog.Listing{
		1: {listing("journal-a"), listing("broken"), listing("journal-b")},
	}}
	assembler := &fakeAssembler{fail: map[string]error{
		"https://shop.example.com/journals/broken/": errors.New("title not found"),
	}}
	store := memstore.New()

	runner := newRunner(searcher, assembler, store, nil, Config{StartPage: 1, EndPage: 1})
	counters, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, counters.Processed)
	require.Equal(t, 2, counters.Inserted)
	require.Equal(t, 1, counters.Failed)
	require.Equal(t, 2, store.Len())
}

func TestRun_CatalogErrorSkipsPage(t *testing.T) {
	searcher := &fakeSearcher{
		pages: map[int][]catalog.Listing{2: {listing("journal-a")}},
		errs:  map[int]error{1: errors.New("gateway timeout")},
	}
	store := memstore.New()

	runner := newRunner(searcher, &fakeAssembler{}, store, nil, Config{StartPage: 1, EndPage: 2})
	counters, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []int{1, 2}, searcher.calls)
	require.Equal(t, 1, counters.Inserted)
}

func TestRun_EmptyPageStopsEarly(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int][]catalog.Listing{
		1: {listing("journal-a")},
		// Page 2 returns no listings; page 3 must never be requested.
		3: {listing("journal-b")},
	}}
	store := memstore.New()

	runner := newRunner(searcher, &fakeAssembler{}, store, nil, Config{StartPage: 1, EndPage: 3})
	counters, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []int{1, 2}, searcher.calls)
	require.Equal(t, 1, counters.Inserted)
}

func TestRun_CancelledContextAborts(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int][]catalog.Listing{1: {listing("journal-a")}}}
	store := memstore.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newRunner(searcher, &fakeAssembler{}, store, nil, Config{StartPage: 1, EndPage: 1})
	_, err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, searcher.calls)
}
