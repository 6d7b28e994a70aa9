// Package crawl drives a full catalog run: page the journal search API,
// assemble a record per listing, persist it, and announce new rows.
package crawl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/litmetrics/journal-crawler/internal/catalog"
	"github.com/litmetrics/journal-crawler/internal/journal"
	"github.com/litmetrics/journal-crawler/internal/metrics"
)

// Searcher pages through the publisher's journal catalog.
type Searcher interface {
	Search(ctx context.Context, query string, page int) ([]catalog.Listing, error)
}

// Assembler builds one record from a shop URL.
type Assembler interface {
	Assemble(ctx context.Context, shopURL string) (journal.Record, error)
}

// InsertedEvent is the payload published for every newly stored journal.
type InsertedEvent struct {
	RunID        string `json:"run_id"`
	JournalTitle string `json:"journal_title"`
	RecordID     int64  `json:"record_id"`
	ShopURL      string `json:"shop_url"`
	Timestamp    string `json:"timestamp"`
}

// Config selects the catalog slice a run covers.
type Config struct {
	Query     string
	StartPage int
	EndPage   int
	// Topic names the destination for inserted events.
	Topic string
	RunID string
}

// Runner executes one crawl over the configured page range.
type Runner struct {
	searcher  Searcher
	assembler Assembler
	store     journal.Store
	publisher journal.Publisher
	clock     journal.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Runner. publisher may be nil when no event sink is
// configured.
func New(searcher Searcher, assembler Assembler, store journal.Store, publisher journal.Publisher, clock journal.Clock, cfg Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		searcher:  searcher,
		assembler: assembler,
		store:     store,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run walks the page range and processes every listing. Per-journal failures
// are counted and logged, never fatal; the run only aborts when the context
// is cancelled.
func (r *Runner) Run(ctx context.Context) (journal.Counters, error) {
	var counters journal.Counters

	for page := r.cfg.StartPage; page <= r.cfg.EndPage; page++ {
		if err := ctx.Err(); err != nil {
			return counters, fmt.Errorf("crawl interrupted: %w", err)
		}

		listings, err := r.searcher.Search(ctx, r.cfg.Query, page)
		if err != nil {
			metrics.ObserveCatalogPage("error")
			r.logger.Error("catalog search failed",
				zap.Int("page", page),
				zap.Error(err),
			)
			continue
		}
		if len(listings) == 0 {
			metrics.ObserveCatalogPage("empty")
			r.logger.Info("catalog page empty, stopping early", zap.Int("page", page))
			break
		}
		metrics.ObserveCatalogPage("ok")
		r.logger.Info("catalog page fetched",
			zap.Int("page", page),
			zap.Int("listings", len(listings)),
		)

		for _, listing := range listings {
			if err := ctx.Err(); err != nil {
				return counters, fmt.Errorf("crawl interrupted: %w", err)
			}
			r.processListing(ctx, listing, &counters)
		}
	}

	r.logger.Info("crawl finished",
		zap.String("run_id", r.cfg.RunID),
		zap.Int("processed", counters.Processed),
		zap.Int("inserted", counters.Inserted),
		zap.Int("skipped", counters.Skipped),
		zap.Int("failed", counters.Failed),
	)
	return counters, nil
}

func (r *Runner) processListing(ctx context.Context, listing catalog.Listing, counters *journal.Counters) {
	counters.Processed++

	record, err := r.assembler.Assemble(ctx, listing.URL)
	if err != nil {
		counters.Failed++
		metrics.ObserveJournal("failed")
		r.logger.Warn("journal assembly failed",
			zap.String("url", listing.URL),
			zap.String("catalog_title", listing.Title),
			zap.Error(err),
		)
		return
	}

	id, inserted, err := r.store.UpsertIfAbsent(ctx, record)
	if err != nil {
		counters.Failed++
		metrics.ObserveJournal("failed")
		r.logger.Error("journal persist failed",
			zap.String("journal", record.JournalTitle),
			zap.Error(err),
		)
		return
	}
	if !inserted {
		counters.Skipped++
		metrics.ObserveJournal("skipped")
		r.logger.Debug("journal already stored",
			zap.String("journal", record.JournalTitle),
			zap.Int64("id", id),
		)
		return
	}

	counters.Inserted++
	metrics.ObserveJournal("inserted")
	r.logger.Info("journal stored",
		zap.String("journal", record.JournalTitle),
		zap.Int64("id", id),
	)

	if r.publisher == nil {
		return
	}
	event := InsertedEvent{
		RunID:        r.cfg.RunID,
		JournalTitle: record.JournalTitle,
		RecordID:     id,
		ShopURL:      record.ShopURL,
		Timestamp:    r.clock.Now().Format(time.RFC3339),
	}
	if _, err := r.publisher.Publish(ctx, r.cfg.Topic, event); err != nil {
		// The row is stored; a lost notification is not a crawl failure.
		r.logger.Warn("publish inserted event",
			zap.String("journal", record.JournalTitle),
			zap.Error(err),
		)
	}
}
