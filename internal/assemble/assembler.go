// Package assemble composes one journal record from its two sub-pages: the
// shop page carrying aims & scope and the publication-insights page carrying
// the bibliometric statistics.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/litmetrics/journal-crawler/internal/extract"
	"github.com/litmetrics/journal-crawler/internal/journal"
)

// ErrMissingTitle reports a shop URL without a journals/<title>/ path segment.
// It is the only per-journal failure that aborts assembly; a failed sub-fetch
// just contributes nulls.
var ErrMissingTitle = errors.New("journal title not found in source URL")

var titlePattern = regexp.MustCompile(`journals/([^/]+)/`)

const defaultInsightsTemplate = "https://www.sciencedirect.com/journal/%s/about/insights"

// Config controls URL construction for the insights sub-page.
type Config struct {
	// InsightsURLTemplate must contain one %s, replaced with the title slug.
	InsightsURLTemplate string
}

// Assembler fetches and merges the two sub-pages of a journal.
type Assembler struct {
	fetcher journal.Fetcher
	clock   journal.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs an Assembler. A nil logger is replaced with a no-op one.
func New(fetcher journal.Fetcher, clock journal.Clock, cfg Config, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.InsightsURLTemplate == "" {
		cfg.InsightsURLTemplate = defaultInsightsTemplate
	}
	return &Assembler{
		fetcher: fetcher,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// TitleFromURL derives the unique journal title from the shop URL path.
func TitleFromURL(shopURL string) (string, error) {
	m := titlePattern.FindStringSubmatch(shopURL)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingTitle, shopURL)
	}
	return m[1], nil
}

// Assemble builds the record for one shop URL. The aims sub-page is fetched
// concurrently with the insights sub-page; both complete before the merge.
func (a *Assembler) Assemble(ctx context.Context, shopURL string) (journal.Record, error) {
	title, err := TitleFromURL(shopURL)
	if err != nil {
		return journal.Record{}, err
	}

	aimsCh := make(chan *string, 1)
	go func() {
		aimsCh <- a.fetchAims(ctx, shopURL)
	}()

	insightsURL := fmt.Sprintf(a.cfg.InsightsURLTemplate, title)
	ins := a.fetchInsights(ctx, insightsURL)
	aims := <-aimsCh

	return journal.Record{
		JournalTitle:            title,
		AimsAndScope:            aims,
		ISSN:                    ins.ISSN,
		SubjectAreas:            ins.SubjectAreas,
		ImpactFactor:            ins.ImpactFactor,
		CiteScore:               ins.CiteScore,
		APC:                     ins.APC,
		TimeToFirstDecision:     ins.TimeToFirstDecision,
		ReviewTime:              ins.ReviewTime,
		SubmissionToAcceptance:  ins.SubmissionToAcceptance,
		AcceptanceToPublication: ins.AcceptanceToPublication,
		AcceptanceRate:          ins.AcceptanceRate,
		AbstractingIndexing:     ins.AbstractingIndexing,
		ShopURL:                 shopURL,
		ScienceDirectURL:        insightsURL,
		CreatedAt:               a.clock.Now(),
	}, nil
}

func (a *Assembler) fetchAims(ctx context.Context, url string) *string {
	doc, ok := a.fetchDocument(ctx, url)
	if !ok {
		return nil
	}
	return extract.ParseAimsAndScope(doc)
}

// fetchInsights returns a zero-valued Insights when the sub-fetch or parse
// fails: an all-null contribution, not an error.
func (a *Assembler) fetchInsights(ctx context.Context, url string) extract.Insights {
	doc, ok := a.fetchDocument(ctx, url)
	if !ok {
		return extract.Insights{}
	}
	return extract.ParseInsights(doc)
}

func (a *Assembler) fetchDocument(ctx context.Context, url string) (*goquery.Document, bool) {
	resp, err := a.fetcher.Fetch(ctx, journal.FetchRequest{URL: url, RenderJS: true})
	if err != nil {
		a.logger.Warn("sub-page fetch failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	if !resp.OK {
		a.logger.Warn("sub-page unavailable, fields degrade to null",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return nil, false
	}
	parsed, err := extract.Document(resp.Body)
	if err != nil {
		a.logger.Warn("sub-page parse failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	return parsed, true
}
