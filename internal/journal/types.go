// Package journal defines the core types and interfaces shared across the
// crawler subsystems: the persisted record, fetch request/response shapes, and
// the small interfaces the pipeline is wired together with.
package journal

import (
	"net/http"
	"time"
)

// Record is the unit of persistence: one row per unique journal title.
// Nullable columns are pointer-typed so that an absent or unparseable field is
// stored as SQL NULL, never as a zero value that could be mistaken for a real
// measurement.
type Record struct {
	ID                      int64
	JournalTitle            string
	AimsAndScope            *string
	ISSN                    *string
	SubjectAreas            *string
	ImpactFactor            *float64
	CiteScore               *float64
	APC                     *float64
	TimeToFirstDecision     *int
	ReviewTime              *int
	SubmissionToAcceptance  *int
	AcceptanceToPublication *int
	AcceptanceRate          *float64
	AbstractingIndexing     *string
	ShopURL                 string
	ScienceDirectURL        string
	CreatedAt               time.Time
}

// FetchRequest captures everything needed to retrieve one page.
type FetchRequest struct {
	URL       string
	Headers   http.Header
	RenderJS  bool
	UserAgent string
}

// FetchResponse is the result of a fetch attempt. A response with OK=false and
// an empty body is the sentinel returned after the retry budget is exhausted;
// callers treat it as "skip this page", not as a fatal condition.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	OK         bool
}

// Counters tracks per-run outcomes for the crawl summary.
type Counters struct {
	Processed int
	Inserted  int
	Skipped   int
	Failed    int
}
