// Package extract parses journal pages into typed fields. Every extraction is
// independently fault tolerant: a missing or malformed region yields a nil
// field, never an error, so a sparse page degrades to a record with nulls.
package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Insights holds the fields parsed from a journal's publication-insights page.
type Insights struct {
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
}

// metricRule binds a metric-box label to the Insights field it populates.
// Labels are matched by substring against the full text of each box, so
// surrounding markup and footnote markers do not break the lookup.
type metricRule struct {
	label  string
	assign func(ins *Insights, raw string)
}

var metricRules = []metricRule{
	{"Impact Factor", func(ins *Insights, raw string) { ins.ImpactFactor = parseFloat(raw) }},
	{"CiteScore", func(ins *Insights, raw string) { ins.CiteScore = parseFloat(raw) }},
	{"Time to first decision", func(ins *Insights, raw string) { ins.TimeToFirstDecision = parseDays(raw) }},
	{"Review time", func(ins *Insights, raw string) { ins.ReviewTime = parseDays(raw) }},
	{"Submission to acceptance", func(ins *Insights, raw string) { ins.SubmissionToAcceptance = parseDays(raw) }},
	{"Acceptance to publication", func(ins *Insights, raw string) { ins.AcceptanceToPublication = parseDays(raw) }},
	{"Acceptance rate", func(ins *Insights, raw string) { ins.AcceptanceRate = parseFloat(raw) }},
}

// Document parses raw markup into a goquery document.
func Document(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// ParseInsights extracts all insight fields from the parsed page.
func ParseInsights(doc *goquery.Document) Insights {
	var ins Insights
	for _, rule := range metricRules {
		if raw, ok := metricValue(doc, rule.label); ok {
			rule.assign(&ins, raw)
		}
	}
	ins.ISSN = issn(doc)
	ins.SubjectAreas = subjectAreas(doc)
	ins.APC = apc(doc)
	ins.AbstractingIndexing = abstractingIndexing(doc)
	return ins
}

// metricValue scans the metric boxes for one whose text contains the label and
// returns the emphasized value text next to it.
func metricValue(doc *goquery.Document, label string) (string, bool) {
	var (
		raw   string
		found bool
	)
	doc.Find("div.metric-box").EachWithBreak(func(_ int, box *goquery.Selection) bool {
		if !strings.Contains(box.Text(), label) {
			return true
		}
		raw = strings.TrimSpace(box.Find(".metric-value").First().Text())
		found = true
		return false
	})
	return raw, found
}

func issn(doc *goquery.Document) *string {
	sel := doc.Find("span.js-issn").First()
	if sel.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return nil
	}
	return &text
}

// subjectAreas scans the labeled row sections for the "Subject areas" heading
// and reads the sibling value cell. Unlike the other fields it falls back to
// the literal "N/A" rather than null; downstream consumers rely on that.
func subjectAreas(doc *goquery.Document) *string {
	value := "N/A"
	doc.Find("div.row-section").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		heading := strings.TrimSpace(row.Find("h3").First().Text())
		if heading != "Subject areas" {
			return true
		}
		value = strings.TrimSpace(row.Find(".row-value").First().Text())
		return false
	})
	return &value
}

func apc(doc *goquery.Document) *float64 {
	sel := doc.Find("span.apc-amount").First()
	if sel.Length() == 0 {
		return nil
	}
	return parseFloat(sel.Text())
}

// abstractingIndexing joins the listed indexing services into one
// comma-separated string. An empty string (not null) means none were listed.
func abstractingIndexing(doc *goquery.Document) *string {
	var services []string
	doc.Find("section.abstracting-indexing li").Each(func(_ int, item *goquery.Selection) {
		if text := strings.TrimSpace(item.Text()); text != "" {
			services = append(services, text)
		}
	})
	joined := strings.Join(services, ", ")
	return &joined
}
