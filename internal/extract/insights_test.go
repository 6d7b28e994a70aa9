package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const insightsPage = `
<html><body>
<div class="journal-metrics">
  <div class="metric-box"><span class="metric-label">CiteScore</span><span class="metric-value">3.2</span></div>
  <div class="metric-box"><span class="metric-label">Impact Factor</span><span class="metric-value">1.8</span></div>
  <div class="metric-box"><span class="metric-label">Time to first decision</span><span class="metric-value">17 days</span></div>
  <div class="metric-box"><span class="metric-label">Review time</span><span class="metric-value">94 days</span></div>
  <div class="metric-box"><span class="metric-label">Acceptance rate</span><span class="metric-value">26%</span></div>
  <div class="metric-box"><span class="metric-label">Submission to acceptance</span><span class="metric-value">N/A</span></div>
</div>
<span class="js-issn"> 0012-3456 </span>
<div class="row-section"><h3>Publication schedule</h3><div class="row-value">Monthly</div></div>
<div class="row-section"><h3>Subject areas</h3><div class="row-value">Chemistry; Materials Science</div></div>
<span class="apc-amount">$1,234.50</span>
<section class="abstracting-indexing">
  <ul><li> Scopus </li><li>Web of Science</li><li></li></ul>
</section>
</body></html>`

func TestParseInsights_FullPage(t *testing.T) {
	t.Parallel()
	doc, err := Document([]byte(insightsPage))
	require.NoError(t, err)

	ins := ParseInsights(doc)

	require.NotNil(t, ins.CiteScore)
	require.InDelta(t, 3.2, *ins.CiteScore, 0.0001)
	require.NotNil(t, ins.ImpactFactor)
	require.InDelta(t, 1.8, *ins.ImpactFactor, 0.0001)
	require.NotNil(t, ins.TimeToFirstDecision)
	require.Equal(t, 17, *ins.TimeToFirstDecision)
	require.NotNil(t, ins.ReviewTime)
	require.Equal(t, 94, *ins.ReviewTime)
	require.NotNil(t, ins.AcceptanceRate)
	require.InDelta(t, 26, *ins.AcceptanceRate, 0.0001)

	// Box present but value not numeric.
	require.Nil(t, ins.SubmissionToAcceptance)
	// No box at all.
	require.Nil(t, ins.AcceptanceToPublication)

	require.NotNil(t, ins.ISSN)
	require.Equal(t, "0012-3456", *ins.ISSN)
	require.NotNil(t, ins.SubjectAreas)
	require.Equal(t, "Chemistry; Materials Science", *ins.SubjectAreas)
	require.NotNil(t, ins.APC)
	require.InDelta(t, 1234.5, *ins.APC, 0.0001)
	require.NotNil(t, ins.AbstractingIndexing)
	require.Equal(t, "Scopus, Web of Science", *ins.AbstractingIndexing)
}

func TestParseInsights_EmptyPageDegradesToNulls(t *testing.T) {
	t.Parallel()
	doc, err := Document([]byte(`<html><body><p>nothing here</p></body></html>`))
	require.NoError(t, err)

	ins := ParseInsights(doc)

	require.Nil(t, ins.CiteScore)
	require.Nil(t, ins.ImpactFactor)
	require.Nil(t, ins.APC)
	require.Nil(t, ins.ISSN)
	require.Nil(t, ins.TimeToFirstDecision)

	// Intentional asymmetries: subject areas fall back to the literal "N/A",
	// the indexing list to an empty string.
	require.NotNil(t, ins.SubjectAreas)
	require.Equal(t, "N/A", *ins.SubjectAreas)
	require.NotNil(t, ins.AbstractingIndexing)
	require.Equal(t, "", *ins.AbstractingIndexing)
}

func TestParseInsights_UnparseableAPC(t *testing.T) {
	t.Parallel()
	doc, err := Document([]byte(`<html><body><span class="apc-amount">N/A</span></body></html>`))
	require.NoError(t, err)

	ins := ParseInsights(doc)
	require.Nil(t, ins.APC)
}

func TestParseAimsAndScope(t *testing.T) {
	t.Parallel()
	doc, err := Document([]byte(`<html><body><section class="aims-and-scope">
		The journal publishes original research.
	</section></body></html>`))
	require.NoError(t, err)

	text := ParseAimsAndScope(doc)
	require.NotNil(t, text)
	require.Equal(t, "The journal publishes original research.", *text)
}

func TestParseAimsAndScope_Absent(t *testing.T) {
	t.Parallel()
	doc, err := Document([]byte(`<html><body><section class="other"></section></body></html>`))
	require.NoError(t, err)
	require.Nil(t, ParseAimsAndScope(doc))
}
