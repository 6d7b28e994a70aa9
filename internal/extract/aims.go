package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseAimsAndScope returns the trimmed text of the aims-and-scope section, or
// nil when the page does not carry one.
func ParseAimsAndScope(doc *goquery.Document) *string {
	sel := doc.Find("section.aims-and-scope").First()
	if sel.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return nil
	}
	return &text
}
