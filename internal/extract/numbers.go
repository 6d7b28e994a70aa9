package extract

import (
	"strconv"
	"strings"
)

var numberCleaner = strings.NewReplacer("$", "", ",", "", "%", "")

// parseFloat coerces price- and percent-styled text ("$1,234.50", "26%") into
// a float, returning nil when the text does not parse.
func parseFloat(raw string) *float64 {
	cleaned := strings.TrimSpace(numberCleaner.Replace(raw))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseDays reads the leading number out of a day-count phrase such as
// "17 days", returning nil when no number leads the text.
func parseDays(raw string) *int {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(numberCleaner.Replace(fields[0]), 64)
	if err != nil {
		return nil
	}
	d := int(v)
	return &d
}
