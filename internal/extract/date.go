package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numericDateRe   = regexp.MustCompile(`\b(\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}[-/]\d{1,2}[-/]\d{2,4})\b`)
	monthNameDateRe = regexp.MustCompile(`(?i)(\d{1,2})\s+([a-zA-Zéûà]+)\s+(\d{4})`)
	dateSeparatorRe = regexp.MustCompile(`[-/]`)
)

// dateKeywords flag lines likely to carry the invoice date (French/English).
var dateKeywords = []string{"date", "du", "le"}

// extractDate scans for numeric date shapes, preferring lines flagged by a
// date keyword before falling back to the whole text. Hits are normalized to
// YYYY-MM-DD; candidates that do not name a real calendar date are skipped.
func extractDate(text string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, kw := range dateKeywords {
			if strings.Contains(lower, kw) {
				if d := firstValidDate(line); d != "" {
					return d
				}
				break
			}
		}
	}
	return firstValidDate(text)
}

func firstValidDate(s string) string {
	for _, m := range numericDateRe.FindAllString(s, -1) {
		if d, ok := normalizeNumericDate(m); ok {
			return d
		}
	}
	return ""
}

// normalizeNumericDate converts a Y-M-D or D-M-Y shaped match to YYYY-MM-DD.
// Four leading digits mean year-first, otherwise day-first; two-digit years
// are taken as 2000+.
func normalizeNumericDate(s string) (string, bool) {
	parts := dateSeparatorRe.Split(s, -1)
	if len(parts) != 3 {
		return "", false
	}
	a, err1 := strconv.Atoi(parts[0])
	b, err2 := strconv.Atoi(parts[1])
	c, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	var year, month, day int
	if len(parts[0]) == 4 {
		year, month, day = a, b, c
	} else {
		day, month, year = a, b, c
		if len(parts[2]) == 2 {
			year += 2000
		}
	}
	return normalizeDate(year, month, day)
}

// extractMonthNameDate looks for a "<day> <month name> <year>" phrase using
// the French/English month table. An unrecognized month name or an invalid
// calendar date yields nothing.
func extractMonthNameDate(text string) string {
	m := monthNameDateRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	month, ok := months[strings.ToLower(m[2])]
	if !ok {
		return ""
	}
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	d, ok := normalizeDate(year, int(month), day)
	if !ok {
		return ""
	}
	return d
}
