package extract

import (
	"strconv"
	"strings"
	"time"
)

// months maps French and English month names (lowercase) to month numbers.
var months = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// currencyCodes maps currency symbols to ISO 4217 codes.
var currencyCodes = map[string]string{
	"£": "GBP",
	"$": "USD",
	"€": "EUR",
}

// MapCurrency maps a currency symbol to its ISO code. Unrecognized input is
// upper-cased and passed through unchanged, so mapping an already-mapped code
// is a no-op. Empty input stays empty.
func MapCurrency(sym string) string {
	sym = strings.TrimSpace(sym)
	if sym == "" {
		return ""
	}
	if code, ok := currencyCodes[sym]; ok {
		return code
	}
	return strings.ToUpper(sym)
}

// parseLooseNumber parses a numeric string that may use a comma as the
// decimal separator and may contain stray spaces.
func parseLooseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// plausibleAmount filters out OCR misreads producing absurd totals. Invoice
// totals are assumed to stay under 1000; anything outside (0, 1000) is noise.
// Known limitation for genuinely large invoices.
func plausibleAmount(v float64) bool {
	return v > 0 && v < 1000
}

// formatAmount renders an accepted amount the way records store it: minimal
// digits with a mandatory decimal part ("12.0", "45.5", "23.4").
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// normalizeDate builds a calendar date and formats it as YYYY-MM-DD. It
// rejects combinations that do not name a real date, e.g. day 31 in April.
func normalizeDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
