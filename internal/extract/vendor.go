package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	taggedVendorRe = regexp.MustCompile(`(?is)<s_nm>\s*(.*?)\s*</s_nm>`)

	// Receipt metadata words that disqualify a line as a vendor name.
	vendorNoiseRe = regexp.MustCompile(`(?i)\b(server|table|thank|total|amount|invoice|facture|date)\b`)

	// Years and DD/MM/YYYY dates never belong in a vendor name.
	vendorDateRe = regexp.MustCompile(`\d{4}|\d{2}/\d{2}/\d{4}`)
)

// extractVendor derives a vendor name, preferring the tagged field when it
// does not look like a misread of receipt metadata. The "4550" prefix and
// "server" substrings are known OCR false positives.
func extractVendor(text string) string {
	if m := taggedVendorRe.FindStringSubmatch(text); m != nil {
		vendor := strings.TrimSpace(m[1])
		lower := strings.ToLower(vendor)
		if vendor != "" && !strings.HasPrefix(lower, "4550") && !strings.Contains(lower, "server") {
			return vendor
		}
	}
	return vendorFromLines(text)
}

// vendorFromLines picks the most name-like line: short, free of receipt
// noise, preferring mixed/title case over all-caps. All-caps lines are only
// a weak negative signal, so a last-resort pass still accepts one.
func vendorFromLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var candidates []string
	for _, line := range lines {
		if vendorNoiseRe.MatchString(line) || vendorDateRe.MatchString(line) {
			continue
		}
		if n := utf8.RuneCountInString(line); n > 3 && n < 50 {
			candidates = append(candidates, line)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return vendorKey(candidates[i]).less(vendorKey(candidates[j]))
	})
	if len(candidates) > 0 {
		return candidates[0]
	}

	for _, line := range lines {
		if vendorNoiseRe.MatchString(line) || vendorDateRe.MatchString(line) {
			continue
		}
		if n := utf8.RuneCountInString(line); isUpperCase(line) && n > 3 && n < 40 {
			return line
		}
	}
	return ""
}

// vendorRank is the composite sort key for vendor candidates: ascending by
// (all-uppercase, not-title-case, length).
type vendorRank struct {
	upper   bool
	noTitle bool
	length  int
}

func vendorKey(s string) vendorRank {
	return vendorRank{
		upper:   isUpperCase(s),
		noTitle: !isTitleCase(s),
		length:  utf8.RuneCountInString(s),
	}
}

func (k vendorRank) less(o vendorRank) bool {
	if k.upper != o.upper {
		return !k.upper
	}
	if k.noTitle != o.noTitle {
		return !k.noTitle
	}
	return k.length < o.length
}

// isUpperCase reports whether s has at least one cased rune and no lowercase
// ones.
func isUpperCase(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			hasCased = true
		}
	}
	return hasCased
}

// isTitleCase reports whether every word in s starts with an uppercase rune
// followed only by lowercase ones, with at least one cased rune overall.
func isTitleCase(s string) bool {
	hasCased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			hasCased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			hasCased = true
		default:
			prevCased = false
		}
	}
	return hasCased
}
