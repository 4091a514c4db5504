package extract

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	taggedTotalRe = regexp.MustCompile(`(?i)<s_total_price>\s*([£€$]?)\s*([\d.,]+)\s*</s_total_price>`)
	taggedPriceRe = regexp.MustCompile(`<s_(?:price|tax_price)>\s*([\d.,]+)\s*</s_\w+>`)
	lineAmountRe  = regexp.MustCompile(`(£|€|\$)?\s?(\d{1,3}(?:[.,]\d{3})*[.,]?\d{0,2})`)

	// Total-like keyword, optionally followed by a currency marker and an
	// amount. The keyword prefix is optional, so a bare currency+number pair
	// matches too.
	keywordAmountRe = regexp.MustCompile(`(?i)(?:(?:total|amount\s+due|ttc|net\s*(?:à\s*)?payer|subtotal|montant|change)[^\d£€$TNDUS]{0,10})?(£|€|\$|TND|ND|EUR|USD)?\s?(\d{1,3}(?:[.,]\d{3})*[.,]?\d{0,2})`)
)

// extractAmount recovers the invoice total and any currency symbol found
// next to it. Strategies run in order, first plausible hit wins; an empty
// result means no strategy produced a usable total.
func extractAmount(text string) (amount, symbol string) {
	// Tagged total emitted by the inference model.
	if m := taggedTotalRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseLooseNumber(m[2]); ok {
			if plausibleAmount(v) {
				return formatAmount(v), m[1]
			}
			slog.Warn("ignoring suspicious total value", "value", v)
		}
	}

	// Generic price and tax-price tags: take the largest plausible one.
	// Currency is assumed, not detected, on this path.
	var candidates []float64
	for _, m := range taggedPriceRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseLooseNumber(m[1]); ok && plausibleAmount(v) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) > 0 {
		max := candidates[0]
		for _, v := range candidates[1:] {
			if v > max {
				max = v
			}
		}
		return formatAmount(max), "£"
	}

	// Line scan, bottom first: totals usually sit near the end.
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if !strings.Contains(strings.ToLower(lines[i]), "total") {
			continue
		}
		m := lineAmountRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if v, ok := parseLooseNumber(m[2]); ok && plausibleAmount(v) {
			return formatAmount(v), m[1]
		}
	}

	// Last resort: keyword pattern over the whole text.
	for _, m := range keywordAmountRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseLooseNumber(m[2]); ok && plausibleAmount(v) {
			return formatAmount(v), m[1]
		}
	}

	return "", ""
}
