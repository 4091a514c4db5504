package extract

import (
	"log/slog"
	"regexp"
)

// TextSource provides alternate OCR text for a document image. It is
// expected to be slow and fallible; the assembler treats failures as
// "no additional information found".
type TextSource interface {
	InferText(imageData []byte, contentType string) (string, error)
}

// Assembler merges the field extractors into one record per document,
// consulting a secondary text source for fields the primary text misses.
// It holds no per-document state, so one Assembler may serve many documents
// concurrently.
type Assembler struct {
	secondary TextSource
}

// NewAssembler creates an Assembler. secondary may be nil, in which case the
// enrichment passes are skipped.
func NewAssembler(secondary TextSource) *Assembler {
	return &Assembler{secondary: secondary}
}

var currencySymbolRe = regexp.MustCompile(`[£€$]`)

// Assemble extracts all fields from raw inference text for one document.
// Missing fields stay empty; a record carrying only File is a valid outcome.
func (a *Assembler) Assemble(raw, file string, imageData []byte, contentType string) Record {
	rec := Record{File: file}

	rec.Vendor = extractVendor(raw)

	amount, symbol := extractAmount(raw)
	if amount != "" {
		rec.TotalAmount = amount
		rec.Currency = MapCurrency(symbol)
	}

	if rec.Date = extractDate(raw); rec.Date == "" {
		rec.Date = extractMonthNameDate(raw)
	}

	// The secondary source is consulted at most once per document; the date
	// and currency fallbacks share the result.
	fetched := false
	var secondaryText string
	secondary := func() string {
		if !fetched {
			fetched = true
			secondaryText = a.secondaryText(file, imageData, contentType)
		}
		return secondaryText
	}

	if rec.Date == "" {
		if text := secondary(); text != "" {
			if rec.Date = extractDate(text); rec.Date == "" {
				rec.Date = extractMonthNameDate(text)
			}
			if rec.Date != "" {
				slog.Info("recovered date from secondary OCR", "file", file, "date", rec.Date)
			}
		}
	}

	if rec.TotalAmount != "" && rec.Currency == "" {
		if sym := currencySymbolRe.FindString(secondary()); sym != "" {
			rec.Currency = MapCurrency(sym)
			slog.Info("recovered currency from secondary OCR", "file", file, "currency", rec.Currency)
		}
	}

	return rec
}

func (a *Assembler) secondaryText(file string, imageData []byte, contentType string) string {
	if a.secondary == nil {
		return ""
	}
	text, err := a.secondary.InferText(imageData, contentType)
	if err != nil {
		slog.Warn("secondary OCR failed", "file", file, "error", err)
		return ""
	}
	return text
}
