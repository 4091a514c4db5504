package inference

// TextSource defines the interface for vision-model text extraction
type TextSource interface {
	// InferText transcribes a document image/PDF into raw text
	InferText(imageData []byte, contentType string) (string, error)
	// Close closes the source and releases resources
	Close() error
}

// transcribePrompt is the shared prompt used by all providers. Extraction
// heuristics run downstream on the returned text, so the model is asked for
// a faithful transcription rather than interpreted fields.
const transcribePrompt = `You are transcribing an invoice or receipt image. Read every piece of text in the image and output it as plain text.

Rules:
- Output the text exactly as printed, one output line per printed line, top to bottom.
- Preserve numbers, currency symbols, dates, and punctuation exactly as they appear.
- Keep any structural markers or tags present in the text.
- Do not summarize, translate, interpret, or annotate anything.
- Do not use markdown code blocks. Output the transcription only.`
