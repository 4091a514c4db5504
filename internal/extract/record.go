package extract

// Record contains the fields recovered from one invoice document.
// Every field except File is optional; an empty value means the field
// could not be extracted, which is a normal terminal state.
type Record struct {
	File        string `json:"file"`
	Vendor      string `json:"vendor,omitempty"`
	TotalAmount string `json:"total_amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Date        string `json:"date,omitempty"`
}
