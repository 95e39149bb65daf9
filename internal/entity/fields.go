package entity

// Fields is the best-effort output of the invoice field extractor. Every
// field is optional; absence is signalled by the zero value plus a lower
// Confidence, never by an error.
type Fields struct {
	// Date is ISO YYYY-MM-DD when parsed; otherwise empty.
	Date string

	// Amount is the invoice total, zero when not found.
	Amount float64

	// Provider is the raw line that matched the provider keywords.
	Provider string

	// Description joins up to three free-text lines.
	Description string

	// FiscalFolio is the CFDI UUID in upper or lower case as printed.
	FiscalFolio string

	// Confidence is additive evidence in [0,1], not a probability.
	Confidence float64
}
