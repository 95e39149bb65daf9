package extract

import "regexp"

// Patterns tuned against Mexican CFDI invoices. The exact alternations,
// priority order and exclusion keywords are load-bearing: downstream
// duplicate detection depends on the confidence these produce.

// dateToken matches YYYY?MM?DD or DD?MM?YYYY / DD?MM?YY with '/', '-' or
// '.' separators and an optional time suffix (discarded by FormatDate).
const dateToken = `([0-9]{4}[/\-.][0-9]{2}[/\-.][0-9]{2}|[0-9]{2}[/\-.][0-9]{2}[/\-.](?:[0-9]{4}|[0-9]{2}))(?:\s+[0-9]{2}:[0-9]{2}:[0-9]{2})?`

var (
	folioFiscalRe = regexp.MustCompile(`(?i)folio\s*fiscal[:\s]*([A-F0-9]{8}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{12})`)

	// Labeled total: the standalone word "total", an optional currency
	// sign, then a grouped or plain 2-decimal number.
	totalRe = regexp.MustCompile(`(?i)\btotal\b[\s:]*\$?\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{2})|[0-9]+\.[0-9]{2})`)

	// Fallback amount candidates: any money-shaped token on the line.
	anyAmountRe = regexp.MustCompile(`(?:\$\s*)?([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{2}))`)

	// Lines carrying certification/security metadata never hold the total.
	amountExcludeRe = regexp.MustCompile(`(?i)(sello|certificaci[oó]n|cadena\s*original|sat|uuid|no\.?\s*de\s*serie|csd|certificado|rfc)`)

	amountBonusTotalRe  = regexp.MustCompile(`(?i)\btotal\b`)
	amountBonusOthersRe = regexp.MustCompile(`(?i)(subtotal|importe)`)

	// Emission-date label patterns, in priority order. The last two are
	// the unlabeled generic fallbacks (with-time first); lines containing
	// a literal "||" (certification hash chains) are skipped for those,
	// see Extractor.findDate.
	emissionDateRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:c[oó]digo\s*postal,?\s*)?fecha\s*(?:y\s*hora\s*de\s*)?emisi[oó]n[:\s]*` + dateToken),
		regexp.MustCompile(`(?i)fecha\s*(?:y\s*hora\s*de\s*)?de\s*emisi[oó]n[:\s]*` + dateToken),
		regexp.MustCompile(`(?i)fecha\s*de\s*emisi[oó]n\s*del\s*cfdi[:\s]*` + dateToken),
		regexp.MustCompile(`([0-9]{4}[/\-.][0-9]{2}[/\-.][0-9]{2}\s+[0-9]{2}:[0-9]{2}:[0-9]{2})`),
		regexp.MustCompile(`([0-9]{4}[/\-.][0-9]{2}[/\-.][0-9]{2})`),
	}

	certificationDateRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)fecha\s*(?:y\s*hora\s*de\s*)?de\s*certificaci[oó]n[:\s]*` + dateToken),
		regexp.MustCompile(`(?i)fecha\s*y\s*hora\s*de\s*certificaci[oó]n[:\s]*` + dateToken),
	}

	providerRe = regexp.MustCompile(`(?i)(cl[ií]nica|hospital|farmacia|m[eé]dico|doctor|dr\.|dra\.|centro\s*m[eé]dico|consultorio|laboratorio)`)
)
