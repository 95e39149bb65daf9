package extract

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/dcervantes/facturas-sync/internal/entity"
)

// amountCeiling is the sanity ceiling for fallback amount candidates
// (1M MXN); anything above it is OCR noise, not an invoice total.
const amountCeiling = 1_000_000

// genericDateStart is the index of the first unlabeled generic pattern in
// emissionDateRes. Generic patterns skip lines containing a literal "||"
// so certification hash chains are not read as dates. The guard is a
// heuristic: hash blocks without "||" can still match.
const genericDateStart = 3

// Confidence contributions per field. Additive evidence, capped at 1.0.
const (
	confFolio         = 0.3
	confLabeledTotal  = 0.4
	confStrongAmount  = 0.25
	confWeakAmount    = 0.15
	confEmissionDate  = 0.3
	confCertifiedDate = 0.25
	confProvider      = 0.2
	confDescription   = 0.1
)

// Extractor recovers structured invoice fields from raw OCR or PDF-layer
// text. Extraction misses are not errors: fields stay at their zero value
// and the confidence reflects what was found.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract runs the line-oriented CFDI field passes over text. It never
// fails; an empty input simply yields zero confidence.
func (e *Extractor) Extract(text string) entity.Fields {
	lines := splitLines(text)

	var out entity.Fields
	var confidence float64

	if folio := findFolio(lines); folio != "" {
		out.FiscalFolio = folio
		confidence += confFolio
		e.logger.Debug("extract.folio", "folio", folio)
	}

	if amount, ok := findLabeledTotal(lines); ok {
		out.Amount = amount
		confidence += confLabeledTotal
		e.logger.Debug("extract.total", "amount", amount)
	} else if cand, ok := findFallbackAmount(lines); ok {
		out.Amount = cand.amount
		if cand.score >= 3 {
			confidence += confStrongAmount
		} else {
			confidence += confWeakAmount
		}
		e.logger.Debug("extract.total.fallback", "amount", cand.amount, "score", cand.score, "line", cand.line)
	}

	if date, ok := findDate(lines, emissionDateRes, genericDateStart); ok {
		out.Date = FormatDate(date)
		confidence += confEmissionDate
		e.logger.Debug("extract.date", "date", out.Date)
	} else if date, ok := findDate(lines, certificationDateRes, len(certificationDateRes)); ok {
		out.Date = FormatDate(date)
		confidence += confCertifiedDate
		e.logger.Debug("extract.date.certification", "date", out.Date)
	}

	for _, line := range lines {
		if providerRe.MatchString(line) {
			out.Provider = line
			confidence += confProvider
			e.logger.Debug("extract.provider", "line", line)
			break
		}
	}

	if desc := findDescription(lines); desc != "" {
		out.Description = desc
		confidence += confDescription
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	out.Confidence = confidence
	return out
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func findFolio(lines []string) string {
	for _, line := range lines {
		if m := folioFiscalRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

func findLabeledTotal(lines []string) (float64, bool) {
	for _, line := range lines {
		if m := totalRe.FindStringSubmatch(line); m != nil {
			return ParseAmount(m[1]), true
		}
	}
	return 0, false
}

type amountCandidate struct {
	amount float64
	score  float64
	line   string
}

// findFallbackAmount collects every money-shaped token outside
// certification/security-metadata lines and scores it: +3 for "total" on
// the line, +1 for "subtotal"/"importe", plus min(amount/1000, 3) as a
// magnitude tie-break favouring larger plausible totals.
func findFallbackAmount(lines []string) (amountCandidate, bool) {
	var candidates []amountCandidate
	for _, line := range lines {
		if amountExcludeRe.MatchString(line) {
			continue
		}
		m := anyAmountRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount := ParseAmount(m[1])
		if amount <= 0 || amount > amountCeiling {
			continue
		}
		var score float64
		if amountBonusTotalRe.MatchString(line) {
			score += 3
		}
		if amountBonusOthersRe.MatchString(line) {
			score += 1
		}
		magnitude := amount / 1000
		if magnitude > 3 {
			magnitude = 3
		}
		score += magnitude
		candidates = append(candidates, amountCandidate{amount: amount, score: score, line: line})
	}
	if len(candidates) == 0 {
		return amountCandidate{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0], true
}

// findDate tries each pattern per line in priority order; first match
// wins. Patterns at index >= genericStart are the unlabeled fallbacks and
// skip certification hash-chain lines (literal "||").
func findDate(lines []string, patterns []*regexp.Regexp, genericStart int) (string, bool) {
	for _, line := range lines {
		for i, re := range patterns {
			if i >= genericStart && strings.Contains(line, "||") {
				continue
			}
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if len(m) > 1 && m[1] != "" {
				return m[1], true
			}
			return m[0], true
		}
	}
	return "", false
}

// findDescription joins the first three lines of free text: anything
// longer than 10 characters that no field pattern claims.
func findDescription(lines []string) string {
	datePatterns := make([]*regexp.Regexp, 0, len(emissionDateRes)+len(certificationDateRes))
	datePatterns = append(datePatterns, emissionDateRes...)
	datePatterns = append(datePatterns, certificationDateRes...)

	var picked []string
	for _, line := range lines {
		if len(line) <= 10 {
			continue
		}
		if matchesAny(line, datePatterns) {
			continue
		}
		if totalRe.MatchString(line) || providerRe.MatchString(line) || folioFiscalRe.MatchString(line) {
			continue
		}
		picked = append(picked, line)
		if len(picked) == 3 {
			break
		}
	}
	return strings.Join(picked, " ")
}

func matchesAny(line string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
