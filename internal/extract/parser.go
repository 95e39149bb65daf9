package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	isoDateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateSepRe    = regexp.MustCompile(`[/\-.]`)
	groupCommaRe = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+$`)
)

// ParseAmount converts a raw matched amount substring into a number. It
// strips currency symbols, group separators and whitespace; a comma is
// treated as a decimal separator only when it cannot be a group separator.
// Unparseable input yields 0, never an error.
func ParseAmount(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == '$' || r == '€' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if strings.Contains(cleaned, ",") {
		switch {
		case strings.Contains(cleaned, "."):
			// 1,234.56 -> commas are group separators
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		case groupCommaRe.MatchString(cleaned):
			// 1,234 or 12,345,678 -> grouped integer
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		default:
			// 1234,56 -> decimal comma
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatDate normalizes a matched date token to ISO YYYY-MM-DD. It accepts
// YYYY/MM/DD, DD/MM/YYYY and DD/MM/YY with '/', '-' or '.' as separators
// and discards a trailing time component. Year-first is detected by the
// first segment having length 4; a 2-digit year is assumed 20xx. On an
// unrecognized structure the input is returned unchanged, so callers must
// treat a non-ISO-shaped result as unparsed.
func FormatDate(raw string) string {
	if isoDateRe.MatchString(raw) {
		return raw
	}

	dateOnly := strings.SplitN(strings.TrimSpace(raw), " ", 2)[0]
	normalized := dateSepRe.ReplaceAllString(dateOnly, "/")
	parts := strings.Split(normalized, "/")
	if len(parts) != 3 {
		return raw
	}

	var year, month, day string
	if len(parts[0]) == 4 {
		year, month, day = parts[0], parts[1], parts[2]
	} else {
		day, month, year = parts[0], parts[1], parts[2]
		if len(year) == 2 {
			year = "20" + year
		}
	}

	return fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
