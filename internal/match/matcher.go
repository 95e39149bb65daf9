// Package match classifies stored files against invoice records. Matching
// is equality-only: fiscal folio against file base name first, provider
// name second, percent-decoded URL containment as the last resort. No
// fuzzy or partial matching.
package match

import (
	"net/url"
	"strings"

	"github.com/dcervantes/facturas-sync/constants"
	"github.com/dcervantes/facturas-sync/internal/entity"
)

// BestFileFor finds the file a single invoice should link to, used during
// link repair. Candidates are tried in the store's listing order, so ties
// resolve to the first listed file. Returns false when nothing matches.
func BestFileFor(inv entity.InvoiceRecord, files []entity.StoredFile) (entity.StoredFile, bool) {
	folio := strings.TrimSpace(inv.FiscalFolio)
	if folio != "" {
		for _, f := range files {
			if constants.BaseName(f.Name) == folio {
				return f, true
			}
		}
	}

	provider := strings.TrimSpace(inv.Provider)
	if provider != "" && provider != constants.ProviderNotIdentified {
		for _, f := range files {
			if constants.BaseName(f.Name) == provider {
				return f, true
			}
		}
	}

	// Last resort: the stored URL still mentions the file's current name.
	if inv.FileURL != "" {
		decoded := decodeURL(inv.FileURL)
		for _, f := range files {
			if strings.Contains(decoded, f.Name) {
				return f, true
			}
		}
	}

	return entity.StoredFile{}, false
}

// Claimed reports whether any invoice claims the file: its URL contains
// the file name, or the file base name equals an invoice's fiscal folio or
// provider exactly.
func Claimed(file entity.StoredFile, invoices []entity.InvoiceRecord) bool {
	base := constants.BaseName(file.Name)
	for _, inv := range invoices {
		if inv.FileURL != "" && strings.Contains(decodeURL(inv.FileURL), file.Name) {
			return true
		}
		if base == strings.TrimSpace(inv.FiscalFolio) && base != "" {
			return true
		}
		if base == strings.TrimSpace(inv.Provider) && base != "" {
			return true
		}
	}
	return false
}

// Orphans returns the files no invoice claims, in listing order.
func Orphans(files []entity.StoredFile, invoices []entity.InvoiceRecord) []entity.StoredFile {
	var out []entity.StoredFile
	for _, f := range files {
		if !Claimed(f, invoices) {
			out = append(out, f)
		}
	}
	return out
}

// decodeURL percent-decodes a stored URL; a malformed escape falls back to
// the raw string so containment checks still work on it.
func decodeURL(raw string) string {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
