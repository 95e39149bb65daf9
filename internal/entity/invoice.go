package entity

import (
	"time"

	"github.com/dcervantes/facturas-sync/constants"
)

// InvoiceRecord is the transient snapshot of one structured-store record.
// The store owns the data; a snapshot lives for a single sync run.
type InvoiceRecord struct {
	// ID is the store-assigned page id, empty until persisted.
	ID string

	// Date is an ISO YYYY-MM-DD string, empty when unknown.
	Date string

	// Amount in MXN. Zero means unknown/unset, never a valid total.
	Amount float64

	Provider    string
	Description string

	// FiscalFolio is the CFDI UUID when extracted, otherwise the file base
	// name the record was recovered from. Strongest matching key.
	FiscalFolio string

	// FileURL is a previewable link into the file store. May be stale.
	FileURL string

	Status constants.RecordStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasAmount reports whether the record carries a usable total.
func (r InvoiceRecord) HasAmount() bool {
	return r.Amount > 0
}
