package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dcervantes/facturas-sync/constants"
	"github.com/dcervantes/facturas-sync/internal/entity"
	"github.com/dcervantes/facturas-sync/internal/store"
)

// Service is a tiny façade over the record store that produces XLSX
// workbooks of the invoice archive.
type Service struct {
	records store.RecordStore
	logger  *slog.Logger
}

func NewService(records store.RecordStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// Stats is the dashboard summary computed from a listing snapshot.
type Stats struct {
	Total       int
	TotalAmount float64
	Pending     int
}

// ComputeStats aggregates counts and the amount sum over a snapshot.
func ComputeStats(records []entity.InvoiceRecord) Stats {
	var st Stats
	st.Total = len(records)
	for _, r := range records {
		st.TotalAmount += r.Amount
		if r.Status == constants.StatusProcessing {
			st.Pending++
		}
	}
	return st
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) for the date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every record.
func (s *Service) ExportInvoicesXLSX(ctx context.Context, from, to *time.Time) ([]byte, Stats, error) {
	start := time.Now()

	records, err := s.records.ListRecords(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("list records: %w", err)
	}
	records = filterByWindow(records, from, to)

	f := excelize.NewFile()
	const sheet = "Facturas"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, Stats{}, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Fecha",
		"Folio fiscal",
		"Proveedor",
		"Importe (MXN)",
		"Estado",
		"Descripción",
		"Archivo",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Date)
		write(2, r.FiscalFolio)
		write(3, r.Provider)
		if r.HasAmount() {
			write(4, r.Amount)
		} else {
			write(4, "")
		}
		write(5, string(r.Status))
		write(6, truncate(r.Description, 140))
		write(7, r.FileURL)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 40) // folio
	_ = f.SetColWidth(sheet, "C", "C", 28) // provider
	_ = f.SetColWidth(sheet, "D", "E", 14) // amount, status
	_ = f.SetColWidth(sheet, "F", "F", 48) // description
	_ = f.SetColWidth(sheet, "G", "G", 60) // link

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("xlsx write: %w", err)
	}

	stats := ComputeStats(records)
	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"total_amount", stats.TotalAmount,
		"pending", stats.Pending,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), stats, nil
}

// filterByWindow keeps records whose emission date falls inside the
// window. Records without a parseable date are kept only when no window
// is set.
func filterByWindow(records []entity.InvoiceRecord, from, to *time.Time) []entity.InvoiceRecord {
	if from == nil && to == nil {
		return records
	}
	if from != nil && to == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		to = &t
	}

	var out []entity.InvoiceRecord
	for _, r := range records {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		if from != nil && d.Before(*from) {
			continue
		}
		if to != nil && d.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
