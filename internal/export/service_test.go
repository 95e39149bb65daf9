package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dcervantes/facturas-sync/constants"
	"github.com/dcervantes/facturas-sync/internal/entity"
	"github.com/dcervantes/facturas-sync/internal/store"
)

type stubRecords struct {
	records []entity.InvoiceRecord
}

func (s stubRecords) ListRecords(_ context.Context) ([]entity.InvoiceRecord, error) {
	return s.records, nil
}

func (s stubRecords) CreateRecord(_ context.Context, _ entity.InvoiceRecord) (string, error) {
	return "", nil
}

func (s stubRecords) UpdateRecordURL(_ context.Context, _, _ string) error { return nil }
func (s stubRecords) UpdateRecordFields(_ context.Context, _ string, _ store.FieldPatch) error {
	return nil
}

func sampleRecords() []entity.InvoiceRecord {
	return []entity.InvoiceRecord{
		{
			ID:          "r1",
			Date:        "2024-01-15",
			Amount:      1250.00,
			Provider:    "Hospital Ángeles",
			FiscalFolio: "FOLIO1",
			FileURL:     "https://share.test/1",
			Status:      constants.StatusCompleted,
		},
		{
			ID:          "r2",
			Date:        "2024-03-02",
			Amount:      430.50,
			Provider:    "Farmacia San Pablo",
			FiscalFolio: "FOLIO2",
			Status:      constants.StatusProcessing,
		},
		{
			ID:          "r3",
			Date:        "2024-06-20",
			Provider:    constants.RecoveredProvider,
			FiscalFolio: "recuperada",
			Status:      constants.StatusCompleted,
		},
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(sampleRecords())
	assert.Equal(t, 3, st.Total)
	assert.InDelta(t, 1680.50, st.TotalAmount, 1e-9)
	assert.Equal(t, 1, st.Pending)
}

func TestExportInvoicesXLSX(t *testing.T) {
	svc := NewService(stubRecords{records: sampleRecords()}, nil)

	buf, stats, err := svc.ExportInvoicesXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)

	f, err := excelize.OpenReader(bytes.NewReader(buf))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	header, err := f.GetCellValue("Facturas", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Fecha", header)

	folio, err := f.GetCellValue("Facturas", "B2")
	require.NoError(t, err)
	assert.Equal(t, "FOLIO1", folio)

	// Unset amounts export as empty cells, not zeros.
	amount, err := f.GetCellValue("Facturas", "D4")
	require.NoError(t, err)
	assert.Empty(t, amount)
}

func TestExportInvoicesXLSXWindow(t *testing.T) {
	svc := NewService(stubRecords{records: sampleRecords()}, nil)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	_, stats, err := svc.ExportInvoicesXLSX(context.Background(), &from, &to)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Total)
	assert.InDelta(t, 430.50, stats.TotalAmount, 1e-9)
}

func TestFilterByWindowInclusiveBounds(t *testing.T) {
	records := []entity.InvoiceRecord{
		{ID: "a", Date: "2024-02-01"},
		{ID: "b", Date: "2024-04-01"},
		{ID: "c", Date: "2024-04-02"},
		{ID: "d", Date: "sin fecha"},
	}
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	got := filterByWindow(records, &from, &to)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}
