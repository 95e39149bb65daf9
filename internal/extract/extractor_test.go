package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCFDIHappyPath(t *testing.T) {
	text := `Hospital Ángeles del Pedregal
Folio Fiscal: AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE
Fecha de emisión: 2024/01/15
Total $1,250.00
Consulta de especialidad en cardiología`

	fields := NewExtractor(nil).Extract(text)

	assert.Equal(t, "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE", fields.FiscalFolio)
	assert.InDelta(t, 1250.00, fields.Amount, 1e-9)
	assert.Equal(t, "2024-01-15", fields.Date)
	assert.Equal(t, "Hospital Ángeles del Pedregal", fields.Provider)
	assert.Equal(t, "Consulta de especialidad en cardiología", fields.Description)
	assert.InDelta(t, 1.0, fields.Confidence, 1e-9)
}

func TestExtractLabeledTotalBeatsFallback(t *testing.T) {
	text := `Subtotal $2,000.00
Total $1,250.00`

	fields := NewExtractor(nil).Extract(text)
	assert.InDelta(t, 1250.00, fields.Amount, 1e-9)
}

func TestExtractFallbackAmountScoring(t *testing.T) {
	t.Run("keyword bonus wins over magnitude", func(t *testing.T) {
		text := `Subtotal $800.00
$928.00`

		fields := NewExtractor(nil).Extract(text)
		assert.InDelta(t, 800.00, fields.Amount, 1e-9)
		// Weak candidate (score < 3) plus the subtotal line as description.
		assert.InDelta(t, confWeakAmount+confDescription, fields.Confidence, 1e-9)
	})

	t.Run("total keyword without parseable label is a strong candidate", func(t *testing.T) {
		// The label pattern needs the number right after "total"; here the
		// words in between push it to the scored fallback path.
		text := "Total con letra: $5,000.00"

		fields := NewExtractor(nil).Extract(text)
		assert.InDelta(t, 5000.00, fields.Amount, 1e-9)
		assert.InDelta(t, confStrongAmount+confDescription, fields.Confidence, 1e-9)
	})

	t.Run("certification lines never yield an amount", func(t *testing.T) {
		text := `Sello digital del SAT 123.45
Cadena original 999.99`

		fields := NewExtractor(nil).Extract(text)
		assert.Zero(t, fields.Amount)
	})

	t.Run("amounts above the ceiling are noise", func(t *testing.T) {
		fields := NewExtractor(nil).Extract("$2,500,000.00")
		assert.Zero(t, fields.Amount)
	})
}

func TestExtractCertificationDateFallback(t *testing.T) {
	// Hash-chain lines carry "||" so the generic emission fallbacks skip
	// them, but the labeled certification pattern still applies.
	text := "||Fecha de certificación: 2024/01/16 10:33:21||"

	fields := NewExtractor(nil).Extract(text)
	assert.Equal(t, "2024-01-16", fields.Date)
	assert.InDelta(t, confCertifiedDate, fields.Confidence, 1e-9)
}

func TestExtractGenericDateSkipsHashChains(t *testing.T) {
	fields := NewExtractor(nil).Extract("2019/06/17 13:45:12 ||SELLO DIGITAL")
	assert.Empty(t, fields.Date)
	assert.Zero(t, fields.Confidence)
}

func TestExtractGenericDateFallback(t *testing.T) {
	fields := NewExtractor(nil).Extract("Emitido el 2024/02/03 09:12:45 en CDMX")
	assert.Equal(t, "2024-02-03", fields.Date)
}

func TestExtractEmptyInput(t *testing.T) {
	fields := NewExtractor(nil).Extract("")
	assert.Empty(t, fields.FiscalFolio)
	assert.Empty(t, fields.Date)
	assert.Empty(t, fields.Provider)
	assert.Empty(t, fields.Description)
	assert.Zero(t, fields.Amount)
	assert.Zero(t, fields.Confidence)
}

func TestExtractNeverPanicsOnNoise(t *testing.T) {
	inputs := []string{
		"\x00\x01\x02",
		"|||| ,,,, .... $$$$",
		"Total",
		"Folio Fiscal:",
	}
	for _, in := range inputs {
		require.NotPanics(t, func() { NewExtractor(nil).Extract(in) })
	}
}

func TestExtractDescriptionCapsAtThreeLines(t *testing.T) {
	text := `Primera línea de texto libre
Segunda línea de texto libre
Tercera línea de texto libre
Cuarta línea que ya no entra`

	fields := NewExtractor(nil).Extract(text)
	assert.Equal(t,
		"Primera línea de texto libre Segunda línea de texto libre Tercera línea de texto libre",
		fields.Description)
}
