package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"grouped with decimals", "1,234.56", 1234.56},
		{"currency sign and spaces", "$ 1,250.00", 1250.00},
		{"euro sign", "€99.90", 99.90},
		{"plain decimal", "928.00", 928.00},
		{"grouped integer", "1,234", 1234},
		{"multiple groups", "12,345,678.90", 12345678.90},
		{"decimal comma", "1234,56", 1234.56},
		{"garbage", "garbage", 0},
		{"empty", "", 0},
		{"mixed junk", "$abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseAmount(tt.in), 1e-9)
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"year first slash", "2024/03/05", "2024-03-05"},
		{"day first slash", "05/03/2024", "2024-03-05"},
		{"two digit year", "05/03/24", "2024-03-05"},
		{"dots", "05.03.2024", "2024-03-05"},
		{"dashes year first", "2024-03-05", "2024-03-05"},
		{"trailing time discarded", "2024/01/15 10:30:00", "2024-01-15"},
		{"single digit segments padded", "5/3/2024", "2024-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.in))
		})
	}
}

func TestFormatDateUnparsedPassesThrough(t *testing.T) {
	// Callers detect a non-ISO-shaped return as "unparsed".
	for _, in := range []string{"garbage", "2024/03", "15 de enero de 2024"} {
		assert.Equal(t, in, FormatDate(in))
	}
}
