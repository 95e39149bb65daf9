package notion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaMap(t *testing.T) {
	raw := []byte(`{
		"title": "Folio",
		"date": "Fecha",
		"amount": "Importe ($ MXN)",
		"url": "Archivo",
		"status": "Estado",
		"description": "Descripción"
	}`)

	m, err := ParseSchemaMap(raw)
	require.NoError(t, err)
	assert.Equal(t, DefaultSchemaMap(), m)
}

func TestParseSchemaMapDescriptionOptional(t *testing.T) {
	raw := []byte(`{"title":"T","date":"D","amount":"A","url":"U","status":"S"}`)

	m, err := ParseSchemaMap(raw)
	require.NoError(t, err)
	assert.Empty(t, m.Description)
}

func TestParseSchemaMapRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required key", `{"title":"T","date":"D","amount":"A","url":"U"}`},
		{"empty property name", `{"title":"","date":"D","amount":"A","url":"U","status":"S"}`},
		{"unknown key", `{"title":"T","date":"D","amount":"A","url":"U","status":"S","extra":"X"}`},
		{"wrong type", `{"title":1,"date":"D","amount":"A","url":"U","status":"S"}`},
		{"not json", `nope{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchemaMap([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadSchemaMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"T","date":"D","amount":"A","url":"U","status":"S"}`), 0o600))

	m, err := LoadSchemaMap(path)
	require.NoError(t, err)
	assert.Equal(t, "T", m.Title)

	_, err = LoadSchemaMap(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
