package notion

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaMap binds the core's logical invoice fields to the physical
// property names of the structured store's database. It is resolved once
// per client and validated at startup; the store's schema is never
// re-discovered per call.
type SchemaMap struct {
	Title       string `json:"title"`  // title property holding the fiscal folio
	Date        string `json:"date"`   // date property
	Amount      string `json:"amount"` // number property
	URL         string `json:"url"`    // url property
	Status      string `json:"status"` // select property
	Description string `json:"description,omitempty"`
}

// DefaultSchemaMap matches the production database's property names.
func DefaultSchemaMap() SchemaMap {
	return SchemaMap{
		Title:       "Folio",
		Date:        "Fecha",
		Amount:      "Importe ($ MXN)",
		URL:         "Archivo",
		Status:      "Estado",
		Description: "Descripción",
	}
}

const schemaMapSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "date", "amount", "url", "status"],
  "properties": {
    "title":       {"type": "string", "minLength": 1},
    "date":        {"type": "string", "minLength": 1},
    "amount":      {"type": "string", "minLength": 1},
    "url":         {"type": "string", "minLength": 1},
    "status":      {"type": "string", "minLength": 1},
    "description": {"type": "string"}
  },
  "additionalProperties": false
}`

// LoadSchemaMap reads and validates a schema-map JSON file. Validation
// failures surface here, at startup, not in the middle of a sync run.
func LoadSchemaMap(path string) (SchemaMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SchemaMap{}, fmt.Errorf("read schema map: %w", err)
	}
	return ParseSchemaMap(raw)
}

// ParseSchemaMap validates raw JSON against the schema-map contract.
func ParseSchemaMap(raw []byte) (SchemaMap, error) {
	sch, err := jsonschema.CompileString("schema_map.json", schemaMapSchema)
	if err != nil {
		return SchemaMap{}, fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return SchemaMap{}, fmt.Errorf("parse schema map: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return SchemaMap{}, fmt.Errorf("invalid schema map: %w", err)
	}

	var m SchemaMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return SchemaMap{}, fmt.Errorf("decode schema map: %w", err)
	}
	return m, nil
}
