package zones

import (
	"encoding/json"
	"strings"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/xeipuuv/gojsonschema"
)

// pricingSchema describes the per-zone lead pricing parameters: a price per
// tier or segment and confidence multipliers. Unknown keys are kept.
const pricingSchema = `{
	"type": "object",
	"properties": {
		"A": {"type": "number", "minimum": 0},
		"B": {"type": "number", "minimum": 0},
		"C": {"type": "number", "minimum": 0},
		"D": {"type": "number", "minimum": 0},
		"A_PLUS": {"type": "number", "minimum": 0},
		"confidence": {
			"type": "object",
			"additionalProperties": {"type": "number", "minimum": 0}
		}
	},
	"additionalProperties": true
}`

var pricingSchemaLoader = gojsonschema.NewStringLoader(pricingSchema)

// ParsePricingJSON checks that raw is a well-formed pricing object
func ParsePricingJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.Validation("pricing_json", "pricing_json no puede estar vacío; usa {} para borrarlo")
	}
	if !json.Valid([]byte(raw)) {
		return nil, apperr.Validation("pricing_json", "pricing_json no es JSON válido")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		return nil, apperr.Validation("pricing_json", "pricing_json debe ser un objeto JSON")
	}

	result, err := gojsonschema.Validate(pricingSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, apperr.Validationf("pricing_json", "validation error: %v", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, apperr.Validation("pricing_json", strings.Join(errs, "; "))
	}
	return doc, nil
}
