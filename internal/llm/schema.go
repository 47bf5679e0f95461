package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is shown to the model as the required output shape and used
// locally to validate what comes back.
func BuildInvoiceJSONSchema() map[string]any {
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ProductName": map[string]any{"type": "string", "minLength": 1},
			"Category":    map[string]any{"type": "string"},
			"ProductId":   map[string]any{"type": "string", "minLength": 1},
			"Quantity":    map[string]any{"type": "number", "exclusiveMinimum": 0.0},
			"UnitRate":    map[string]any{"type": "number", "exclusiveMinimum": 0.0},
			"Amount":      map[string]any{"type": "number"},
		},
		"required": []string{"ProductName", "ProductId", "Quantity", "UnitRate", "Amount"},
	}

	props := map[string]any{
		"InvoiceNumber": map[string]any{"type": "string", "minLength": 1},
		"InvoiceDate":   map[string]any{"type": "string", "minLength": 1},
		"OrderId":       map[string]any{"type": "string"},
		"VendorName":    map[string]any{"type": "string", "minLength": 1},
		"BillTo": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"Name": map[string]any{"type": "string"},
			},
			"required": []string{"Name"},
		},
		"ShipTo": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"City":    map[string]any{"type": "string"},
				"State":   map[string]any{"type": "string"},
				"Country": map[string]any{"type": "string"},
			},
		},
		"ShipMode": map[string]any{"type": "string"},
		"LineItems": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    lineItem,
		},
		"Subtotal": map[string]any{"type": "number", "minimum": 0.0},
		"Discount": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"Percentage": map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
				"Amount":     map[string]any{"type": "number", "minimum": 0.0},
			},
		},
		"ShippingCost": map[string]any{"type": "number", "minimum": 0.0},
		"TotalAmount":  map[string]any{"type": "number"},
		"BalanceDue":   map[string]any{"type": "number", "minimum": 0.0},
		"Currency":     map[string]any{"type": "string"},
		"Notes":        map[string]any{"type": "string"},
		"Terms":        map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"InvoiceNumber", "InvoiceDate", "BillTo", "LineItems", "TotalAmount"},
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("invoice.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("model output does not match schema: %w", err)
	}
	return nil
}
