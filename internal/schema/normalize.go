package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaInvariant is returned when the extracted document has no line items
var ErrSchemaInvariant = errors.New("products array is empty or missing")

// productsRule enforces the one structural rule defaults cannot repair
var productsRule = mustCompile(map[string]any{
	"type":     "object",
	"required": []string{"products"},
	"properties": map[string]any{
		"products": map[string]any{"type": "array", "minItems": 1},
	},
})

func mustCompile(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("products.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	return compiler.MustCompile("products.json")
}

// Normalize fills every field declared by InvoiceDocument that is missing or
// empty with its canonical empty value and leaves present values untouched.
// The input tree is not modified.
func Normalize(tree map[string]any) (map[string]any, error) {
	out := normalizeRecord(tree, InvoiceDocument)

	if err := productsRule.Validate(out); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrSchemaInvariant, err)
	}

	invoice := out["invoice"].(map[string]any)
	if invoice["productName"] == EmptyText {
		first := out["products"].([]any)[0].(map[string]any)
		invoice["productName"] = first["name"]
	}

	return out, nil
}

func normalizeRecord(in map[string]any, f Field) map[string]any {
	out := make(map[string]any, len(in)+len(f.Fields))
	for k, v := range in {
		if _, declared := f.Fields[k]; !declared {
			out[k] = deepCopy(v)
		}
	}
	for key, field := range f.Fields {
		out[key] = normalizeValue(in[key], field)
	}
	return out
}

func normalizeValue(v any, f Field) any {
	switch f.Kind {
	case Record:
		m, _ := v.(map[string]any)
		return normalizeRecord(m, f)
	case List:
		if v == nil {
			return f.Kind.Empty()
		}
		items, ok := v.([]any)
		if !ok {
			// left for the products rule to reject
			return deepCopy(v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			if f.Elem != nil {
				out[i] = normalizeValue(item, *f.Elem)
			} else {
				out[i] = deepCopy(item)
			}
		}
		return out
	default:
		if isEmpty(v) {
			return f.Kind.Empty()
		}
		return deepCopy(v)
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// Extracted is a normalized document split into its three parts
type Extracted struct {
	Invoice  map[string]any
	Customer map[string]any
	Products []map[string]any
}

// Decode splits a tree returned by Normalize
func Decode(tree map[string]any) Extracted {
	items, _ := tree["products"].([]any)
	products := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		products = append(products, m)
	}
	invoice, _ := tree["invoice"].(map[string]any)
	customer, _ := tree["customer"].(map[string]any)
	return Extracted{
		Invoice:  invoice,
		Customer: customer,
		Products: products,
	}
}

// String renders a leaf value as text without reformatting it
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// Lookup walks nested records and returns the leaf at path as text
func Lookup(m map[string]any, path ...string) string {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[key]
	}
	return String(cur)
}
