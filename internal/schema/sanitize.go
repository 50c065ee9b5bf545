package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrResponseParse is returned when the extractor reply is not a JSON object
var ErrResponseParse = errors.New("response is not valid JSON")

// fenceMarkers are removed in order, so the longer markers go first
var fenceMarkers = []string{"```json\n", "```\n", "```"}

// Sanitize strips code fences from an extractor reply and decodes the JSON
// object inside it. Numbers keep their literal text as json.Number.
func Sanitize(text string) (map[string]any, error) {
	for _, marker := range fenceMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	text = strings.TrimSpace(text)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResponseParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected content after JSON value", ErrResponseParse)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", ErrResponseParse, v)
	}
	return obj, nil
}
