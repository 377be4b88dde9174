package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalJSON re-encodes a JSON document with sorted object keys and no
// insignificant whitespace. Numbers keep their literal form.
func CanonicalJSON(raw json.RawMessage) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("decode json: trailing data")
	}
	out, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}
