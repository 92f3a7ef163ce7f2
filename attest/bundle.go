package attest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bundle is a caller-submitted record asserting an execution occurred. The
// node never builds meaning from it beyond canonicalizing, hashing, and
// comparing; it is kept as the decoded JSON value.
type Bundle map[string]any

// ParseBundle decodes bundle JSON. Unknown fields are kept: they are part of
// the caller's certificate scope and must survive into recomputation.
func ParseBundle(data []byte) (Bundle, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	return b, nil
}

// Kind returns the bundle variant tag. The CER constant selects the AI
// execution verifier; any other non-empty type is a CodeMode bundle.
func (b Bundle) Kind() string {
	t, _ := b["bundleType"].(string)
	if t == KindAIExecutionCER {
		return KindAIExecutionCER
	}
	return KindCodeMode
}

// stringField returns b[key] if it is a non-empty string.
func stringField(b map[string]any, key string) (string, bool) {
	s, ok := b[key].(string)
	return s, ok && s != ""
}

// objectField returns b[key] if it is a JSON object.
func objectField(b map[string]any, key string) (map[string]any, bool) {
	m, ok := b[key].(map[string]any)
	return m, ok
}
