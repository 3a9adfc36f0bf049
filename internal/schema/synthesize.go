// Package schema turns check expectations into JSON Schema documents and
// evaluates subject state against them.
//
// Synthesis is pure: inputs are deep-copied, never mutated, and
// re-synthesizing from a synthesized schema with the same shorthand inputs
// yields an equivalent document. Validation is delegated to
// santhosh-tekuri/jsonschema, the same library the subject interpreter uses
// for its own schema opcodes.
package schema

import "sort"

// Synthesize merges an explicitly authored schema with the shorthand
// expectation fields into one validation schema.
//
// Rules, applied in order:
//
//  1. Start from a deep copy of explicit, or an empty object-typed shell.
//  2. expectedStack, when present, becomes a const constraint on the
//     "stack" property, overwriting any prior constraint.
//  3. A missing "stack" constraint defaults to "empty array required".
//  4. expectedVariables, when present, merges into the "variables"
//     property: a const constraint per named variable, each name appended
//     to that property's required list (merged with pre-existing entries).
//  5. A missing "variables" constraint defaults to "no variables permitted".
//  6. The top-level required list gains "stack" and "variables" if absent.
//
// Synthesize returns nil when explicit is nil and neither shorthand field
// is present, signaling "no schema-based expectation" so the caller can
// fall through to the error-message strategy.
//
// A non-nil empty expectedStack or expectedVariables is meaningful: it pins
// the respective part of the state to be empty.
func Synthesize(explicit map[string]any, expectedStack []any, expectedVariables map[string]any) map[string]any {
	if explicit == nil && expectedStack == nil && expectedVariables == nil {
		return nil
	}

	var doc map[string]any
	if explicit != nil {
		doc = deepCopyObject(explicit)
	} else {
		doc = map[string]any{"type": "object"}
	}

	props, ok := doc["properties"].(map[string]any)
	if !ok {
		props = map[string]any{}
		doc["properties"] = props
	}

	if expectedStack != nil {
		props["stack"] = map[string]any{
			"const": deepCopyValue(expectedStack),
		}
	}
	if _, ok := props["stack"]; !ok {
		props["stack"] = map[string]any{
			"type":     "array",
			"maxItems": 0,
		}
	}

	if expectedVariables != nil {
		props["variables"] = mergeVariables(props["variables"], expectedVariables)
	}
	if _, ok := props["variables"]; !ok {
		props["variables"] = map[string]any{
			"type":          "object",
			"maxProperties": 0,
		}
	}

	doc["required"] = appendMissing(toStringList(doc["required"]), "stack", "variables")

	return doc
}

// mergeVariables builds the "variables" property constraint: object-typed,
// one const constraint per expected variable, all names required. An
// existing constraint from the explicit schema is extended, not replaced.
func mergeVariables(existing any, expected map[string]any) map[string]any {
	varsSchema, ok := existing.(map[string]any)
	if ok {
		varsSchema = deepCopyObject(varsSchema)
	} else {
		varsSchema = map[string]any{}
	}
	varsSchema["type"] = "object"

	varProps, ok := varsSchema["properties"].(map[string]any)
	if !ok {
		varProps = map[string]any{}
		varsSchema["properties"] = varProps
	}

	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	// Deterministic required order keeps synthesis idempotent and the
	// resulting document stable for golden comparison.
	sort.Strings(names)

	for _, name := range names {
		varProps[name] = map[string]any{
			"const": deepCopyValue(expected[name]),
		}
	}
	varsSchema["required"] = appendMissing(toStringList(varsSchema["required"]), names...)

	return varsSchema
}

// toStringList normalizes a schema "required" entry to []string. JSON
// decoding yields []any; a synthesized document carries []string.
func toStringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// appendMissing appends each name not already present, preserving order.
func appendMissing(list []string, names ...string) []string {
	for _, name := range names {
		found := false
		for _, have := range list {
			if have == name {
				found = true
				break
			}
		}
		if !found {
			list = append(list, name)
		}
	}
	return list
}

// deepCopyObject returns a structurally independent copy of a JSON object.
func deepCopyObject(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}
	return dst
}

// deepCopyValue copies any JSON-decoded value. Scalars are immutable and
// returned as-is.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyObject(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
