package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is one schema constraint the subject's state failed to satisfy.
// Rendering to text happens at the report boundary, not here.
type Violation struct {
	// InstancePath is a JSON-pointer into the validated state ("" is the root).
	InstancePath string `json:"instance_path"`

	// KeywordPath locates the violated constraint within the schema.
	KeywordPath string `json:"keyword_path"`

	// Message is the validator's description of the violation.
	Message string `json:"message"`
}

func (v Violation) String() string {
	path := v.InstancePath
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, v.Message)
}

// Validate evaluates instance against the synthesized schema document.
//
// A nil violation slice means the instance conforms. A non-nil error means
// the schema document itself could not be compiled, which indicates a
// malformed explicit schema in the check definition rather than a subject
// failure.
func Validate(doc map[string]any, instance any) ([]Violation, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal expectation schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("expectation.json", strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("add expectation schema: %w", err)
	}
	compiled, err := compiler.Compile("expectation.json")
	if err != nil {
		return nil, fmt.Errorf("compile expectation schema: %w", err)
	}

	err = compiled.Validate(instance)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validate state: %w", err)
	}
	return flatten(verr), nil
}

// flatten walks the validator's cause tree and collects the leaf
// violations, which carry the most specific instance locations.
func flatten(verr *jsonschema.ValidationError) []Violation {
	if len(verr.Causes) == 0 {
		return []Violation{{
			InstancePath: verr.InstanceLocation,
			KeywordPath:  verr.KeywordLocation,
			Message:      verr.Message,
		}}
	}
	var out []Violation
	for _, cause := range verr.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
