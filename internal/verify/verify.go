package verify

import (
	"encoding/json"
	"strings"

	"github.com/jisp-lang/conformance/internal/schema"
	"github.com/jisp-lang/conformance/internal/subject"
)

// errorPayload is the subject's contractual failure output.
type errorPayload struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Verify decides pass/fail for one invocation result.
//
// expectedError selects the error-path strategy when non-empty; otherwise
// expectation must be the non-nil synthesized schema and the schema path is
// taken. The caller guarantees at least one of the two is present (checks
// with neither are skipped upstream and never reach the verifier).
func Verify(expectation map[string]any, expectedError string, result subject.RunResult) Outcome {
	if expectedError != "" {
		return verifyError(expectedError, result)
	}
	return verifyState(expectation, result)
}

// verifyError handles checks that expect the subject to fail with a
// message containing the expected substring.
func verifyError(expectedError string, result subject.RunResult) Outcome {
	if result.ExitCode == 0 {
		return Failed(Diagnostic{
			Kind:     KindUnexpectedSuccess,
			Expected: expectedError,
			Stdout:   result.Stdout,
		})
	}

	var payload errorPayload
	if err := json.Unmarshal([]byte(result.Stdout), &payload); err != nil {
		return Failed(Diagnostic{
			Kind:   KindMalformedOutput,
			Detail: "expected a structured error payload on stdout",
			Stdout: result.Stdout,
			Stderr: result.Stderr,
		})
	}

	// Absent error.message reads as the empty string and fails the
	// substring test against any non-empty expectation.
	if strings.Contains(payload.Error.Message, expectedError) {
		return Passed()
	}
	return Failed(Diagnostic{
		Kind:     KindMessageMismatch,
		Expected: expectedError,
		Actual:   payload.Error.Message,
		Stdout:   result.Stdout,
	})
}

// verifyState handles checks that expect the subject to succeed with a
// final state satisfying the expectation schema.
func verifyState(expectation map[string]any, result subject.RunResult) Outcome {
	if result.ExitCode != 0 {
		return Failed(Diagnostic{
			Kind:   KindUnexpectedFailure,
			Stdout: result.Stdout,
			Stderr: result.Stderr,
		})
	}

	var state any
	if err := json.Unmarshal([]byte(result.Stdout), &state); err != nil {
		return Failed(Diagnostic{
			Kind:   KindMalformedOutput,
			Detail: "subject stdout is not valid JSON",
			Stdout: result.Stdout,
		})
	}

	violations, err := schema.Validate(expectation, state)
	if err != nil {
		return Failed(Diagnostic{
			Kind:   KindBadExpectation,
			Detail: err.Error(),
		})
	}
	if len(violations) > 0 {
		return Failed(Diagnostic{
			Kind:       KindSchemaViolation,
			Expected:   compactJSON(expectation),
			Actual:     compactJSON(state),
			Violations: violations,
		})
	}
	return Passed()
}

// compactJSON serializes a value for display in diagnostics. Serialization
// failures degrade to an empty string; the violations already carry the
// specifics.
func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
