package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jisp-lang/conformance/internal/schema"
	"github.com/jisp-lang/conformance/internal/subject"
)

func TestVerify_ErrorPath_SubstringMatch(t *testing.T) {
	result := subject.RunResult{
		ExitCode: 1,
		Stdout:   `{"error":{"message":"runtime error: division by zero at op 4"}}`,
	}

	outcome := Verify(nil, "division by zero", result)
	assert.True(t, outcome.Pass)
	assert.Nil(t, outcome.Diagnostic)
}

func TestVerify_ErrorPath_SubjectSucceededUnexpectedly(t *testing.T) {
	result := subject.RunResult{
		ExitCode: 0,
		Stdout:   `{"stack":[],"variables":{}}`,
	}

	outcome := Verify(nil, "division by zero", result)
	require.False(t, outcome.Pass)
	require.NotNil(t, outcome.Diagnostic)
	assert.Equal(t, KindUnexpectedSuccess, outcome.Diagnostic.Kind)
	assert.Contains(t, outcome.Diagnostic.Stdout, `"stack"`)
}

func TestVerify_ErrorPath_UnparseableStdout(t *testing.T) {
	result := subject.RunResult{ExitCode: 1, Stdout: "panic: nil map write\n"}

	outcome := Verify(nil, "division by zero", result)
	require.False(t, outcome.Pass)
	assert.Equal(t, KindMalformedOutput, outcome.Diagnostic.Kind)
	assert.Equal(t, "panic: nil map write\n", outcome.Diagnostic.Stdout)
}

func TestVerify_ErrorPath_MessageMismatch(t *testing.T) {
	result := subject.RunResult{
		ExitCode: 1,
		Stdout:   `{"error":{"message":"stack underflow"}}`,
	}

	outcome := Verify(nil, "division by zero", result)
	require.False(t, outcome.Pass)
	assert.Equal(t, KindMessageMismatch, outcome.Diagnostic.Kind)
	assert.Equal(t, "division by zero", outcome.Diagnostic.Expected)
	assert.Equal(t, "stack underflow", outcome.Diagnostic.Actual)
}

func TestVerify_ErrorPath_MissingMessageReadsAsEmpty(t *testing.T) {
	result := subject.RunResult{ExitCode: 2, Stdout: `{"error":{}}`}

	outcome := Verify(nil, "anything", result)
	require.False(t, outcome.Pass)
	assert.Equal(t, KindMessageMismatch, outcome.Diagnostic.Kind)
	assert.Empty(t, outcome.Diagnostic.Actual)
}

func TestVerify_ErrorPathWinsOverSchemaFields(t *testing.T) {
	// expected_error_message selects the error strategy even when a
	// schema was synthesized from other fields on the check.
	expectation := schema.Synthesize(nil, []any{}, nil)
	result := subject.RunResult{
		ExitCode: 1,
		Stdout:   `{"error":{"message":"boom"}}`,
	}

	outcome := Verify(expectation, "boom", result)
	assert.True(t, outcome.Pass)
}

func TestVerify_SchemaPath_Conforming(t *testing.T) {
	expectation := schema.Synthesize(nil, []any{float64(3)}, nil)
	result := subject.RunResult{
		ExitCode: 0,
		Stdout:   `{"stack":[3],"variables":{}}`,
	}

	outcome := Verify(expectation, "", result)
	assert.True(t, outcome.Pass)
}

func TestVerify_SchemaPath_StackMismatch(t *testing.T) {
	expectation := schema.Synthesize(nil, []any{float64(3)}, nil)
	result := subject.RunResult{
		ExitCode: 0,
		Stdout:   `{"stack":[3,0],"variables":{}}`,
	}

	outcome := Verify(expectation, "", result)
	require.False(t, outcome.Pass)
	require.Equal(t, KindSchemaViolation, outcome.Diagnostic.Kind)
	require.NotEmpty(t, outcome.Diagnostic.Violations)

	found := false
	for _, v := range outcome.Diagnostic.Violations {
		if v.InstancePath == "/stack" {
			found = true
		}
	}
	assert.True(t, found, "violation should point at /stack, got %v", outcome.Diagnostic.Violations)
	assert.Contains(t, outcome.Diagnostic.Actual, `"stack":[3,0]`)
}

func TestVerify_SchemaPath_SubjectFailedUnexpectedly(t *testing.T) {
	expectation := schema.Synthesize(nil, []any{}, nil)
	result := subject.RunResult{
		ExitCode: 1,
		Stdout:   `{"error":{"message":"stack underflow"}}`,
		Stderr:   "interpreter trace",
	}

	outcome := Verify(expectation, "", result)
	require.False(t, outcome.Pass)
	assert.Equal(t, KindUnexpectedFailure, outcome.Diagnostic.Kind)
	assert.Equal(t, "interpreter trace", outcome.Diagnostic.Stderr)
	assert.Contains(t, outcome.Diagnostic.Stdout, "stack underflow")
}

func TestVerify_SchemaPath_InvalidJSONFromSubject(t *testing.T) {
	expectation := schema.Synthesize(nil, []any{}, nil)
	result := subject.RunResult{ExitCode: 0, Stdout: "not json"}

	outcome := Verify(expectation, "", result)
	require.False(t, outcome.Pass)
	assert.Equal(t, KindMalformedOutput, outcome.Diagnostic.Kind)
	assert.Equal(t, "not json", outcome.Diagnostic.Stdout)
}

func TestVerify_SchemaPath_UncompilableExpectation(t *testing.T) {
	expectation := map[string]any{"type": 42}
	result := subject.RunResult{ExitCode: 0, Stdout: `{"stack":[],"variables":{}}`}

	outcome := Verify(expectation, "", result)
	require.False(t, outcome.Pass)
	assert.Equal(t, KindBadExpectation, outcome.Diagnostic.Kind)
}

func TestVerify_SchemaPath_VariablesConstraint(t *testing.T) {
	expectation := schema.Synthesize(nil, []any{}, map[string]any{"count": float64(2)})

	pass := Verify(expectation, "", subject.RunResult{
		ExitCode: 0,
		Stdout:   `{"stack":[],"variables":{"count":2}}`,
	})
	assert.True(t, pass.Pass)

	fail := Verify(expectation, "", subject.RunResult{
		ExitCode: 0,
		Stdout:   `{"stack":[],"variables":{"count":3}}`,
	})
	require.False(t, fail.Pass)
	assert.Equal(t, KindSchemaViolation, fail.Diagnostic.Kind)
}
