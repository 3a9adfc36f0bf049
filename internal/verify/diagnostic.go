// Package verify decides pass/fail for one check against one subject
// invocation.
//
// Two disjoint strategies exist. A check with an expected error message
// takes the error path: the subject must fail and report a message
// containing the expected substring. Every other verifiable check takes the
// schema path: the subject must succeed and its reported state must satisfy
// the synthesized expectation schema.
//
// Failures are described by a closed set of diagnostic kinds carrying
// structured fields; rendering to text happens at the report boundary.
package verify

import (
	"github.com/jisp-lang/conformance/internal/schema"
)

// Kind is a closed enumeration of failure diagnostics.
type Kind string

const (
	// KindUnexpectedSuccess: the check expected a failure but the subject
	// exited zero.
	KindUnexpectedSuccess Kind = "UNEXPECTED_SUCCESS"

	// KindUnexpectedFailure: the check expected success but the subject
	// exited non-zero.
	KindUnexpectedFailure Kind = "UNEXPECTED_FAILURE"

	// KindMalformedOutput: the subject emitted non-JSON where well-formed
	// JSON was contractually expected.
	KindMalformedOutput Kind = "MALFORMED_OUTPUT"

	// KindMessageMismatch: the subject failed as expected but its error
	// message did not contain the expected substring.
	KindMessageMismatch Kind = "MESSAGE_MISMATCH"

	// KindSchemaViolation: the subject's reported state does not satisfy
	// the expectation schema.
	KindSchemaViolation Kind = "SCHEMA_VIOLATION"

	// KindBadExpectation: the check's own expectation schema could not be
	// compiled. The check definition is at fault, not the subject.
	KindBadExpectation Kind = "BAD_EXPECTATION"

	// KindExecutionError: the subject invocation itself could not run
	// (binary missing, scratch file unwritable). Reported as a check
	// failure, never propagated, so one broken check cannot corrupt the
	// rest of the run.
	KindExecutionError Kind = "EXECUTION_ERROR"

	// KindCorpusParse: a corpus file was malformed and contributed zero
	// checks. Attributed to the file, not to any single check.
	KindCorpusParse Kind = "CORPUS_PARSE"
)

// Diagnostic describes one failure with enough structure for both the text
// report and the JSON report to render it faithfully.
type Diagnostic struct {
	Kind Kind `json:"kind"`

	// Expected and Actual carry the two sides of a mismatch where that is
	// meaningful (message substring vs. reported message, expectation vs.
	// serialized state).
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`

	// Violations lists schema constraint failures for KindSchemaViolation.
	Violations []schema.Violation `json:"violations,omitempty"`

	// Stdout and Stderr attach the subject's raw streams for diagnosis.
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`

	// Detail carries a free-form note for kinds without a natural
	// expected/actual pair (execution errors, parse errors).
	Detail string `json:"detail,omitempty"`
}

// Outcome is the verifier's verdict for one check.
type Outcome struct {
	Pass       bool        `json:"pass"`
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

// Passed is the singleton passing outcome.
func Passed() Outcome {
	return Outcome{Pass: true}
}

// Failed wraps a diagnostic into a failing outcome.
func Failed(d Diagnostic) Outcome {
	return Outcome{Pass: false, Diagnostic: &d}
}
