package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/jisp-lang/conformance/internal/runner"
	"github.com/jisp-lang/conformance/internal/schema"
	"github.com/jisp-lang/conformance/internal/verify"
)

// render runs Render with color disabled so output is byte-stable.
func render(t *testing.T, rep *runner.Report) string {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	Render(&buf, rep)
	return buf.String()
}

func TestRender_MixedReportGolden(t *testing.T) {
	rep := &runner.Report{
		Results: []runner.CheckResult{
			{
				Source:      "tests/01_basics.json",
				Description: "push one",
				Status:      runner.StatusPass,
			},
			{
				Source:      "tests/01_basics.json",
				Description: "check #2",
				Status:      runner.StatusFail,
				Diagnostic: &verify.Diagnostic{
					Kind:     verify.KindMessageMismatch,
					Expected: "division by zero",
					Actual:   "stack underflow",
				},
			},
			{
				Source:      "tests/01_basics.json",
				Description: "later",
				Status:      runner.StatusSkip,
				SkipReason:  "no jisp_program",
			},
			{
				Source:      "tests/02_vars.json",
				Description: "check #1",
				Status:      runner.StatusFail,
				Diagnostic: &verify.Diagnostic{
					Kind: verify.KindSchemaViolation,
					Violations: []schema.Violation{
						{
							InstancePath: "/stack",
							KeywordPath:  "/properties/stack/const",
							Message:      "value must be [3]",
						},
					},
					Expected: `{"x":1}`,
					Actual:   `{"stack":[3,0],"variables":{}}`,
				},
			},
		},
		Total:   3,
		Passed:  1,
		Skipped: 1,
	}

	out := render(t, rep)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "mixed_report", []byte(out))
}

func TestRender_AllPassed(t *testing.T) {
	rep := &runner.Report{
		Results: []runner.CheckResult{
			{Source: "tests/a.json", Description: "check #1", Status: runner.StatusPass},
		},
		Total:  1,
		Passed: 1,
	}

	out := render(t, rep)
	assert.Contains(t, out, "Summary: 1/1 passed\n")
	assert.Contains(t, out, "All checks passed.")
}

func TestRender_VacuousCorpus(t *testing.T) {
	out := render(t, &runner.Report{})
	assert.Contains(t, out, "No checks found.")
	assert.NotContains(t, out, "All checks passed")
}

func TestRender_VacuousWithSkips(t *testing.T) {
	rep := &runner.Report{
		Results: []runner.CheckResult{
			{Source: "tests/a.json", Description: "check #1", Status: runner.StatusSkip, SkipReason: "no expectation (schema fields or expected_error_message)"},
		},
		Skipped: 1,
	}

	out := render(t, rep)
	assert.Contains(t, out, "No runnable checks found (1 skipped).")
}

func TestRender_AbortedRun(t *testing.T) {
	rep := &runner.Report{
		FailFast: true,
		Results: []runner.CheckResult{
			{Source: "tests/a.json", Description: "check #1", Status: runner.StatusFail,
				Diagnostic: &verify.Diagnostic{Kind: verify.KindUnexpectedFailure, Stderr: "boom"}},
		},
		Total:   1,
		Aborted: true,
	}

	out := render(t, rep)
	assert.Contains(t, out, "subject execution failed unexpectedly")
	assert.Contains(t, out, "stderr: boom")
	assert.Contains(t, out, "Run aborted on first failure (fail-fast).")
}

func TestRender_CorpusParseFailure(t *testing.T) {
	rep := &runner.Report{
		Results: []runner.CheckResult{
			{Source: "tests/broken.json", Status: runner.StatusFail,
				Diagnostic: &verify.Diagnostic{Kind: verify.KindCorpusParse, Detail: "parse corpus file: unexpected end of JSON input"}},
		},
		CorpusFailures: 1,
	}

	out := render(t, rep)
	assert.Contains(t, out, "✗ corpus file")
	assert.Contains(t, out, "malformed corpus file, contributed no checks")
	assert.Contains(t, out, "1 malformed corpus file(s)")
}
