// Package report renders a run report for humans. All diagnostic kinds are
// turned into text here and only here; the rest of the engine deals in
// structured values.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/jisp-lang/conformance/internal/runner"
	"github.com/jisp-lang/conformance/internal/verify"
)

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	skipMark = color.New(color.FgYellow).SprintFunc()
	heading  = color.New(color.FgCyan).SprintFunc()
)

// Render writes the human-readable report. Color degrades automatically
// when w is not a terminal (and honors NO_COLOR).
func Render(w io.Writer, rep *runner.Report) {
	source := ""
	for _, res := range rep.Results {
		if res.Source != source {
			source = res.Source
			fmt.Fprintf(w, "%s\n", heading("==> "+source))
		}
		renderResult(w, res)
	}

	if len(rep.Results) > 0 {
		fmt.Fprintln(w)
	}
	renderSummary(w, rep)
}

func renderResult(w io.Writer, res runner.CheckResult) {
	switch res.Status {
	case runner.StatusPass:
		fmt.Fprintf(w, "  %s %s\n", passMark("✓"), res.Description)
	case runner.StatusSkip:
		fmt.Fprintf(w, "  %s %s (skipped: %s)\n", skipMark("-"), res.Description, res.SkipReason)
	case runner.StatusFail:
		label := res.Description
		if label == "" {
			// File-level failure (malformed corpus file).
			label = "corpus file"
		}
		fmt.Fprintf(w, "  %s %s\n", failMark("✗"), label)
		if res.Diagnostic != nil {
			renderDiagnostic(w, res.Diagnostic)
		}
	}
}

// renderDiagnostic expands one structured diagnostic into indented detail
// lines.
func renderDiagnostic(w io.Writer, d *verify.Diagnostic) {
	switch d.Kind {
	case verify.KindUnexpectedSuccess:
		fmt.Fprintf(w, "      expected failure, subject reported success\n")
		fmt.Fprintf(w, "      expected error containing: %q\n", d.Expected)
		writeStream(w, "stdout", d.Stdout)
	case verify.KindUnexpectedFailure:
		fmt.Fprintf(w, "      subject execution failed unexpectedly\n")
		writeStream(w, "stdout", d.Stdout)
		writeStream(w, "stderr", d.Stderr)
	case verify.KindMalformedOutput:
		fmt.Fprintf(w, "      %s\n", d.Detail)
		writeStream(w, "stdout", d.Stdout)
		writeStream(w, "stderr", d.Stderr)
	case verify.KindMessageMismatch:
		fmt.Fprintf(w, "      error message mismatch\n")
		fmt.Fprintf(w, "      expected substring: %q\n", d.Expected)
		fmt.Fprintf(w, "      actual message:     %q\n", d.Actual)
	case verify.KindSchemaViolation:
		fmt.Fprintf(w, "      state does not satisfy expectation\n")
		for _, v := range d.Violations {
			fmt.Fprintf(w, "      at %s\n", v.String())
		}
		fmt.Fprintf(w, "      expected schema: %s\n", d.Expected)
		fmt.Fprintf(w, "      actual state:    %s\n", d.Actual)
	case verify.KindBadExpectation:
		fmt.Fprintf(w, "      invalid expectation schema in check definition\n")
		fmt.Fprintf(w, "      %s\n", d.Detail)
	case verify.KindExecutionError:
		fmt.Fprintf(w, "      subject invocation failed\n")
		fmt.Fprintf(w, "      %s\n", d.Detail)
	case verify.KindCorpusParse:
		fmt.Fprintf(w, "      malformed corpus file, contributed no checks\n")
		fmt.Fprintf(w, "      %s\n", d.Detail)
	}
}

// writeStream prints a captured stream when non-empty.
func writeStream(w io.Writer, name, content string) {
	if content == "" {
		return
	}
	fmt.Fprintf(w, "      %s: %s\n", name, content)
}

func renderSummary(w io.Writer, rep *runner.Report) {
	if rep.Vacuous() {
		if rep.Skipped > 0 {
			fmt.Fprintf(w, "No runnable checks found (%d skipped).\n", rep.Skipped)
		} else {
			fmt.Fprintln(w, "No checks found.")
		}
		return
	}

	fmt.Fprintf(w, "Summary: %d/%d passed", rep.Passed, rep.Total)
	if rep.Failed() > 0 {
		fmt.Fprintf(w, ", %d failed", rep.Failed())
	}
	if rep.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", rep.Skipped)
	}
	if rep.CorpusFailures > 0 {
		fmt.Fprintf(w, ", %d malformed corpus file(s)", rep.CorpusFailures)
	}
	fmt.Fprintln(w)

	if rep.Aborted {
		fmt.Fprintln(w, failMark("Run aborted on first failure (fail-fast)."))
		return
	}
	if rep.Succeeded() {
		fmt.Fprintln(w, passMark("All checks passed."))
	} else {
		fmt.Fprintln(w, failMark("Run failed."))
	}
}
