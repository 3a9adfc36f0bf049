package runner

import (
	"time"

	"github.com/jisp-lang/conformance/internal/verify"
)

// CheckStatus classifies one per-check result line.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusFail CheckStatus = "fail"
	StatusSkip CheckStatus = "skip"
)

// CheckResult records the outcome of one check (or one voided corpus file)
// for reporting.
type CheckResult struct {
	// Source is the corpus file the check came from.
	Source string `json:"source"`

	// Description labels the check; a positional placeholder when the
	// definition carried none. Empty for file-level results.
	Description string `json:"description,omitempty"`

	Status CheckStatus `json:"status"`

	// SkipReason explains a skip; set only when Status is StatusSkip.
	SkipReason string `json:"skip_reason,omitempty"`

	// Diagnostic carries the structured failure; set only when Status is
	// StatusFail.
	Diagnostic *verify.Diagnostic `json:"diagnostic,omitempty"`
}

// Report is the aggregate result of a whole run, threaded through the run
// as an explicit value and returned to the caller. Counters follow the
// skip policy: skipped checks appear in Skipped only, never in Total or
// Passed.
type Report struct {
	// RunID uniquely identifies this run, for history records.
	RunID string `json:"run_id"`

	FailFast bool `json:"fail_fast"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Results lists every check attempted or skipped, plus one entry per
	// malformed corpus file, in run order.
	Results []CheckResult `json:"results"`

	// Total counts checks that were actually executed and verified.
	Total int `json:"total"`

	// Passed counts executed checks that passed.
	Passed int `json:"passed"`

	// Skipped counts checks excluded from Total: no program or no
	// expectation.
	Skipped int `json:"skipped"`

	// CorpusFailures counts malformed corpus files. They contribute zero
	// checks but still fail the run.
	CorpusFailures int `json:"corpus_failures"`

	// Aborted is set when fail-fast terminated the run early; Results
	// then reflect only the portion of the corpus that was reached.
	Aborted bool `json:"aborted"`
}

// Failed returns the number of executed checks that failed.
func (r *Report) Failed() int {
	return r.Total - r.Passed
}

// Diagnostics returns the failing results in run order.
func (r *Report) Diagnostics() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if res.Status == StatusFail {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded reports overall run success: at least one check ran, every
// executed check passed, and no corpus file was malformed. A vacuous
// corpus is not a success; it is reported distinctly so "no checks found"
// is never conflated with "all checks passed".
func (r *Report) Succeeded() bool {
	return r.Total > 0 && r.Passed == r.Total && r.CorpusFailures == 0
}

// Vacuous reports a run that found nothing to execute and nothing wrong.
func (r *Report) Vacuous() bool {
	return r.Total == 0 && r.CorpusFailures == 0
}
