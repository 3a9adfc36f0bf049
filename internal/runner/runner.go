// Package runner drives a conformance run: it walks the corpus in order,
// synthesizes each check's expectation, invokes the subject, verifies the
// outcome and aggregates a Report.
//
// Execution is fully sequential. At most one subject invocation is ever
// outstanding, and the only mutable state is the Report being built.
// Fail-fast is an explicit signal returned up the call chain, not an
// error: the first failure anywhere (a malformed corpus file or a failing
// check) aborts the run and the partial Report is still the one reported.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jisp-lang/conformance/internal/corpus"
	"github.com/jisp-lang/conformance/internal/schema"
	"github.com/jisp-lang/conformance/internal/subject"
	"github.com/jisp-lang/conformance/internal/verify"
)

// signal is the fail-fast control value threaded out of each step.
type signal int

const (
	continueRun signal = iota
	abortRun
)

// Invoker is the subject-execution capability the runner depends on.
type Invoker interface {
	Invoke(ctx context.Context, program json.RawMessage) (subject.RunResult, error)
}

// Runner executes a loaded corpus against the subject.
type Runner struct {
	invoker  Invoker
	failFast bool
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithFailFast aborts the run on the first failure instead of running the
// corpus to completion. Off by default.
func WithFailFast(ff bool) Option {
	return func(r *Runner) {
		r.failFast = ff
	}
}

// WithLogger attaches a logger for per-check progress.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithClock overrides the report timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New creates a Runner that invokes the subject through inv.
func New(inv Invoker, opts ...Option) *Runner {
	r := &Runner{
		invoker: inv,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every check in the corpus in order and returns the
// aggregated report. The context is passed through to each subject
// invocation; no timeout is imposed here.
func (r *Runner) Run(ctx context.Context, c *corpus.Corpus) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		FailFast:  r.failFast,
		StartedAt: r.now(),
	}

	for _, file := range c.Files {
		if r.runFile(ctx, file, report) == abortRun {
			report.Aborted = true
			break
		}
	}

	report.FinishedAt = r.now()
	return report
}

// runFile processes one corpus file: either records its parse failure or
// executes its checks in on-file order.
func (r *Runner) runFile(ctx context.Context, file corpus.File, report *Report) signal {
	if file.ParseErr != nil {
		r.logger.Warn("skipping malformed corpus file", "file", file.Path, "err", file.ParseErr)
		report.CorpusFailures++
		report.Results = append(report.Results, CheckResult{
			Source: file.Path,
			Status: StatusFail,
			Diagnostic: &verify.Diagnostic{
				Kind:   verify.KindCorpusParse,
				Detail: file.ParseErr.Error(),
			},
		})
		if r.failFast {
			return abortRun
		}
		return continueRun
	}

	for i, check := range file.Checks {
		if r.runCheck(ctx, file.Path, i, check, report) == abortRun {
			return abortRun
		}
	}
	return continueRun
}

// runCheck executes and verifies a single check, recording the outcome.
func (r *Runner) runCheck(ctx context.Context, source string, index int, check corpus.Check, report *Report) signal {
	desc := check.Description
	if desc == "" {
		desc = fmt.Sprintf("check #%d", index+1)
	}

	if !check.HasProgram() {
		r.skip(report, source, desc, "no jisp_program")
		return continueRun
	}
	if !check.HasExpectation() {
		r.skip(report, source, desc, "no expectation (schema fields or expected_error_message)")
		return continueRun
	}

	var expectation map[string]any
	if check.ExpectedError == "" {
		expectation = schema.Synthesize(check.Schema, check.ExpectedStack, check.ExpectedVariables)
	}

	r.logger.Debug("running check", "source", source, "check", desc)

	outcome := r.execute(ctx, check, expectation)
	return r.record(report, source, desc, outcome)
}

// execute invokes the subject and verifies the result. Invocation errors
// are converted into execution-error failures here, so one broken check
// never escapes past its own result.
func (r *Runner) execute(ctx context.Context, check corpus.Check, expectation map[string]any) verify.Outcome {
	result, err := r.invoker.Invoke(ctx, check.Program)
	if err != nil {
		return verify.Failed(verify.Diagnostic{
			Kind:   verify.KindExecutionError,
			Detail: err.Error(),
		})
	}
	return verify.Verify(expectation, check.ExpectedError, result)
}

// record folds one verified outcome into the report and yields the
// fail-fast signal.
func (r *Runner) record(report *Report, source, desc string, outcome verify.Outcome) signal {
	report.Total++
	if outcome.Pass {
		report.Passed++
		report.Results = append(report.Results, CheckResult{
			Source:      source,
			Description: desc,
			Status:      StatusPass,
		})
		return continueRun
	}

	report.Results = append(report.Results, CheckResult{
		Source:      source,
		Description: desc,
		Status:      StatusFail,
		Diagnostic:  outcome.Diagnostic,
	})
	if r.failFast {
		return abortRun
	}
	return continueRun
}

func (r *Runner) skip(report *Report, source, desc, reason string) {
	r.logger.Info("skipping check", "source", source, "check", desc, "reason", reason)
	report.Skipped++
	report.Results = append(report.Results, CheckResult{
		Source:      source,
		Description: desc,
		Status:      StatusSkip,
		SkipReason:  reason,
	})
}
