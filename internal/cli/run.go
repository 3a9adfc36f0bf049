package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jisp-lang/conformance/internal/config"
	"github.com/jisp-lang/conformance/internal/corpus"
	"github.com/jisp-lang/conformance/internal/history"
	"github.com/jisp-lang/conformance/internal/report"
	"github.com/jisp-lang/conformance/internal/runner"
	"github.com/jisp-lang/conformance/internal/subject"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	FailFast bool
	Rebuild  bool
	Record   bool
	Corpus   string
	Source   string
	Binary   string

	failFastSet bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the subject and run the conformance corpus",
		Long: `Build the jisp interpreter from source (skipped when the binary is
already newer than the source) and execute every check in the corpus.

Exit codes:
  0 - All checks passed (at least one check ran)
  1 - One or more checks failed, the build failed, or the corpus is missing
  2 - Command error (invalid flags, invalid config)

Examples:
  jispconf run
  jispconf run --fail-fast
  jispconf run --corpus ./checks --subject ./build/jisp --format json
  jispconf run --record`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.failFastSet = cmd.Flags().Changed("fail-fast")
			return runConformance(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false,
		"abort the run as soon as a single check fails (default: run the whole corpus)")
	cmd.Flags().BoolVar(&opts.Rebuild, "rebuild", false, "rebuild the subject even if it is up to date")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record this run in the history database")
	cmd.Flags().StringVar(&opts.Corpus, "corpus", "", "check corpus directory (overrides config)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "subject source file (overrides config)")
	cmd.Flags().StringVar(&opts.Binary, "subject", "", "subject binary path (overrides config)")

	return cmd
}

func runConformance(opts *RunOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "config error", err)
	}
	applyRunOverrides(&cfg, opts)

	ctx := cmd.Context()

	// Build gate: no check runs against a stale subject.
	builder := subject.NewBuilder(subject.WithBuildLogger(logger))
	built, err := builder.Ensure(ctx, cfg.Subject.Source, cfg.Subject.Binary, opts.Rebuild)
	if err != nil {
		return buildFailure(opts, out, err)
	}
	if built && opts.Format == "text" {
		fmt.Fprintf(out, "Built subject: %s\n", cfg.Subject.Binary)
	}

	c, err := corpus.Load(cfg.Corpus.Dir)
	if err != nil {
		return corpusFailure(opts, out, err)
	}

	invoker := subject.NewInvoker(cfg.Subject.Binary)
	r := runner.New(invoker,
		runner.WithFailFast(cfg.FailFast),
		runner.WithLogger(logger),
	)
	rep := r.Run(ctx, c)

	if opts.Record {
		if err := recordRun(ctx, cfg.History.Path, rep, logger); err != nil {
			// Recording is best-effort; the run verdict stands.
			logger.Warn("failed to record run", "err", err)
		}
	}

	if opts.Format == "json" {
		return outputRunJSON(out, rep)
	}
	return outputRunText(out, rep)
}

// loadConfig resolves the config file path and loads it. An explicitly
// named file must exist; the default path is optional.
func loadConfig(rootOpts *RootOptions) (config.Config, error) {
	if rootOpts.Config != "" {
		return config.Load(rootOpts.Config)
	}
	return config.Load(config.DefaultPath)
}

// applyRunOverrides layers flag values over the config file.
func applyRunOverrides(cfg *config.Config, opts *RunOptions) {
	if opts.failFastSet {
		cfg.FailFast = opts.FailFast
	}
	if opts.Corpus != "" {
		cfg.Corpus.Dir = opts.Corpus
	}
	if opts.Source != "" {
		cfg.Subject.Source = opts.Source
	}
	if opts.Binary != "" {
		cfg.Subject.Binary = opts.Binary
	}
}

func buildFailure(opts *RunOptions, out io.Writer, err error) error {
	if opts.Format == "json" {
		_ = writeJSON(out, CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: "E_TOOLCHAIN", Message: err.Error()},
		})
		return NewExitError(ExitFailure, "subject build failed")
	}
	return WrapExitError(ExitFailure, "subject build failed", err)
}

func corpusFailure(opts *RunOptions, out io.Writer, err error) error {
	if opts.Format == "json" {
		_ = writeJSON(out, CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: "E_CORPUS", Message: err.Error()},
		})
		return NewExitError(ExitFailure, "corpus error")
	}
	return WrapExitError(ExitFailure, "corpus error", err)
}

func recordRun(ctx context.Context, path string, rep *runner.Report, logger *slog.Logger) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Record(ctx, rep); err != nil {
		return err
	}
	logger.Info("run recorded", "run_id", rep.RunID, "db", path)
	return nil
}

func outputRunJSON(out io.Writer, rep *runner.Report) error {
	resp := CLIResponse{Status: "ok", Data: rep}
	if !rep.Succeeded() {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_CHECKS_FAILED",
			Message: runVerdict(rep),
		}
	}
	if err := writeJSON(out, resp); err != nil {
		return err
	}
	if !rep.Succeeded() {
		return NewExitError(ExitFailure, runVerdict(rep))
	}
	return nil
}

func outputRunText(out io.Writer, rep *runner.Report) error {
	report.Render(out, rep)
	if !rep.Succeeded() {
		return NewExitError(ExitFailure, runVerdict(rep))
	}
	return nil
}

// runVerdict summarizes why a run did not succeed.
func runVerdict(rep *runner.Report) string {
	switch {
	case rep.CorpusFailures > 0 && rep.Failed() == 0:
		return fmt.Sprintf("%d malformed corpus file(s)", rep.CorpusFailures)
	case rep.Vacuous():
		return "no checks were run"
	default:
		return fmt.Sprintf("%d of %d check(s) failed", rep.Failed(), rep.Total)
	}
}

// newLogger builds the CLI logger: verbose mode streams to stderr,
// otherwise logs are discarded.
func newLogger(errOut io.Writer, verbose bool) *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
