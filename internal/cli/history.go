package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jisp-lang/conformance/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conformance runs",
		Long: `List runs previously recorded with "jispconf run --record",
newest first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func listHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "config error", err)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "history database error", err)
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "history query failed", err)
	}

	if opts.Format == "json" {
		return writeJSON(out, CLIResponse{Status: "ok", Data: runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}
	for _, run := range runs {
		verdict := "passed"
		switch {
		case run.Aborted:
			verdict = "aborted"
		case run.Total == 0 || run.Passed < run.Total || run.CorpusFailures > 0:
			verdict = "failed"
		}
		fmt.Fprintf(out, "%s  %s  %d/%d passed", run.StartedAt.Local().Format(time.DateTime), run.ID, run.Passed, run.Total)
		if run.Skipped > 0 {
			fmt.Fprintf(out, " (%d skipped)", run.Skipped)
		}
		fmt.Fprintf(out, "  [%s]\n", verdict)
	}
	return nil
}
