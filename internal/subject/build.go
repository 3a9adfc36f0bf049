package subject

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ToolchainError indicates the subject binary could not be produced. It is
// fatal to the whole run; no check executes after it.
type ToolchainError struct {
	// Output is the combined toolchain output, for diagnosis.
	Output string

	Err error
}

func (e *ToolchainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("subject build failed: %v", e.Err)
	}
	return "subject build failed"
}

func (e *ToolchainError) Unwrap() error {
	return e.Err
}

// Builder is the build gate for the subject binary. It rebuilds from
// source only when the binary is missing or older than the source.
type Builder struct {
	runner CommandRunner
	goTool string
	logger *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuildRunner substitutes the subprocess runner, for tests.
func WithBuildRunner(r CommandRunner) BuilderOption {
	return func(b *Builder) {
		b.runner = r
	}
}

// WithGoTool overrides the go tool name, for tests.
func WithGoTool(name string) BuilderOption {
	return func(b *Builder) {
		b.goTool = name
	}
}

// WithBuildLogger attaches a logger for build gate decisions.
func WithBuildLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = l
	}
}

// NewBuilder creates a build gate.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		runner: ExecRunner{},
		goTool: "go",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ensure makes a fresh subject binary available at the binary path,
// compiling source with the Go toolchain when needed. force skips the
// staleness check and always rebuilds.
//
// Returns true when a build was actually performed.
func (b *Builder) Ensure(ctx context.Context, source, binary string, force bool) (bool, error) {
	if !force && b.upToDate(source, binary) {
		b.logger.Debug("subject binary up to date", "binary", binary)
		return false, nil
	}

	b.logger.Info("building subject", "source", source, "binary", binary)
	result, err := b.runner.Run(ctx, b.goTool, "build", "-o", binary, source)
	if err != nil {
		return false, &ToolchainError{Err: err}
	}
	if result.ExitCode != 0 {
		output := strings.TrimSpace(result.Stderr + result.Stdout)
		return false, &ToolchainError{
			Output: output,
			Err:    fmt.Errorf("go build exited with code %d", result.ExitCode),
		}
	}
	return true, nil
}

// upToDate reports whether the binary exists and is at least as new as the
// source. Any stat failure forces a rebuild.
func (b *Builder) upToDate(source, binary string) bool {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return false
	}
	binInfo, err := os.Stat(binary)
	if err != nil {
		return false
	}
	return !binInfo.ModTime().Before(srcInfo.ModTime())
}
