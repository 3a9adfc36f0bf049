// Package subject manages the interpreter binary under test: building it
// from source when stale and invoking it once per check.
//
// The package never interprets the subject's output. Exit status, stdout
// and stderr are captured verbatim and handed to the verifier.
package subject

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// RunResult captures one finished subprocess execution.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner abstracts subprocess execution so the invoker and build
// gate can be exercised in tests without spawning real processes.
//
// Run blocks until the command exits. A non-zero exit status is not an
// error; it is reported through RunResult.ExitCode. The returned error is
// reserved for executions that could not complete at all (binary missing,
// permissions, context cancellation).
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}

// ExecRunner is the production CommandRunner backed by os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}
