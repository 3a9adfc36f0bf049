package subject

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Invoker executes the subject binary once per check, transferring the
// program through a scratch file passed as the sole argument.
//
// The scratch file is exclusively owned by the in-flight invocation:
// created immediately before the subprocess starts and removed on every
// exit path before Invoke returns, so repeated invocations never race on a
// shared channel.
type Invoker struct {
	runner CommandRunner
	binary string

	// scratchDir overrides the scratch file location; empty means the
	// system temp directory.
	scratchDir string
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithRunner substitutes the subprocess runner, for tests.
func WithRunner(r CommandRunner) InvokerOption {
	return func(inv *Invoker) {
		inv.runner = r
	}
}

// WithScratchDir places scratch program files under dir instead of the
// system temp directory.
func WithScratchDir(dir string) InvokerOption {
	return func(inv *Invoker) {
		inv.scratchDir = dir
	}
}

// NewInvoker creates an Invoker for the subject binary at the given path.
func NewInvoker(binary string, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		runner: ExecRunner{},
		binary: binary,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke serializes program to a scratch file, runs the subject with the
// file path as its only argument, and captures the outcome.
//
// The returned error is an execution failure (scratch file unwritable,
// binary missing); a non-zero subject exit is a normal RunResult and is
// interpreted by the verifier, not here.
func (inv *Invoker) Invoke(ctx context.Context, program json.RawMessage) (RunResult, error) {
	scratch, err := os.CreateTemp(inv.scratchDir, "jispconf-program-*.json")
	if err != nil {
		return RunResult{}, fmt.Errorf("create scratch program file: %w", err)
	}
	path := scratch.Name()
	defer os.Remove(path)

	if _, err := scratch.Write(program); err != nil {
		scratch.Close()
		return RunResult{}, fmt.Errorf("write scratch program file: %w", err)
	}
	if err := scratch.Close(); err != nil {
		return RunResult{}, fmt.Errorf("close scratch program file: %w", err)
	}

	result, err := inv.runner.Run(ctx, inv.binary, path)
	if err != nil {
		return RunResult{}, fmt.Errorf("invoke subject: %w", err)
	}
	return result, nil
}
