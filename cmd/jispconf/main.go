// Command jispconf is the conformance harness for the jisp interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/jisp-lang/conformance/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
