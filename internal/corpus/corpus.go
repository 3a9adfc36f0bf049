// Package corpus discovers and parses conformance check definitions.
//
// A corpus is a directory of JSON files. Each file holds either a single
// check object or an array of check objects. Files are visited in
// lexicographic name order so a run is reproducible; checks within a file
// keep their on-file order.
//
// A malformed file does not poison the corpus: its parse error is recorded
// on the corresponding File entry and the file contributes zero checks.
// The runner decides whether a recorded parse error aborts the run
// (fail-fast) or is merely reported.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Check is one declared conformance test case.
//
// A check is executable only if Program is present. It is verifiable only
// if it carries a schema-capable expectation (Schema, ExpectedStack or
// ExpectedVariables) or an ExpectedError substring. A check with neither is
// skipped, not failed.
//
// ExpectedError and schema expectations select mutually exclusive
// verification strategies; when ExpectedError is set it wins regardless of
// any schema fields on the check.
type Check struct {
	// Description labels the check in reports. If empty, the runner
	// substitutes a positional placeholder.
	Description string `json:"description,omitempty"`

	// Program is the JSON value fed to the subject binary. Required for
	// execution; a check without a program is skipped.
	Program json.RawMessage `json:"jisp_program,omitempty"`

	// Schema is an explicitly authored validation schema. Combinable with
	// the shorthand fields below; shorthand constraints overwrite
	// overlapping properties.
	Schema map[string]any `json:"validation_schema,omitempty"`

	// ExpectedStack is shorthand for "the final stack must equal exactly
	// this array". A present-but-empty array means the stack must be empty.
	ExpectedStack []any `json:"expected_stack,omitempty"`

	// ExpectedVariables is shorthand for "each named variable must equal
	// exactly this value, and all named variables must be present".
	ExpectedVariables map[string]any `json:"expected_variables,omitempty"`

	// ExpectedError selects the error-path strategy: the subject must exit
	// non-zero and its reported error message must contain this substring.
	ExpectedError string `json:"expected_error_message,omitempty"`
}

// HasProgram reports whether the check carries a program to execute.
func (c *Check) HasProgram() bool {
	return len(c.Program) > 0
}

// HasSchemaExpectation reports whether any schema-capable expectation field
// is present. A present-but-empty expected_stack or expected_variables still
// counts: it constrains the state to be empty.
func (c *Check) HasSchemaExpectation() bool {
	return c.Schema != nil || c.ExpectedStack != nil || c.ExpectedVariables != nil
}

// HasExpectation reports whether the check can be verified at all.
func (c *Check) HasExpectation() bool {
	return c.ExpectedError != "" || c.HasSchemaExpectation()
}

// File is one corpus file's contribution: either its parsed checks or the
// parse error that voided it. Exactly one of Checks / ParseErr is set.
type File struct {
	// Path is the file's path as discovered, used as the source identifier
	// in reports.
	Path string

	// Checks are the file's check definitions in on-file order.
	Checks []Check

	// ParseErr records a malformed file. The file contributed zero checks.
	ParseErr error
}

// Corpus is the ordered collection of check files discovered from a
// directory. Read-only once loaded.
type Corpus struct {
	// Dir is the directory the corpus was loaded from.
	Dir string

	// Files are the discovered corpus files in lexicographic name order.
	Files []File
}

// Len returns the number of checks across all well-formed files.
func (c *Corpus) Len() int {
	n := 0
	for _, f := range c.Files {
		n += len(f.Checks)
	}
	return n
}

// ErrorKind categorizes corpus-level errors.
type ErrorKind string

const (
	// ErrNotADirectory indicates the corpus path is missing or not a directory.
	ErrNotADirectory ErrorKind = "NOT_A_DIRECTORY"

	// ErrUnreadable indicates the corpus directory could not be enumerated.
	ErrUnreadable ErrorKind = "UNREADABLE"
)

// Error is a fatal corpus-level failure. Per-file parse errors are not
// Errors; they are recorded on the File entry instead.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load discovers and parses the check corpus under dir.
//
// Only files named *.json are considered. An empty result set is a valid,
// vacuous corpus, not an error. A missing or non-directory path yields an
// *Error with ErrNotADirectory.
func Load(dir string) (*Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &Error{Kind: ErrNotADirectory, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Kind: ErrNotADirectory, Path: dir}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &Error{Kind: ErrUnreadable, Path: dir, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	c := &Corpus{Dir: dir}
	for _, name := range names {
		path := filepath.Join(dir, name)
		c.Files = append(c.Files, loadFile(path))
	}
	return c, nil
}

// loadFile parses one corpus file. A file whose content is a single check
// object (not an array) is coerced into a one-element list.
func loadFile(path string) File {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{Path: path, ParseErr: fmt.Errorf("read corpus file: %w", err)}
	}

	var checks []Check
	if err := json.Unmarshal(data, &checks); err != nil {
		// Not an array; try a single object.
		var single Check
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return File{Path: path, ParseErr: fmt.Errorf("parse corpus file: %w", err2)}
		}
		checks = []Check{single}
	}

	return File{Path: path, Checks: checks}
}
