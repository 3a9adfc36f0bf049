// Package config loads the harness configuration from jispconf.yaml.
//
// Every setting has a default matching the original jisp workflow, so the
// harness runs without a config file; command-line flags override whatever
// the file provides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file consulted when --config is not given.
const DefaultPath = "jispconf.yaml"

// Config is the harness runtime configuration.
type Config struct {
	Subject  SubjectConfig `yaml:"subject"`
	Corpus   CorpusConfig  `yaml:"corpus"`
	FailFast bool          `yaml:"fail_fast"`
	History  HistoryConfig `yaml:"history"`
}

// SubjectConfig locates the interpreter under test.
type SubjectConfig struct {
	// Source is the Go source file the subject is built from.
	Source string `yaml:"source"`

	// Binary is where the built subject lives (and what gets invoked).
	Binary string `yaml:"binary"`
}

// CorpusConfig locates the check corpus.
type CorpusConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig controls run-history recording.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
// Fail-fast defaults to off: the whole corpus runs to completion unless
// --fail-fast is given.
func Default() Config {
	return Config{
		Subject: SubjectConfig{
			Source: "jisp.go",
			Binary: "./jisp-go-binary",
		},
		Corpus: CorpusConfig{
			Dir: "tests",
		},
		FailFast: false,
		History: HistoryConfig{
			Path: "jispconf.db",
		},
	}
}

// Load reads and parses a config file, applying defaults for absent
// settings. A missing file is not an error; the defaults are returned.
// Unknown keys are rejected to catch typos.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Subject.Source == "" {
		return fmt.Errorf("subject.source must not be empty")
	}
	if cfg.Subject.Binary == "" {
		return fmt.Errorf("subject.binary must not be empty")
	}
	if cfg.Corpus.Dir == "" {
		return fmt.Errorf("corpus.dir must not be empty")
	}
	return nil
}
