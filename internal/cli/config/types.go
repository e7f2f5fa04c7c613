// Package config loads chainlint configuration.
//
// Core types (LintConfig, RuleOptions) are defined in pkg/core and
// re-exported here via type aliases for convenience.
package config

import "github.com/leapstack-labs/chainlint/pkg/core"

// LintConfig is an alias for the shared lint configuration.
type LintConfig = core.LintConfig

// RuleOptions is an alias for the shared rule options type.
type RuleOptions = core.RuleOptions

// Config holds all CLI configuration options.
type Config struct {
	Paths        []string    `koanf:"paths" yaml:"paths"`
	Exclude      []string    `koanf:"exclude" yaml:"exclude,omitempty"`
	OutputFormat string      `koanf:"output" yaml:"output"`
	Verbose      bool        `koanf:"verbose" yaml:"verbose"`
	Concurrency  int         `koanf:"concurrency" yaml:"concurrency"`
	Lint         *LintConfig `koanf:"lint" yaml:"lint,omitempty"`

	// ProjectRoot is the directory relative paths are resolved against:
	// the config file's directory, or the working directory without one.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// Default configuration values.
const (
	DefaultPath        = "."
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultConcurrency = 0      // GOMAXPROCS
	EnvPrefix          = "CHAINLINT_"
)

// ConfigFileNames are the file names searched for, in order.
var ConfigFileNames = []string{
	"chainlint.yaml",
	"chainlint.yml",
	".chainlint.yaml",
	".chainlint.yml",
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Paths:        []string{DefaultPath},
		OutputFormat: DefaultOutput,
		Concurrency:  DefaultConcurrency,
	}
}
