// Package engine discovers Python files and lints them concurrently.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/leapstack-labs/chainlint/pkg/lint/python"
)

// Engine lints Python files with the registered rules.
type Engine struct {
	analyzer    *python.Analyzer
	exclude     []string
	concurrency int

	// Structured logger
	logger *slog.Logger

	// content hash cache used by Watch to skip unchanged files
	cacheMu sync.Mutex
	cache   map[string]cacheEntry
}

// Config holds engine configuration.
type Config struct {
	// Lint selects rules, severities and rule options (optional)
	Lint *lint.Config
	// Exclude holds glob patterns matched against base names and
	// slash-separated relative paths
	Exclude []string
	// Concurrency bounds the number of files linted at once; <= 0 means
	// GOMAXPROCS
	Concurrency int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. Rule options are validated up front so a bad
// configuration fails once instead of once per file.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	analyzer := python.NewAnalyzer(cfg.Lint)
	if err := validateRuleOptions(analyzer); err != nil {
		return nil, err
	}

	logger.Debug("initializing engine",
		"rules", len(analyzer.Rules()),
		"concurrency", concurrency,
		"exclude", cfg.Exclude)

	return &Engine{
		analyzer:    analyzer,
		exclude:     append(append([]string(nil), DefaultExcludes...), cfg.Exclude...),
		concurrency: concurrency,
		logger:      logger,
		cache:       make(map[string]cacheEntry),
	}, nil
}

// Rules returns the enabled rules.
func (e *Engine) Rules() []lint.PythonRule {
	return e.analyzer.Rules()
}

// validateRuleOptions runs every enabled rule over an empty module, which
// surfaces option decoding errors without touching any file.
func validateRuleOptions(a *python.Analyzer) error {
	if _, err := a.Analyze(emptyModule()); err != nil {
		return fmt.Errorf("invalid rule configuration: %w", err)
	}
	return nil
}
