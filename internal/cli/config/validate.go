package config

import (
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/leapstack-labs/chainlint/internal/cli/output"
	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// Validate checks the configuration for values no command can use.
func (c *Config) Validate() error {
	var errs []error

	if !output.Mode(c.OutputFormat).Valid() {
		errs = append(errs, fmt.Errorf("output: unknown format %q (want auto, text, markdown, json or plain)", c.OutputFormat))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency: must not be negative, got %d", c.Concurrency))
	}
	for _, pattern := range c.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("exclude: pattern %q: %w", pattern, err))
		}
	}

	if c.Lint != nil {
		for id, sev := range c.Lint.Severity {
			if _, ok := core.ParseSeverity(sev); !ok {
				errs = append(errs, fmt.Errorf("lint.severity.%s: unknown severity %q", id, sev))
			}
		}
	}

	return errors.Join(errs...)
}

// UnknownRules returns rule IDs named in the lint section that are not
// registered, sorted.
func (c *Config) UnknownRules() []string {
	if c == nil || c.Lint == nil {
		return nil
	}

	seen := make(map[string]bool)
	check := func(id string) {
		if _, ok := lint.GetRuleByID(id); !ok {
			seen[id] = true
		}
	}
	for _, id := range c.Lint.Disabled {
		check(id)
	}
	for id := range c.Lint.Severity {
		check(id)
	}
	for id := range c.Lint.Rules {
		check(id)
	}

	unknown := make([]string, 0, len(seen))
	for id := range seen {
		unknown = append(unknown, id)
	}
	sort.Strings(unknown)
	return unknown
}
