package config

import (
	"strings"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// ToLintConfig converts the lint section into a rule configuration.
// Unparseable severities are skipped; Validate reports them.
func (c *Config) ToLintConfig() *lint.Config {
	lintCfg := lint.NewConfig()
	if c == nil || c.Lint == nil {
		return lintCfg
	}

	for _, id := range c.Lint.Disabled {
		lintCfg.Disable(strings.TrimSpace(id))
	}
	for id, sev := range c.Lint.Severity {
		if s, ok := core.ParseSeverity(sev); ok {
			lintCfg.SetSeverity(id, s)
		}
	}
	for id, ruleOpts := range c.Lint.Rules {
		lintCfg.SetRuleOptions(id, ruleOpts)
	}
	return lintCfg
}
