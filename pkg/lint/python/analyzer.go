package python

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// Analyzer runs Python lint rules against parsed modules.
type Analyzer struct {
	config *lint.Config
	rules  []lint.PythonRule // nil means every registered rule

	// checkers built from the configured options, by rule ID
	mu       sync.Mutex
	checkers map[string]lint.ModuleChecker
}

// NewAnalyzer creates a new Python analyzer with optional configuration.
func NewAnalyzer(config *lint.Config) *Analyzer {
	if config == nil {
		config = lint.NewConfig()
	}
	return &Analyzer{config: config, checkers: make(map[string]lint.ModuleChecker)}
}

// WithRules restricts the analyzer to rules instead of the registry.
func (a *Analyzer) WithRules(rules ...lint.PythonRule) *Analyzer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = rules
	a.checkers = make(map[string]lint.ModuleChecker)
	return a
}

// Rules returns the rules the analyzer will run, disabled ones excluded.
func (a *Analyzer) Rules() []lint.PythonRule {
	rules := a.rules
	if rules == nil {
		rules = lint.GetAllPythonRules()
	}

	enabled := make([]lint.PythonRule, 0, len(rules))
	for _, rule := range rules {
		if !a.config.IsDisabled(rule.ID()) {
			enabled = append(enabled, rule)
		}
	}
	return enabled
}

// Analyze runs every enabled rule against mod. Diagnostics keep the order
// each rule produced them in, rules run in ID order, and diagnostics
// silenced by noqa comments are dropped. Rule errors are joined; the
// diagnostics of the other rules are still returned.
func (a *Analyzer) Analyze(mod *core.Module) ([]lint.Diagnostic, error) {
	if mod == nil {
		return nil, nil
	}

	var (
		diagnostics []lint.Diagnostic
		errs        []error
	)
	for _, rule := range a.Rules() {
		check, err := a.checker(rule)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", rule.ID(), err))
			continue
		}

		diags, err := check(mod)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", rule.ID(), err))
		}

		for i := range diags {
			diags[i].Severity = a.config.GetSeverity(rule.ID(), diags[i].Severity)
			if diags[i].DocumentationURL == "" {
				diags[i].DocumentationURL = lint.BuildDocURL(diags[i].RuleID)
			}
		}

		diagnostics = append(diagnostics, diags...)
	}

	return lint.FilterSuppressed(mod, diagnostics), errors.Join(errs...)
}

// checker returns the rule's checker for the configured options, preparing
// it on first use. Preparation errors are not cached.
func (a *Analyzer) checker(rule lint.PythonRule) (lint.ModuleChecker, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if check, ok := a.checkers[rule.ID()]; ok {
		return check, nil
	}

	opts := a.config.GetRuleOptions(rule.ID())
	prepared, ok := rule.(lint.PreparedRule)
	if !ok {
		return func(mod *core.Module) ([]lint.Diagnostic, error) {
			return rule.CheckPython(mod, opts)
		}, nil
	}

	check, err := prepared.Prepare(opts)
	if err != nil {
		return nil, err
	}
	a.checkers[rule.ID()] = check
	return check, nil
}
