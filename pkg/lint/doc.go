// Package lint provides the rule framework for chainlint.
//
// # Architecture
//
// The lint package holds the shared contracts and is imported by every
// rule subsystem:
//
//  1. Root package (pkg/lint/): Diagnostic, Rule interfaces, the unified
//     registry, Config, the per-traversal Collector and noqa handling
//  2. Chain analysis (pkg/lint/chain/): method-chain extraction and
//     ordering rule evaluation
//  3. Python subsystem (pkg/lint/python/): the analyzer and the RuleDef
//     helpers that rules register through
//
// # Rule Registration
//
// Rules are automatically registered via init() functions when their
// packages are imported:
//
//	import _ "github.com/leapstack-labs/chainlint/pkg/lint/python/rules"
//
// # Rule Categories
//
//   - SQ (SQLAlchemy): method ordering on Query objects
//
// # Using the Registry
//
//	rules := lint.AllRules()
//	rule, ok := lint.GetRuleByID("SQ01")
//	groupRules := lint.GetPythonRulesByGroup("sqlalchemy")
//
// # Configuration
//
// Use Config to control which rules are enabled, their severity and
// their options:
//
//	config := lint.NewConfig()
//	config.Disable("SQ01")
//	config.SetSeverity("SQ01", core.SeverityWarning)
//	config.SetRuleOptions("SQ01", map[string]any{"position_policy": "earliest"})
//
// # Suppression
//
// A "# noqa" comment silences every diagnostic on its line; "# noqa: SQ01"
// silences only the listed rules.
package lint
