package lint

import (
	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/token"
)

// =============================================================================
// Diagnostics
// =============================================================================

// Diagnostic represents a lint finding.
type Diagnostic struct {
	RuleID   string         `json:"rule_id"`
	Severity core.Severity  `json:"severity"`
	Message  string         `json:"message"`
	Pos      token.Position `json:"pos"`
	EndPos   token.Position `json:"end_pos"` // Optional: end of the problematic range

	// Remediation metadata
	DocumentationURL string `json:"documentation_url,omitempty"` // e.g. "https://chainlint.dev/docs/rules/sq01"
	ImpactScore      int    `json:"impact_score,omitempty"`      // 0-100
	AutoFixable      bool   `json:"auto_fixable,omitempty"`
}

// =============================================================================
// Rule Interfaces
// =============================================================================

// Rule is the base interface all lint rules implement.
type Rule interface {
	// ID returns the unique identifier, e.g., "SQ01"
	ID() string

	// Name returns the human-readable name, e.g., "sqlalchemy.query_order"
	Name() string

	// Group returns the category, e.g., "sqlalchemy"
	Group() string

	// Description returns a human-readable description
	Description() string

	// DefaultSeverity returns the default severity for this rule
	DefaultSeverity() core.Severity

	// ConfigKeys returns configuration keys this rule accepts
	ConfigKeys() []string

	// Documentation methods for richer rule documentation
	Rationale() string   // Why this rule exists, what problems it prevents
	BadExample() string  // Code showing the anti-pattern
	GoodExample() string // Code showing the correct pattern
	Fix() string         // How to fix violations (when not obvious)
}

// PythonRule analyzes a parsed Python module.
type PythonRule interface {
	Rule

	// CheckPython analyzes a module and returns diagnostics. The opts
	// parameter contains rule-specific options from configuration. A
	// non-nil error reports nodes the rule could not analyze; diagnostics
	// found elsewhere in the module are still returned.
	CheckPython(mod *core.Module, opts map[string]any) ([]Diagnostic, error)
}

// ModuleChecker checks one module with options already applied.
type ModuleChecker func(mod *core.Module) ([]Diagnostic, error)

// PreparedRule is a PythonRule that can decode its options once and reuse
// the result across modules. The returned checker must be safe for
// concurrent use.
type PreparedRule interface {
	PythonRule

	Prepare(opts map[string]any) (ModuleChecker, error)
}

// GetRuleInfo extracts metadata from a Rule for documentation/tooling.
func GetRuleInfo(r Rule) core.RuleInfo {
	info := core.RuleInfo{
		ID:              r.ID(),
		Name:            r.Name(),
		Group:           r.Group(),
		Description:     r.Description(),
		DefaultSeverity: r.DefaultSeverity(),
		ConfigKeys:      r.ConfigKeys(),
		Rationale:       r.Rationale(),
		BadExample:      r.BadExample(),
		GoodExample:     r.GoodExample(),
		Fix:             r.Fix(),
	}

	if _, ok := r.(PythonRule); ok {
		info.Type = "python"
	}

	return info
}
