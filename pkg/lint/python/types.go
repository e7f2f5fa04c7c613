package python

import (
	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// RuleDef is a data-driven Python rule definition.
// Rules are stateless; everything they need arrives through Check.
type RuleDef struct {
	ID          string        // Unique identifier, e.g., "SQ01"
	Name        string        // Human-readable name, e.g., "sqlalchemy.query_order"
	Group       string        // Category, e.g., "sqlalchemy"
	Description string        // Human-readable description
	Severity    core.Severity // Default severity
	Check       CheckFunc     // The check function
	Prepare     PrepareFunc   // Optional: builds a checker from options once
	ConfigKeys  []string      // Configuration keys this rule accepts

	Rationale   string
	BadExample  string
	GoodExample string
	Fix         string
}

// CheckFunc analyzes a module and returns diagnostics. A non-nil error
// reports nodes that could not be analyzed; the diagnostics found are
// returned alongside it.
type CheckFunc func(mod *core.Module, opts map[string]any) ([]lint.Diagnostic, error)

// PrepareFunc decodes rule options and returns a reusable checker.
type PrepareFunc func(opts map[string]any) (lint.ModuleChecker, error)

type wrappedRuleDef struct {
	def RuleDef
}

// WrapRuleDef wraps a RuleDef to implement lint.PythonRule.
func WrapRuleDef(def RuleDef) lint.PythonRule {
	return &wrappedRuleDef{def: def}
}

func (w *wrappedRuleDef) ID() string                     { return w.def.ID }
func (w *wrappedRuleDef) Name() string                   { return w.def.Name }
func (w *wrappedRuleDef) Group() string                  { return w.def.Group }
func (w *wrappedRuleDef) Description() string            { return w.def.Description }
func (w *wrappedRuleDef) DefaultSeverity() core.Severity { return w.def.Severity }
func (w *wrappedRuleDef) ConfigKeys() []string           { return w.def.ConfigKeys }

func (w *wrappedRuleDef) Rationale() string   { return w.def.Rationale }
func (w *wrappedRuleDef) BadExample() string  { return w.def.BadExample }
func (w *wrappedRuleDef) GoodExample() string { return w.def.GoodExample }
func (w *wrappedRuleDef) Fix() string         { return w.def.Fix }

func (w *wrappedRuleDef) CheckPython(mod *core.Module, opts map[string]any) ([]lint.Diagnostic, error) {
	switch {
	case w.def.Check != nil:
		return w.def.Check(mod, opts)
	case w.def.Prepare != nil:
		check, err := w.def.Prepare(opts)
		if err != nil {
			return nil, err
		}
		return check(mod)
	default:
		return nil, nil
	}
}

// Prepare binds opts to the rule. Without a PrepareFunc the options are
// passed to Check on every call.
func (w *wrappedRuleDef) Prepare(opts map[string]any) (lint.ModuleChecker, error) {
	if w.def.Prepare != nil {
		return w.def.Prepare(opts)
	}
	return func(mod *core.Module) ([]lint.Diagnostic, error) {
		return w.CheckPython(mod, opts)
	}, nil
}

// Unwrap returns the underlying RuleDef.
func (w *wrappedRuleDef) Unwrap() RuleDef {
	return w.def
}

// Register adds a rule to the registry.
// Call this from init() functions in rule packages.
func Register(rule RuleDef) {
	lint.RegisterPythonRule(WrapRuleDef(rule))
}
