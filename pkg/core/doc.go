// Package core defines the shared language of the chainlint system.
//
// This package contains:
//   - The Python syntax tree (Module, Name, Attribute, Call, ...)
//   - Lint severities and rule metadata (Severity, RuleInfo)
//   - Configuration types shared by the CLI and library callers (LintConfig)
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
