// Package python runs lint rules over parsed Python modules.
//
// Rules are declared as RuleDef values and registered from init():
//
//	func init() {
//		python.Register(QueryOrder)
//	}
//
// The Analyzer applies a lint.Config on top of the registry: disabled
// rules are skipped, severities are overridden and rule options are passed
// through to each check.
package python
