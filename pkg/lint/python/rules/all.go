// Package rules contains the Python lint rules.
// Import this package to register them with the unified registry.
//
// Rules are automatically registered via init() functions when this package is imported:
//
//	import _ "github.com/leapstack-labs/chainlint/pkg/lint/python/rules"
//
// Rule Categories:
//   - SQ (SQLAlchemy): Rules about Query method ordering
package rules

// Importing this package registers the following rules:
//
// SQLAlchemy rules:
//   - SQ01: Query Order - Query methods applied in an order that raises at runtime
