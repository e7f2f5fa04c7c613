// Package ast provides AST traversal utilities for lint rules.
package ast

import (
	"github.com/leapstack-labs/chainlint/pkg/core"
)

// InspectFunc is called for every node in pre-order. stack holds the
// ancestors of n, outermost first; it is reused between calls, so copy it
// before keeping it. Returning false skips the children of n.
type InspectFunc func(n core.Node, stack []core.Node) bool

// Inspect traverses the tree rooted at node depth-first in source order.
func Inspect(node core.Node, fn InspectFunc) {
	var stack []core.Node
	inspect(node, fn, &stack)
}

func inspect(node core.Node, fn InspectFunc, stack *[]core.Node) {
	if isNil(node) {
		return
	}
	if !fn(node, *stack) {
		return
	}

	*stack = append(*stack, node)
	for _, child := range children(node) {
		inspect(child, fn, stack)
	}
	*stack = (*stack)[:len(*stack)-1]
}

// Walk traverses the tree and calls fn for each node, without ancestors.
// If fn returns false, the children of that node are skipped.
func Walk(node core.Node, fn func(node core.Node) bool) {
	Inspect(node, func(n core.Node, _ []core.Node) bool { return fn(n) })
}

// children returns the direct children of node in source order. Every node
// kind of the Python AST is listed; leaves return nil.
func children(node core.Node) []core.Node {
	var out []core.Node
	add := func(nodes ...core.Node) {
		for _, n := range nodes {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}

	switch n := node.(type) {
	case *core.Module:
		for _, e := range n.Body {
			add(e)
		}

	case *core.Name, *core.Literal:
		// Leaf nodes

	case *core.Attribute:
		add(n.Value)

	case *core.Call:
		add(n.Func)
		for _, a := range n.Args {
			add(a)
		}
		for _, kw := range n.Keywords {
			add(kw)
		}

	case *core.Keyword:
		add(n.Value)

	case *core.Subscript:
		add(n.Value)
		for _, e := range n.Index {
			add(e)
		}

	case *core.Slice:
		add(n.Lower, n.Upper, n.Step)

	case *core.BinaryExpr:
		add(n.Left, n.Right)

	case *core.UnaryExpr:
		add(n.X)

	case *core.IfExpr:
		add(n.Body, n.Cond, n.Else)

	case *core.Lambda:
		for _, d := range n.Defaults {
			add(d)
		}
		add(n.Body)

	case *core.Starred:
		add(n.X)

	case *core.Collection:
		for _, e := range n.Elts {
			add(e)
		}

	case *core.Pair:
		add(n.Key, n.Value)
	}

	return out
}

// isNil reports whether n is a nil interface or a typed nil pointer.
func isNil(n core.Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *core.Module:
		return v == nil
	case *core.Name:
		return v == nil
	case *core.Attribute:
		return v == nil
	case *core.Call:
		return v == nil
	case *core.Keyword:
		return v == nil
	case *core.Subscript:
		return v == nil
	case *core.Slice:
		return v == nil
	case *core.Literal:
		return v == nil
	case *core.BinaryExpr:
		return v == nil
	case *core.UnaryExpr:
		return v == nil
	case *core.IfExpr:
		return v == nil
	case *core.Lambda:
		return v == nil
	case *core.Starred:
		return v == nil
	case *core.Collection:
		return v == nil
	case *core.Pair:
		return v == nil
	}
	return false
}
