// Package chain extracts fluent method chains from the Python AST and
// evaluates ordering rules against them.
//
// A chain is the left-to-right sequence of step names of one expression
// such as User.query.limit(10).filter_by(id=1), whose steps are
// [User query limit filter_by]. Only names matter: call arguments are not
// inspected and nothing is normalised or deduplicated.
package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/token"
)

var (
	// ErrNotAStep is returned for nodes that cannot be part of a chain.
	ErrNotAStep = errors.New("node is not a chain step")
	// ErrMalformedStep is returned for steps without a name or base.
	ErrMalformedStep = errors.New("malformed chain step")
)

// Step is one named link of a chain: the root identifier or an attribute.
type Step struct {
	Name string
	Node core.Node
	Pos  token.Position // start of the step name
	End  token.Position
}

// CallChain is the ordered step sequence of one chain expression.
// The zero value is an empty chain.
type CallChain struct {
	steps []Step
}

// New builds a chain from bare step names, for callers that have no AST.
func New(names ...string) CallChain {
	steps := make([]Step, len(names))
	for i, n := range names {
		steps[i] = Step{Name: n}
	}
	return CallChain{steps: steps}
}

// Len returns the number of steps.
func (c CallChain) Len() int { return len(c.steps) }

// Steps returns a copy of the steps in source order.
func (c CallChain) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// Names returns the step names in source order.
func (c CallChain) Names() []string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name
	}
	return names
}

// Index returns the position of the first step called name, or -1.
//
// Chains that repeat a name resolve to the first occurrence regardless of
// which occurrence is being evaluated.
func (c CallChain) Index(name string) int {
	for i, s := range c.steps {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// String renders the chain as dotted names, e.g. "User.query.limit".
func (c CallChain) String() string {
	return strings.Join(c.Names(), ".")
}

// StepOf returns the step named by n. Only identifiers and attribute
// accesses name a step; a call contributes the step of its callee.
func StepOf(n core.Node) (Step, error) {
	switch v := n.(type) {
	case *core.Name:
		if v == nil || v.ID == "" {
			return Step{}, fmt.Errorf("%w: identifier without a name", ErrMalformedStep)
		}
		return Step{Name: v.ID, Node: v, Pos: v.Span.Start, End: v.Span.End}, nil
	case *core.Attribute:
		if v == nil || v.Attr == "" {
			return Step{}, fmt.Errorf("%w: attribute without a name", ErrMalformedStep)
		}
		return Step{Name: v.Attr, Node: v, Pos: v.AttrSpan.Start, End: v.AttrSpan.End}, nil
	case *core.Call:
		if v == nil || v.Func == nil {
			return Step{}, fmt.Errorf("%w: call without a callee", ErrMalformedStep)
		}
		return StepOf(v.Func)
	default:
		return Step{}, fmt.Errorf("%w: %T", ErrNotAStep, n)
	}
}

// Extract returns the full chain containing node. stack holds the
// ancestors of node, outermost first, as supplied by the AST walk.
//
// The walk climbs while the parent continues the chain (an attribute whose
// value is the current node, or a call whose callee is the current node),
// then collects steps from the outermost expression down to its base.
func Extract(node core.Node, stack []core.Node) (CallChain, error) {
	if _, err := StepOf(node); err != nil {
		return CallChain{}, err
	}

	outer := node
climb:
	for i := len(stack) - 1; i >= 0; i-- {
		switch p := stack[i].(type) {
		case *core.Attribute:
			if p.Value != outer {
				break climb
			}
		case *core.Call:
			if p.Func != outer {
				break climb
			}
		default:
			break climb
		}
		outer = stack[i]
	}

	expr, ok := outer.(core.Expr)
	if !ok {
		return CallChain{}, fmt.Errorf("%w: %T", ErrNotAStep, outer)
	}
	return FromExpr(expr)
}

// FromExpr collects the chain rooted at the outermost chain expression expr.
// A chain whose base is not an identifier (a subscript, literal or
// parenthesised expression) has no root step.
func FromExpr(expr core.Expr) (CallChain, error) {
	var steps []Step

	cur := expr
	for done := false; !done; {
		switch n := cur.(type) {
		case *core.Call:
			if n == nil || n.Func == nil {
				return CallChain{}, fmt.Errorf("%w: call without a callee", ErrMalformedStep)
			}
			cur = n.Func

		case *core.Attribute:
			step, err := StepOf(n)
			if err != nil {
				return CallChain{}, err
			}
			if n.Value == nil {
				return CallChain{}, fmt.Errorf("%w: attribute %q without a base", ErrMalformedStep, n.Attr)
			}
			steps = append(steps, step)
			cur = n.Value

		case *core.Name:
			step, err := StepOf(n)
			if err != nil {
				return CallChain{}, err
			}
			steps = append(steps, step)
			done = true

		default:
			if cur == expr {
				return CallChain{}, fmt.Errorf("%w: %T", ErrNotAStep, expr)
			}
			done = true
		}
	}

	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return CallChain{steps: steps}, nil
}
