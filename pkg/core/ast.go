package core

import "github.com/leapstack-labs/chainlint/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
	// End returns the position of the character immediately after the node.
	End() token.Position
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
}

// Module is a parsed Python source file.
//
// Statement structure is not modelled: Body holds every top-level
// expression in source order, which is all the chain rules look at.
type Module struct {
	Name     string           // file name used in diagnostics
	Body     []Expr           // top-level expressions in source order
	Comments []*token.Comment // every # comment, in source order
	Span     token.Span
}

// Pos implements Node.
func (m *Module) Pos() token.Position { return m.Span.Start }

// End implements Node.
func (m *Module) End() token.Position { return m.Span.End }

// CommentsOnLine returns the comments that start on the given line.
func (m *Module) CommentsOnLine(line int) []*token.Comment {
	var out []*token.Comment
	for _, c := range m.Comments {
		if c.Line() == line {
			out = append(out, c)
		}
	}
	return out
}
