package core

import "github.com/leapstack-labs/chainlint/pkg/token"

// ---------- Chain steps ----------

// Name is a bare identifier, the usual root of a method chain.
type Name struct {
	ID   string
	Span token.Span
}

func (*Name) exprNode() {}

// Pos implements Node.
func (n *Name) Pos() token.Position { return n.Span.Start }

// End implements Node.
func (n *Name) End() token.Position { return n.Span.End }

// Attribute is an attribute access step: Value.Attr.
type Attribute struct {
	Value    Expr
	Attr     string
	Dot      token.Position // position of the "."
	AttrSpan token.Span     // span of the attribute identifier
}

func (*Attribute) exprNode() {}

// Pos implements Node.
func (a *Attribute) Pos() token.Position {
	if a.Value != nil {
		return a.Value.Pos()
	}
	return a.Dot
}

// End implements Node.
func (a *Attribute) End() token.Position { return a.AttrSpan.End }

// AttrPos returns the position of the attribute name itself.
func (a *Attribute) AttrPos() token.Position { return a.AttrSpan.Start }

// Call is a call step: Func(Args..., Keywords...).
type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
	Lparen   token.Position
	Rparen   token.Position
}

func (*Call) exprNode() {}

// Pos implements Node.
func (c *Call) Pos() token.Position {
	if c.Func != nil {
		return c.Func.Pos()
	}
	return c.Lparen
}

// End implements Node.
func (c *Call) End() token.Position { return after(c.Rparen) }

// Keyword is a keyword argument (name=value) or a **mapping unpack when
// Arg is empty.
type Keyword struct {
	Arg   string
	Value Expr
	Span  token.Span
}

func (*Keyword) exprNode() {}

// Pos implements Node.
func (k *Keyword) Pos() token.Position { return k.Span.Start }

// End implements Node.
func (k *Keyword) End() token.Position { return k.Span.End }

// Subscript is an index or slice access: Value[Index...].
type Subscript struct {
	Value  Expr
	Index  []Expr
	Rbrack token.Position
}

func (*Subscript) exprNode() {}

// Pos implements Node.
func (s *Subscript) Pos() token.Position {
	if s.Value != nil {
		return s.Value.Pos()
	}
	return s.Rbrack
}

// End implements Node.
func (s *Subscript) End() token.Position { return after(s.Rbrack) }

// Slice is a lower:upper:step item inside a subscript. Any part may be nil.
type Slice struct {
	Lower, Upper, Step Expr
	Colon              token.Position
}

func (*Slice) exprNode() {}

// Pos implements Node.
func (s *Slice) Pos() token.Position {
	if s.Lower != nil {
		return s.Lower.Pos()
	}
	return s.Colon
}

// End implements Node.
func (s *Slice) End() token.Position {
	for _, e := range []Expr{s.Step, s.Upper} {
		if e != nil {
			return e.End()
		}
	}
	return s.Colon
}

// ---------- Other expressions ----------

// LiteralKind classifies a literal.
type LiteralKind int

// LiteralKind constants for Python literal values.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNone
	LiteralEllipsis
)

// Literal represents a literal value. Adjacent string literals are merged.
type Literal struct {
	Kind  LiteralKind
	Value string
	Span  token.Span
}

func (*Literal) exprNode() {}

// Pos implements Node.
func (l *Literal) Pos() token.Position { return l.Span.Start }

// End implements Node.
func (l *Literal) End() token.Position { return l.Span.End }

// BinaryExpr represents a binary, boolean or comparison expression.
// Op is the operator spelling ("+", "and", "not in", ":=", ...).
type BinaryExpr struct {
	Left  Expr
	Op    string
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// Pos implements Node.
func (b *BinaryExpr) Pos() token.Position { return b.Left.Pos() }

// End implements Node.
func (b *BinaryExpr) End() token.Position { return b.Right.End() }

// UnaryExpr represents a prefix operator: -x, not x, await x, yield x.
// X is nil for a bare yield.
type UnaryExpr struct {
	Op    string
	OpPos token.Position
	X     Expr
}

func (*UnaryExpr) exprNode() {}

// Pos implements Node.
func (u *UnaryExpr) Pos() token.Position { return u.OpPos }

// End implements Node.
func (u *UnaryExpr) End() token.Position {
	if u.X != nil {
		return u.X.End()
	}
	return u.OpPos
}

// IfExpr is the conditional expression Body if Cond else Else. Else is nil
// for comprehension filters.
type IfExpr struct {
	Body, Cond, Else Expr
}

func (*IfExpr) exprNode() {}

// Pos implements Node.
func (i *IfExpr) Pos() token.Position { return i.Body.Pos() }

// End implements Node.
func (i *IfExpr) End() token.Position {
	if i.Else != nil {
		return i.Else.End()
	}
	return i.Cond.End()
}

// Lambda is an anonymous function. Parameter defaults are kept in Defaults.
type Lambda struct {
	Defaults []Expr
	Body     Expr
	Keyword  token.Position
}

func (*Lambda) exprNode() {}

// Pos implements Node.
func (l *Lambda) Pos() token.Position { return l.Keyword }

// End implements Node.
func (l *Lambda) End() token.Position {
	if l.Body != nil {
		return l.Body.End()
	}
	return l.Keyword
}

// Starred is *X or **X.
type Starred struct {
	X       Expr
	Double  bool
	StarPos token.Position
}

func (*Starred) exprNode() {}

// Pos implements Node.
func (s *Starred) Pos() token.Position { return s.StarPos }

// End implements Node.
func (s *Starred) End() token.Position { return s.X.End() }

// CollectionKind classifies a bracketed display.
type CollectionKind int

// CollectionKind constants.
const (
	CollectionParen CollectionKind = iota // (x) or (a, b)
	CollectionList                        // [a, b]
	CollectionBrace                       // {a, b} or {k: v}
)

// Collection is a parenthesised expression, tuple, list, set or dict
// display. For comprehensions, the element, targets, iterables and
// filters all appear in Elts in source order and Comprehension is set.
type Collection struct {
	Kind          CollectionKind
	Elts          []Expr
	Comprehension bool
	Span          token.Span
}

func (*Collection) exprNode() {}

// Pos implements Node.
func (c *Collection) Pos() token.Position { return c.Span.Start }

// End implements Node.
func (c *Collection) End() token.Position { return c.Span.End }

// Pair is a key: value item of a dict display.
type Pair struct {
	Key, Value Expr
}

func (*Pair) exprNode() {}

// Pos implements Node.
func (p *Pair) Pos() token.Position { return p.Key.Pos() }

// End implements Node.
func (p *Pair) End() token.Position { return p.Value.End() }

// after returns the position just past a single-character delimiter.
func after(p token.Position) token.Position {
	if !p.IsValid() {
		return p
	}
	return token.Position{Line: p.Line, Column: p.Column + 1, Offset: p.Offset + 1}
}
