package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/token"
)

// ---------- Expression Parsing (Precedence Climbing) ----------
//
// Precedence (lowest to highest):
//   1. :=  yield  lambda  if-else
//   2. or
//   3. and
//   4. not
//   5. in, not in, is, is not, <, >, ==, >=, <=, !=
//   6. |
//   7. ^
//   8. &
//   9. <<, >>
//  10. +, -
//  11. *, @, /, //, %
//  12. unary +, -, ~
//  13. **, await
//  14. primary: attribute, call, subscript

// canStartExpression reports whether t may begin an expression.
func canStartExpression(t token.TokenType) bool {
	switch t {
	case token.NAME, token.NUMBER, token.STRING, token.TRUE, token.FALSE,
		token.NONE, token.ELLIPSIS, token.LPAREN, token.LBRACKET, token.LBRACE,
		token.MINUS, token.PLUS, token.TILDE, token.NOT, token.LAMBDA,
		token.AWAIT, token.YIELD:
		return true
	}
	return false
}

// parseExpression parses a named expression or yield expression.
func (p *Parser) parseExpression() core.Expr {
	if p.check(token.YIELD) {
		return p.parseYield()
	}

	if p.check(token.NAME) && p.checkPeek(token.WALRUS) {
		target := p.parseAtom()
		p.nextToken() // consume :=
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &core.BinaryExpr{Left: target, Op: ":=", Right: value}
	}

	return p.parseTest()
}

// parseYield parses: "yield" ["from"] [test]
func (p *Parser) parseYield() core.Expr {
	y := &core.UnaryExpr{Op: "yield", OpPos: p.token.Pos}
	p.nextToken()
	if p.match(token.FROM) {
		y.Op = "yield from"
		y.X = p.parseTest()
		return y
	}
	if canStartExpression(p.token.Type) {
		y.X = p.parseTest()
	}
	return y
}

// parseTest parses a lambda or a conditional expression.
func (p *Parser) parseTest() core.Expr {
	if p.check(token.LAMBDA) {
		return p.parseLambda()
	}

	body := p.parseOrTest()
	if body == nil || !p.check(token.IF) {
		return body
	}

	p.nextToken() // consume IF
	cond := p.parseOrTest()
	if cond == nil || !p.expect(token.ELSE) {
		return nil
	}
	orElse := p.parseTest()
	if orElse == nil {
		return nil
	}
	return &core.IfExpr{Body: body, Cond: cond, Else: orElse}
}

// parseLambda parses: "lambda" [params] ":" test
func (p *Parser) parseLambda() core.Expr {
	l := &core.Lambda{Keyword: p.token.Pos}
	p.nextToken()
	l.Defaults = p.parseParams(token.COLON, false)
	if !p.expect(token.COLON) {
		return nil
	}
	l.Body = p.parseTest()
	if l.Body == nil {
		return nil
	}
	return l
}

// parseOrTest parses: and_test ("or" and_test)*
func (p *Parser) parseOrTest() core.Expr {
	return p.parseBinaryLevel(p.parseAndTest, map[token.TokenType]string{token.OR: "or"})
}

// parseAndTest parses: not_test ("and" not_test)*
func (p *Parser) parseAndTest() core.Expr {
	return p.parseBinaryLevel(p.parseNotTest, map[token.TokenType]string{token.AND: "and"})
}

// parseNotTest parses: "not" not_test | comparison
func (p *Parser) parseNotTest() core.Expr {
	if p.check(token.NOT) {
		pos := p.token.Pos
		p.nextToken()
		x := p.parseNotTest()
		if x == nil {
			return nil
		}
		return &core.UnaryExpr{Op: "not", OpPos: pos, X: x}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.TokenType]string{
	token.LT: "<", token.GT: ">", token.EQ: "==", token.GE: ">=",
	token.LE: "<=", token.NE: "!=", token.IN: "in",
}

// parseComparison parses: bitor (comp_op bitor)*
func (p *Parser) parseComparison() core.Expr {
	left := p.parseBitOr()
	if left == nil {
		return nil
	}

	for {
		var op string
		switch {
		case p.check(token.NOT) && p.checkPeek(token.IN):
			p.nextToken()
			p.nextToken()
			op = "not in"
		case p.check(token.IS):
			p.nextToken()
			op = "is"
			if p.match(token.NOT) {
				op = "is not"
			}
		default:
			name, ok := comparisonOps[p.token.Type]
			if !ok {
				return left
			}
			p.nextToken()
			op = name
		}

		right := p.parseBitOr()
		if right == nil {
			return nil
		}
		left = &core.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseBitOr() core.Expr {
	return p.parseBinaryLevel(p.parseBitXor, map[token.TokenType]string{token.PIPE: "|"})
}

func (p *Parser) parseBitXor() core.Expr {
	return p.parseBinaryLevel(p.parseBitAnd, map[token.TokenType]string{token.CARET: "^"})
}

func (p *Parser) parseBitAnd() core.Expr {
	return p.parseBinaryLevel(p.parseShift, map[token.TokenType]string{token.AMP: "&"})
}

func (p *Parser) parseShift() core.Expr {
	return p.parseBinaryLevel(p.parseArith, map[token.TokenType]string{
		token.LSHIFT: "<<", token.RSHIFT: ">>",
	})
}

func (p *Parser) parseArith() core.Expr {
	return p.parseBinaryLevel(p.parseTerm, map[token.TokenType]string{
		token.PLUS: "+", token.MINUS: "-",
	})
}

func (p *Parser) parseTerm() core.Expr {
	return p.parseBinaryLevel(p.parseFactor, map[token.TokenType]string{
		token.STAR: "*", token.AT: "@", token.SLASH: "/",
		token.DSLASH: "//", token.PERCENT: "%",
	})
}

// parseBinaryLevel parses a left-associative run of next separated by ops.
func (p *Parser) parseBinaryLevel(next func() core.Expr, ops map[token.TokenType]string) core.Expr {
	left := next()
	if left == nil {
		return nil
	}

	for {
		op, ok := ops[p.token.Type]
		if !ok {
			return left
		}
		p.nextToken()
		right := next()
		if right == nil {
			return nil
		}
		left = &core.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

// parseFactor parses: ("+"|"-"|"~") factor | power
func (p *Parser) parseFactor() core.Expr {
	switch p.token.Type {
	case token.PLUS, token.MINUS, token.TILDE:
		op, pos := p.token.Literal, p.token.Pos
		p.nextToken()
		x := p.parseFactor()
		if x == nil {
			return nil
		}
		return &core.UnaryExpr{Op: op, OpPos: pos, X: x}
	}
	return p.parsePower()
}

// parsePower parses: ["await"] primary ["**" factor]
// Exponentiation is right-associative and binds tighter than unary minus
// on its left.
func (p *Parser) parsePower() core.Expr {
	var base core.Expr
	if p.check(token.AWAIT) {
		pos := p.token.Pos
		p.nextToken()
		x := p.parsePrimary()
		if x == nil {
			return nil
		}
		base = &core.UnaryExpr{Op: "await", OpPos: pos, X: x}
	} else {
		base = p.parsePrimary()
		if base == nil {
			return nil
		}
	}

	if !p.match(token.DSTAR) {
		return base
	}
	exp := p.parseFactor()
	if exp == nil {
		return nil
	}
	return &core.BinaryExpr{Left: base, Op: "**", Right: exp}
}

// ---------- Primary Expressions ----------

// parsePrimary parses an atom followed by any number of trailers:
//
//	"." NAME | "(" args ")" | "[" subscript "]"
func (p *Parser) parsePrimary() core.Expr {
	expr := p.parseAtom()
	if expr == nil {
		return nil
	}

	for !p.failed() {
		switch p.token.Type {
		case token.DOT:
			dot := p.token.Pos
			p.nextToken()
			name := p.token
			if !p.expect(token.NAME) {
				return nil
			}
			expr = &core.Attribute{
				Value:    expr,
				Attr:     name.Literal,
				Dot:      dot,
				AttrSpan: token.Span{Start: name.Pos, End: name.End},
			}

		case token.LPAREN:
			open := p.token
			p.nextToken()
			args, kws := p.parseArgs()
			closeTok, ok := p.expectClose(token.RPAREN, open)
			if !ok {
				return nil
			}
			expr = &core.Call{
				Func:     expr,
				Args:     args,
				Keywords: kws,
				Lparen:   open.Pos,
				Rparen:   closeTok.Pos,
			}

		case token.LBRACKET:
			open := p.token
			p.nextToken()
			index := p.parseSubscriptItems()
			closeTok, ok := p.expectClose(token.RBRACKET, open)
			if !ok {
				return nil
			}
			expr = &core.Subscript{Value: expr, Index: index, Rbrack: closeTok.Pos}

		default:
			return expr
		}
	}
	return nil
}

// parseAtom parses a name, literal or bracketed display.
func (p *Parser) parseAtom() core.Expr {
	tok := p.token
	span := token.Span{Start: tok.Pos, End: tok.End}

	switch tok.Type {
	case token.NAME:
		p.nextToken()
		return &core.Name{ID: tok.Literal, Span: span}
	case token.NUMBER:
		p.nextToken()
		return &core.Literal{Kind: core.LiteralNumber, Value: tok.Literal, Span: span}
	case token.STRING:
		return p.parseStrings()
	case token.TRUE, token.FALSE:
		p.nextToken()
		return &core.Literal{Kind: core.LiteralBool, Value: tok.Literal, Span: span}
	case token.NONE:
		p.nextToken()
		return &core.Literal{Kind: core.LiteralNone, Value: tok.Literal, Span: span}
	case token.ELLIPSIS:
		p.nextToken()
		return &core.Literal{Kind: core.LiteralEllipsis, Value: tok.Literal, Span: span}
	case token.LPAREN, token.LBRACKET, token.LBRACE:
		return p.parseCollection()
	}

	p.addError(fmt.Sprintf(ErrExpectedExpression, describe(tok)))
	return nil
}

// parseStrings merges adjacent string literals into one Literal.
func (p *Parser) parseStrings() core.Expr {
	first := p.token
	last := first
	var parts []string
	for p.check(token.STRING) {
		last = p.token
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}
	return &core.Literal{
		Kind:  core.LiteralString,
		Value: strings.Join(parts, " "),
		Span:  token.Span{Start: first.Pos, End: last.End},
	}
}

// parseArgs parses call arguments up to the closing parenthesis:
//
//	arg ("," arg)* [","]
//	arg → "*" test | "**" test | NAME "=" test | expression [comp_for]
//
// A bare generator argument is returned as a comprehension Collection.
func (p *Parser) parseArgs() ([]core.Expr, []*core.Keyword) {
	var args []core.Expr
	var kws []*core.Keyword

	for !p.check(token.RPAREN) && !p.check(token.EOF) && !p.failed() {
		start := p.token
		switch {
		case p.check(token.STAR):
			p.nextToken()
			x := p.parseTest()
			if x == nil {
				return args, kws
			}
			args = append(args, &core.Starred{X: x, StarPos: start.Pos})

		case p.check(token.DSTAR):
			p.nextToken()
			x := p.parseTest()
			if x == nil {
				return args, kws
			}
			kws = append(kws, &core.Keyword{Value: x, Span: token.Span{Start: start.Pos, End: x.End()}})

		case p.check(token.NAME) && p.checkPeek(token.ASSIGN):
			p.nextToken()
			p.nextToken()
			x := p.parseTest()
			if x == nil {
				return args, kws
			}
			kws = append(kws, &core.Keyword{
				Arg:   start.Literal,
				Value: x,
				Span:  token.Span{Start: start.Pos, End: x.End()},
			})

		default:
			x := p.parseExpression()
			if x == nil {
				return args, kws
			}
			if p.check(token.FOR) || p.check(token.ASYNC) {
				elts := p.parseCompClauses(x)
				if elts == nil {
					return args, kws
				}
				x = &core.Collection{
					Kind:          core.CollectionParen,
					Elts:          elts,
					Comprehension: true,
					Span:          token.Span{Start: x.Pos(), End: p.token.Pos},
				}
			}
			args = append(args, x)
		}

		if !p.match(token.COMMA) {
			break
		}
	}
	return args, kws
}

// parseSubscriptItems parses the items between [ and ]:
//
//	item ("," item)* [","]
//	item → [expression] ":" [expression] [":" [expression]] | "*" bitor | expression
func (p *Parser) parseSubscriptItems() []core.Expr {
	var items []core.Expr

	for !p.check(token.RBRACKET) && !p.check(token.EOF) && !p.failed() {
		var item core.Expr
		if p.check(token.STAR) {
			pos := p.token.Pos
			p.nextToken()
			x := p.parseBitOr()
			if x == nil {
				return nil
			}
			item = &core.Starred{X: x, StarPos: pos}
		} else {
			var lower core.Expr
			if !p.check(token.COLON) {
				if lower = p.parseExpression(); lower == nil {
					return nil
				}
			}
			item = lower
			if p.check(token.COLON) {
				item = p.parseSlice(lower)
				if item == nil {
					return nil
				}
			}
		}
		items = append(items, item)

		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// parseSlice parses the rest of a slice once the first ":" is current.
func (p *Parser) parseSlice(lower core.Expr) core.Expr {
	s := &core.Slice{Lower: lower, Colon: p.token.Pos}
	p.nextToken() // consume ':'

	optional := func() (core.Expr, bool) {
		if p.check(token.COLON) || p.check(token.COMMA) || p.check(token.RBRACKET) {
			return nil, true
		}
		e := p.parseExpression()
		return e, e != nil
	}

	var ok bool
	if s.Upper, ok = optional(); !ok {
		return nil
	}
	if p.match(token.COLON) {
		if s.Step, ok = optional(); !ok {
			return nil
		}
	}
	return s
}

// parseCollection parses a parenthesised expression, tuple, list, set,
// dict or comprehension. The opening bracket is the current token.
func (p *Parser) parseCollection() core.Expr {
	open := p.token
	var closing token.TokenType
	c := &core.Collection{}

	switch open.Type {
	case token.LPAREN:
		c.Kind, closing = core.CollectionParen, token.RPAREN
	case token.LBRACKET:
		c.Kind, closing = core.CollectionList, token.RBRACKET
	default:
		c.Kind, closing = core.CollectionBrace, token.RBRACE
	}
	p.nextToken()

	for !p.check(closing) && !p.check(token.EOF) && !p.failed() {
		item := p.parseCollectionItem(c.Kind)
		if item == nil {
			return nil
		}

		if len(c.Elts) == 0 && (p.check(token.FOR) || p.check(token.ASYNC)) {
			elts := p.parseCompClauses(item)
			if elts == nil {
				return nil
			}
			c.Elts = elts
			c.Comprehension = true
			break
		}

		c.Elts = append(c.Elts, item)
		if !p.match(token.COMMA) {
			break
		}
	}

	closeTok, ok := p.expectClose(closing, open)
	if !ok {
		return nil
	}
	c.Span = token.Span{Start: open.Pos, End: closeTok.End}
	return c
}

// parseCollectionItem parses one element of a display.
func (p *Parser) parseCollectionItem(kind core.CollectionKind) core.Expr {
	switch {
	case p.check(token.STAR), kind == core.CollectionBrace && p.check(token.DSTAR):
		double := p.check(token.DSTAR)
		pos := p.token.Pos
		p.nextToken()
		x := p.parseBitOr()
		if x == nil {
			return nil
		}
		return &core.Starred{X: x, Double: double, StarPos: pos}
	case p.check(token.YIELD):
		return p.parseYield()
	}

	x := p.parseExpression()
	if x == nil {
		return nil
	}
	if kind == core.CollectionBrace && p.match(token.COLON) {
		v := p.parseTest()
		if v == nil {
			return nil
		}
		return &core.Pair{Key: x, Value: v}
	}
	return x
}

// parseCompClauses parses the for/if clauses following a comprehension
// element and returns the element, targets, iterables and filters in
// source order:
//
//	(["async"] "for" targets "in" or_test ("if" or_test)*)+
func (p *Parser) parseCompClauses(elt core.Expr) []core.Expr {
	out := []core.Expr{elt}

	for p.check(token.FOR) || (p.check(token.ASYNC) && p.checkPeek(token.FOR)) {
		p.match(token.ASYNC)
		p.nextToken() // consume FOR

		for {
			var target core.Expr
			if p.check(token.STAR) {
				pos := p.token.Pos
				p.nextToken()
				x := p.parseBitOr()
				if x == nil {
					return nil
				}
				target = &core.Starred{X: x, StarPos: pos}
			} else if target = p.parseBitOr(); target == nil {
				return nil
			}
			out = append(out, target)
			if !p.match(token.COMMA) || p.check(token.IN) {
				break
			}
		}

		if !p.expect(token.IN) {
			return nil
		}
		iter := p.parseOrTest()
		if iter == nil {
			return nil
		}
		out = append(out, iter)

		for p.match(token.IF) {
			cond := p.parseOrTest()
			if cond == nil {
				return nil
			}
			out = append(out, cond)
		}
	}
	return out
}
