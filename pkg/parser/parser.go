// Package parser provides a Python expression parser sufficient for
// method-chain analysis.
//
// # Usage
//
//	mod, err := parser.ParseFile("models.py", src)
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// Statements are not modelled. The parser walks the token stream one
// logical line at a time, steps over statement keywords and punctuation,
// and parses every expression it finds into core.Module.Body:
//
//	module        → (statement_piece | expression | NEWLINE)*
//	expression    → NAME ":=" expression | "yield" ["from"] [test] | test
//	test          → lambda | or_test ["if" or_test "else" test]
//	or_test       → and_test ("or" and_test)*
//	and_test      → not_test ("and" not_test)*
//	not_test      → "not" not_test | comparison
//	comparison    → bitor (comp_op bitor)*
//	bitor .. term → usual binary precedence ladder
//	factor        → ("+"|"-"|"~") factor | power
//	power         → ["await"] primary ["**" factor]
//	primary       → atom ("." NAME | "(" args ")" | "[" subscript "]")*
//
// Function and class headers are parsed just enough to reach default
// values, annotations and base-class expressions. See parser_expr.go for
// the expression rules.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/token"
)

// Parser parses Python source into a core.Module.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given Python source.
func NewParser(src string) *Parser {
	p := &Parser{
		lexer: NewLexer(src),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses src as an anonymous module.
func Parse(src string) (*core.Module, error) {
	return ParseFile("", src)
}

// ParseFile parses src and names the resulting module after filename.
// The first lexical or syntax error is returned; the module is nil then.
func ParseFile(filename, src string) (*core.Module, error) {
	p := NewParser(src)
	mod := p.parseModule()
	if errs := p.lexer.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	mod.Name = filename
	return mod, nil
}

// Errors returns every syntax error recorded so far.
func (p *Parser) Errors() []error {
	return p.errors
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// expectClose consumes the closing bracket of a region opened at open.
func (p *Parser) expectClose(closing token.TokenType, open token.Token) (token.Token, bool) {
	tok := p.token
	if p.check(closing) {
		p.nextToken()
		return tok, true
	}
	if p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrUnclosedBracket, open.Literal, open.Pos.Line))
		return tok, false
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), closing))
	return tok, false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// failed reports whether parsing has already hit an error. Loops bail out
// on it so a bad token can never stall the parser.
func (p *Parser) failed() bool {
	return len(p.errors) > 0 || len(p.lexer.Errors()) > 0
}

// describe renders a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.NAME, token.NUMBER, token.STRING, token.ILLEGAL:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	default:
		return tok.Type.String()
	}
}

// ---------- Module ----------

// parseModule parses the whole token stream.
func (p *Parser) parseModule() *core.Module {
	mod := &core.Module{
		Span: token.Span{Start: token.Position{Line: 1, Column: 1}},
	}

	for !p.check(token.EOF) && !p.failed() {
		mod.Body = append(mod.Body, p.parseStatementPiece()...)
	}

	mod.Span.End = p.token.Pos
	mod.Comments = p.lexer.Comments
	return mod
}

// parseStatementPiece consumes at least one token and returns any
// expressions it parsed.
func (p *Parser) parseStatementPiece() []core.Expr {
	switch p.token.Type {
	case token.DEF:
		return p.parseFunctionHeader()
	case token.CLASS:
		return p.parseClassHeader()
	case token.IMPORT:
		p.skipLine()
		return nil
	case token.FROM:
		// from x import y; "yield from" is handled inside expressions
		p.skipLine()
		return nil
	case token.IF, token.ELIF, token.ELSE, token.WHILE, token.FOR, token.IN,
		token.WITH, token.AS, token.TRY, token.EXCEPT, token.FINALLY,
		token.ASSERT, token.RETURN, token.DEL, token.RAISE, token.GLOBAL,
		token.NONLOCAL, token.PASS, token.BREAK, token.CONTINUE, token.ASYNC:
		p.nextToken()
		return nil
	case token.NEWLINE, token.SEMICOLON, token.COMMA, token.COLON,
		token.ASSIGN, token.AUGASSIGN, token.ARROW, token.AT, token.STAR,
		token.DSTAR:
		p.nextToken()
		return nil
	case token.RPAREN, token.RBRACKET, token.RBRACE:
		p.addError(fmt.Sprintf("unmatched %s", p.token.Type))
		p.nextToken()
		return nil
	case token.ILLEGAL:
		p.addError(fmt.Sprintf("invalid character %q", p.token.Literal))
		p.nextToken()
		return nil
	}

	if !canStartExpression(p.token.Type) {
		p.addError(fmt.Sprintf(ErrExpectedExpression, describe(p.token)))
		p.nextToken()
		return nil
	}

	if e := p.parseExpression(); e != nil {
		return []core.Expr{e}
	}
	return nil
}

// skipLine skips to the end of the current logical line.
func (p *Parser) skipLine() {
	for !p.check(token.NEWLINE) && !p.check(token.EOF) {
		p.nextToken()
	}
}

// parseFunctionHeader parses:
//
//	"def" NAME ["[" type_params "]"] "(" params ")" ["->" test] ":"
//
// and returns the annotations and default values it contains.
func (p *Parser) parseFunctionHeader() []core.Expr {
	p.nextToken() // consume DEF
	if !p.expect(token.NAME) {
		return nil
	}

	var out []core.Expr
	if p.check(token.LBRACKET) {
		if c := p.parseCollection(); c != nil {
			out = append(out, c)
		}
	}

	open := p.token
	if !p.expect(token.LPAREN) {
		return out
	}
	out = append(out, p.parseParams(token.RPAREN, true)...)
	if _, ok := p.expectClose(token.RPAREN, open); !ok {
		return out
	}

	if p.match(token.ARROW) {
		if e := p.parseTest(); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// parseParams parses a parameter list up to (not including) end.
// Annotations are only valid in def headers.
func (p *Parser) parseParams(end token.TokenType, annotations bool) []core.Expr {
	var out []core.Expr
	for !p.check(end) && !p.check(token.EOF) && !p.failed() {
		switch {
		case p.match(token.COMMA), p.match(token.STAR), p.match(token.DSTAR), p.match(token.SLASH):
			continue
		case p.check(token.NAME):
			p.nextToken()
		default:
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "parameter"))
			return out
		}

		if annotations && p.match(token.COLON) {
			if e := p.parseTest(); e != nil {
				out = append(out, e)
			}
		}
		if p.match(token.ASSIGN) {
			if e := p.parseTest(); e != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

// parseClassHeader parses:
//
//	"class" NAME ["[" type_params "]"] ["(" args ")"] ":"
//
// and returns the base class and keyword expressions.
func (p *Parser) parseClassHeader() []core.Expr {
	p.nextToken() // consume CLASS
	if !p.expect(token.NAME) {
		return nil
	}

	var out []core.Expr
	if p.check(token.LBRACKET) {
		if c := p.parseCollection(); c != nil {
			out = append(out, c)
		}
	}
	if p.check(token.LPAREN) {
		open := p.token
		p.nextToken()
		args, kws := p.parseArgs()
		out = append(out, args...)
		for _, kw := range kws {
			out = append(out, kw)
		}
		p.expectClose(token.RPAREN, open)
	}
	return out
}
