package parser

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/chainlint/pkg/token"
)

// Lexer tokenizes Python source.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	// position of the last consumed char, used for token end positions
	prevLine int
	prevCol  int

	// bracket nesting; newlines inside brackets are not logical line ends
	depth int

	// Comments collected during lexing (for noqa handling)
	Comments []*token.Comment

	errors []error
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Errors returns the lexical errors found so far.
func (l *Lexer) Errors() []error {
	return l.errors
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	l.prevLine, l.prevCol = l.line, l.col
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}

	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// peekCharN returns the character n positions after the current one.
func (l *Lexer) peekCharN(n int) byte {
	i := l.pos + n
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// endPos returns the position just past the last consumed character.
func (l *Lexer) endPos() token.Position {
	return token.Position{
		Line:   l.prevLine,
		Column: l.prevCol + 1,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()

	if l.ch == '\n' {
		l.readChar()
		return token.Token{Type: token.NEWLINE, Literal: "\n", Pos: pos, End: pos}
	}

	if l.ch == 0 {
		return token.Token{Type: token.EOF, Pos: pos, End: pos}
	}

	if isIdentStart(l.ch) {
		ident := l.readIdentifier()
		if isStringPrefix(ident) && (l.ch == '\'' || l.ch == '"') {
			return l.readString(pos, ident)
		}
		return l.finish(token.LookupIdent(ident), ident, pos)
	}

	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		return l.finish(token.NUMBER, l.readNumber(), pos)
	}

	if l.ch == '\'' || l.ch == '"' {
		return l.readString(pos, "")
	}

	tokType, width := l.operator()
	if tokType == token.ILLEGAL {
		lit := string(l.ch)
		l.readChar()
		return l.finish(token.ILLEGAL, lit, pos)
	}

	switch {
	case token.IsOpenBracket(tokType):
		l.depth++
	case token.IsCloseBracket(tokType) && l.depth > 0:
		l.depth--
	}

	lit := l.input[l.pos : l.pos+width]
	for i := 0; i < width; i++ {
		l.readChar()
	}
	return l.finish(tokType, lit, pos)
}

func (l *Lexer) finish(t token.TokenType, lit string, pos token.Position) token.Token {
	return token.Token{Type: t, Literal: lit, Pos: pos, End: l.endPos()}
}

// operator identifies the operator at the current position and its width.
// Longest match wins.
func (l *Lexer) operator() (token.TokenType, int) {
	c1, c2 := l.peekCharN(1), l.peekCharN(2)

	switch l.ch {
	case '+', '%', '@', '|', '&', '^':
		if c1 == '=' {
			return token.AUGASSIGN, 2
		}
		return map[byte]token.TokenType{
			'+': token.PLUS, '%': token.PERCENT, '@': token.AT,
			'|': token.PIPE, '&': token.AMP, '^': token.CARET,
		}[l.ch], 1
	case '-':
		switch c1 {
		case '=':
			return token.AUGASSIGN, 2
		case '>':
			return token.ARROW, 2
		}
		return token.MINUS, 1
	case '*':
		if c1 == '*' {
			if c2 == '=' {
				return token.AUGASSIGN, 3
			}
			return token.DSTAR, 2
		}
		if c1 == '=' {
			return token.AUGASSIGN, 2
		}
		return token.STAR, 1
	case '/':
		if c1 == '/' {
			if c2 == '=' {
				return token.AUGASSIGN, 3
			}
			return token.DSLASH, 2
		}
		if c1 == '=' {
			return token.AUGASSIGN, 2
		}
		return token.SLASH, 1
	case '<':
		switch c1 {
		case '<':
			if c2 == '=' {
				return token.AUGASSIGN, 3
			}
			return token.LSHIFT, 2
		case '=':
			return token.LE, 2
		case '>':
			return token.NE, 2
		}
		return token.LT, 1
	case '>':
		switch c1 {
		case '>':
			if c2 == '=' {
				return token.AUGASSIGN, 3
			}
			return token.RSHIFT, 2
		case '=':
			return token.GE, 2
		}
		return token.GT, 1
	case '=':
		if c1 == '=' {
			return token.EQ, 2
		}
		return token.ASSIGN, 1
	case '!':
		if c1 == '=' {
			return token.NE, 2
		}
	case ':':
		if c1 == '=' {
			return token.WALRUS, 2
		}
		return token.COLON, 1
	case '.':
		if c1 == '.' && c2 == '.' {
			return token.ELLIPSIS, 3
		}
		return token.DOT, 1
	case '~':
		return token.TILDE, 1
	case ',':
		return token.COMMA, 1
	case ';':
		return token.SEMICOLON, 1
	case '(':
		return token.LPAREN, 1
	case ')':
		return token.RPAREN, 1
	case '[':
		return token.LBRACKET, 1
	case ']':
		return token.RBRACKET, 1
	case '{':
		return token.LBRACE, 1
	case '}':
		return token.RBRACE, 1
	}
	return token.ILLEGAL, 1
}

// skipWhitespaceAndComments skips insignificant whitespace, explicit line
// joins and comments. Newlines are only skipped inside brackets.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\f':
			l.readChar()
		case l.ch == '\n' && l.depth > 0:
			l.readChar()
		case l.ch == '\\' && (l.peekChar() == '\n' || (l.peekChar() == '\r' && l.peekCharN(2) == '\n')):
			l.readChar() // skip '\'
			if l.ch == '\r' {
				l.readChar()
			}
			l.readChar() // skip newline
		case l.ch == '#':
			l.collectLineComment()
		default:
			return
		}
	}
}

// collectLineComment collects a # comment up to the end of the line.
func (l *Lexer) collectLineComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Text: strings.TrimRight(l.input[startOffset:l.pos], "\r"),
		Span: token.Span{Start: startPos, End: l.endPos()},
	})
}

// readString reads a string literal whose optional prefix has already been
// consumed. The literal keeps its prefix and quotes. Backslash always
// escapes the following character, raw strings included, which is how
// Python finds the closing quote.
func (l *Lexer) readString(pos token.Position, prefix string) token.Token {
	start := l.pos - len(prefix)
	quote := l.ch
	triple := l.peekCharN(1) == quote && l.peekCharN(2) == quote

	if triple {
		l.readChar()
		l.readChar()
	}
	l.readChar() // opening quote

	for {
		switch {
		case l.ch == 0, l.ch == '\n' && !triple:
			l.errors = append(l.errors, &LexError{Pos: pos, Message: ErrUnterminatedString})
			return l.finish(token.ILLEGAL, l.input[start:l.pos], pos)
		case l.ch == '\\':
			l.readChar()
			if l.ch != 0 {
				l.readChar()
			}
		case l.ch == quote && !triple:
			l.readChar()
			return l.finish(token.STRING, l.input[start:l.pos], pos)
		case l.ch == quote && l.peekCharN(1) == quote && l.peekCharN(2) == quote:
			l.readChar()
			l.readChar()
			l.readChar()
			return l.finish(token.STRING, l.input[start:l.pos], pos)
		default:
			l.readChar()
		}
	}
}

// readIdentifier reads an identifier. Bytes >= 0x80 are accepted so UTF-8
// identifiers survive intact.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal: decimal, hex/octal/binary, float,
// exponent, imaginary, with digit separators.
func (l *Lexer) readNumber() string {
	start := l.pos
	hex := l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X')

	for isDigit(l.ch) || isLetter(l.ch) || l.ch == '_' || l.ch == '.' {
		if l.ch == '.' && l.peekChar() == '.' {
			break
		}
		prev := l.ch
		l.readChar()
		if !hex && (prev == 'e' || prev == 'E') && (l.ch == '+' || l.ch == '-') {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

// isStringPrefix reports whether ident is a valid string literal prefix.
func isStringPrefix(ident string) bool {
	if len(ident) == 0 || len(ident) > 2 {
		return false
	}
	seen := map[byte]bool{}
	for i := 0; i < len(ident); i++ {
		c := ident[i] | 0x20 // lower-case ASCII letters
		if c != 'r' && c != 'b' && c != 'u' && c != 'f' {
			return false
		}
		if seen[c] {
			return false
		}
		seen[c] = true
	}
	if len(ident) == 2 && (seen['u'] || (seen['b'] && seen['f'])) {
		return false
	}
	return true
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_' || ch >= 0x80
}

// isLetter returns true if ch is an ASCII letter.
func isLetter(ch byte) bool {
	return ch < 0x80 && unicode.IsLetter(rune(ch))
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input.
func Tokenize(input string) []token.Token {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
