package parser_test

import (
	"testing"

	"github.com/leapstack-labs/chainlint/pkg/parser"
	"github.com/leapstack-labs/chainlint/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func TestTokenize_MethodChain(t *testing.T) {
	toks := parser.Tokenize("User.query.limit(10)\n")

	assert.Equal(t, []token.TokenType{
		token.NAME, token.DOT, token.NAME, token.DOT, token.NAME,
		token.LPAREN, token.NUMBER, token.RPAREN, token.NEWLINE, token.EOF,
	}, tokenTypes(toks))

	limit := toks[4]
	assert.Equal(t, "limit", limit.Literal)
	assert.Equal(t, token.Position{Line: 1, Column: 12, Offset: 11}, limit.Pos)
	assert.Equal(t, token.Position{Line: 1, Column: 17, Offset: 16}, limit.End)

	assert.Equal(t, token.Position{Line: 1, Column: 21, Offset: 20}, toks[8].Pos, "newline")
	assert.Equal(t, token.Position{Line: 2, Column: 1, Offset: 21}, toks[9].Pos, "eof")
}

func TestTokenize_NewlinesInsideBrackets(t *testing.T) {
	src := "q = (\n    session.query(User)\n    .limit(1)\n)\nx\n"
	types := tokenTypes(parser.Tokenize(src))

	newlines := 0
	for _, tt := range types {
		if tt == token.NEWLINE {
			newlines++
		}
	}
	assert.Equal(t, 2, newlines, "only the two logical line ends are NEWLINE tokens")
}

func TestTokenize_LineContinuation(t *testing.T) {
	toks := parser.Tokenize("a = b \\\n    .c\n")
	assert.Equal(t, []token.TokenType{
		token.NAME, token.ASSIGN, token.NAME, token.DOT, token.NAME, token.NEWLINE, token.EOF,
	}, tokenTypes(toks))
	assert.Equal(t, 2, toks[3].Pos.Line)
}

func TestTokenize_Operators(t *testing.T) {
	tests := []struct {
		src  string
		want token.TokenType
	}{
		{"**", token.DSTAR},
		{"//", token.DSLASH},
		{"**=", token.AUGASSIGN},
		{"//=", token.AUGASSIGN},
		{">>=", token.AUGASSIGN},
		{"+=", token.AUGASSIGN},
		{"->", token.ARROW},
		{":=", token.WALRUS},
		{"...", token.ELLIPSIS},
		{"!=", token.NE},
		{"<>", token.NE},
		{"<=", token.LE},
		{"<<", token.LSHIFT},
		{"==", token.EQ},
		{"@", token.AT},
		{"~", token.TILDE},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks := parser.Tokenize(tt.src)
			require.Len(t, toks, 2)
			assert.Equal(t, tt.want, toks[0].Type)
			assert.Equal(t, tt.src, toks[0].Literal)
		})
	}
}

func TestTokenize_Strings(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"single quoted", `'abc'`},
		{"double quoted", `"abc"`},
		{"escaped quote", `'it\'s'`},
		{"raw", `r'\d+'`},
		{"bytes", `b"\x00"`},
		{"f-string", `f"{x.limit(1)}"`},
		{"raw bytes upper", `Rb'x'`},
		{"triple", "'''a\n'b'\n'''"},
		{"triple double", `"""doc "quoted" text"""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := parser.Tokenize(tt.src)
			require.Len(t, toks, 2)
			assert.Equal(t, token.STRING, toks[0].Type)
			assert.Equal(t, tt.src, toks[0].Literal)
		})
	}
}

func TestTokenize_PrefixLikeNames(t *testing.T) {
	toks := parser.Tokenize("rb bf")
	assert.Equal(t, []token.TokenType{token.NAME, token.NAME, token.EOF}, tokenTypes(toks))
}

func TestTokenize_Numbers(t *testing.T) {
	for _, src := range []string{"1", "1_000", "0x1F", "0o17", "0b1010", "3.14", ".5", "1e10", "1.5e-3", "2j", "10."} {
		t.Run(src, func(t *testing.T) {
			toks := parser.Tokenize(src)
			require.Len(t, toks, 2)
			assert.Equal(t, token.NUMBER, toks[0].Type)
			assert.Equal(t, src, toks[0].Literal)
		})
	}
}

func TestTokenize_Keywords(t *testing.T) {
	toks := parser.Tokenize("not None and True or lambda")
	assert.Equal(t, []token.TokenType{
		token.NOT, token.NONE, token.AND, token.TRUE, token.OR, token.LAMBDA, token.EOF,
	}, tokenTypes(toks))

	// keywords are case-sensitive
	toks = parser.Tokenize("none")
	assert.Equal(t, token.NAME, toks[0].Type)
}

func TestLexer_CollectsComments(t *testing.T) {
	l := parser.NewLexer("x = 1  # noqa: SQ01\n# second\ny\n")
	for l.NextToken().Type != token.EOF {
	}

	require.Len(t, l.Comments, 2)
	assert.Equal(t, "# noqa: SQ01", l.Comments[0].Text)
	assert.Equal(t, 1, l.Comments[0].Line())
	assert.Equal(t, 8, l.Comments[0].Span.Start.Column)
	assert.Equal(t, "second", l.Comments[1].Body())
	assert.Equal(t, 2, l.Comments[1].Line())
}

func TestLexer_UnterminatedString(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"eof", `x = 'abc`},
		{"newline", "x = 'abc\ny = 1"},
		{"triple", `x = """abc`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := parser.NewLexer(tt.src)
			for l.NextToken().Type != token.EOF {
			}
			require.NotEmpty(t, l.Errors())
			assert.Contains(t, l.Errors()[0].Error(), "unterminated string literal")
			assert.Contains(t, l.Errors()[0].Error(), "line 1, column 5")
		})
	}
}
