// Package sqllex tokenizes SQL text loosely enough to survive any dialect.
// Every byte of input ends up in some token, so lexing never fails on
// unfamiliar syntax.
package sqllex

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/cockroachdb/errors"
	"github.com/ggm-tools/ddlmodel/dbtable"
)

type Kind int

const (
	Ident Kind = iota
	QuotedIdent
	String
	Number
	Punct
	Comment
	Other
)

var definition = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "String", Pattern: `[NnEe]?'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: "\"(?:[^\"]|\"\")*\"|`[^`]*`|\\[[^\\]]*[A-Za-z_][^\\]]*\\]"},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_\p{L}][A-Za-z0-9_$#\p{L}]*`},
	{Name: "Punct", Pattern: `::|<>|<=|>=|!=|\|\||[(),;.*=<>+\-/%\[\]:|&^~!?@{}]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

var kindBySymbol = func() map[lexer.TokenType]Kind {
	syms := definition.Symbols()
	return map[lexer.TokenType]Kind{
		syms["Comment"]:     Comment,
		syms["String"]:      String,
		syms["QuotedIdent"]: QuotedIdent,
		syms["Number"]:      Number,
		syms["Ident"]:       Ident,
		syms["Punct"]:       Punct,
		syms["Other"]:       Other,
	}
}()

// Token is a lexed token. Whitespace is never emitted.
type Token struct {
	Kind  Kind
	Value string
	Pos   lexer.Position
}

// Lex splits text into tokens, keeping comments.
func Lex(filename, text string) ([]Token, error) {
	l, err := definition.LexString(filename, text)
	if err != nil {
		return nil, errors.Wrapf(err, "error lexing %s", filename)
	}
	raw, err := lexer.ConsumeAll(l)
	if err != nil {
		return nil, errors.Wrapf(err, "error lexing %s", filename)
	}
	ret := make([]Token, 0, len(raw))
	for _, tok := range raw {
		if tok.EOF() {
			break
		}
		kind, ok := kindBySymbol[tok.Type]
		if !ok {
			continue
		}
		ret = append(ret, Token{Kind: kind, Value: tok.Value, Pos: tok.Pos})
	}
	return ret, nil
}

// WithoutComments drops comment tokens.
func WithoutComments(toks []Token) []Token {
	ret := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != Comment {
			ret = append(ret, t)
		}
	}
	return ret
}

// Is reports whether the token is the given keyword, case-insensitively.
func (t Token) Is(keyword string) bool {
	return t.Kind == Ident && strings.EqualFold(t.Value, keyword)
}

func (t Token) IsPunct(p string) bool {
	return t.Kind == Punct && t.Value == p
}

// IsName reports whether the token can name a table or column.
func (t Token) IsName() bool {
	return t.Kind == Ident || t.Kind == QuotedIdent
}

// Ident returns the identifier with any quoting removed.
func (t Token) Ident() dbtable.Ident {
	if t.Kind != QuotedIdent || len(t.Value) < 2 {
		return dbtable.Ident(t.Value)
	}
	inner := t.Value[1 : len(t.Value)-1]
	if t.Value[0] == '"' {
		inner = strings.ReplaceAll(inner, `""`, `"`)
	}
	return dbtable.Ident(inner)
}

// Text returns the content of a string literal.
func (t Token) Text() string {
	if t.Kind != String {
		return t.Value
	}
	v := t.Value
	if v[0] != '\'' {
		v = v[1:]
	}
	return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
}

// Join renders tokens back into compact SQL text.
func Join(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && needsSpace(toks[i-1], t) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Value)
	}
	return sb.String()
}

func needsSpace(prev, cur Token) bool {
	switch {
	case prev.IsPunct("(") || prev.IsPunct(".") || prev.IsPunct("::"):
		return false
	case cur.IsPunct(")") || cur.IsPunct(",") || cur.IsPunct(".") || cur.IsPunct("::"):
		return false
	case cur.IsPunct("(") && (prev.Kind == Ident || prev.Kind == QuotedIdent):
		return false
	}
	return true
}

// MatchParen returns the index of the parenthesis closing the one at
// toks[open], or -1 if it is never closed.
func MatchParen(toks []Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].IsPunct("("):
			depth++
		case toks[i].IsPunct(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SplitTopLevel splits toks on sep outside of any parentheses.
func SplitTopLevel(toks []Token, sep string) [][]Token {
	var ret [][]Token
	depth := 0
	start := 0
	for i, t := range toks {
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			if depth > 0 {
				depth--
			}
		case depth == 0 && t.IsPunct(sep):
			ret = append(ret, toks[start:i])
			start = i + 1
		}
	}
	return append(ret, toks[start:])
}
