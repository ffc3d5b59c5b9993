package sqllex

import (
	"testing"

	"github.com/ggm-tools/ddlmodel/dbtable"
	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	toks, err := Lex("x.sql", "CREATE TABLE \"My \"\"T\"\" \" ([id] INT, n VARCHAR(10) DEFAULT N'it''s') -- done\n/* block\n */;")
	require.NoError(t, err)

	var kinds []Kind
	var values []string
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
		values = append(values, tok.Value)
	}
	require.Equal(t, []string{
		"CREATE", "TABLE", `"My ""T"" "`, "(", "[id]", "INT", ",", "n", "VARCHAR", "(", "10", ")",
		"DEFAULT", "N'it''s'", ")", "-- done", "/* block\n */", ";",
	}, values)
	require.Equal(t, []Kind{
		Ident, Ident, QuotedIdent, Punct, QuotedIdent, Ident, Punct, Ident, Ident, Punct, Number, Punct,
		Ident, String, Punct, Comment, Comment, Punct,
	}, kinds)

	require.Equal(t, dbtable.Ident(`My "T" `), toks[2].Ident())
	require.Equal(t, dbtable.Ident("id"), toks[4].Ident())
	require.Equal(t, "it's", toks[13].Text())
	require.Equal(t, 1, toks[0].Pos.Line)
	require.Equal(t, 2, toks[16].Pos.Line)
	require.Len(t, WithoutComments(toks), 16)
}

func TestLexNeverFails(t *testing.T) {
	toks, err := Lex("x.sql", "SELECT § FROM t WHERE a[1] = 'x")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	var sawOther bool
	for _, tok := range toks {
		if tok.Kind == Other {
			sawOther = true
		}
	}
	require.True(t, sawOther)
}

func TestTokenHelpers(t *testing.T) {
	toks, err := Lex("x.sql", "a (b, (c, d)), e ( f")
	require.NoError(t, err)

	require.True(t, toks[0].Is("A"))
	require.False(t, toks[1].Is("("))
	require.True(t, toks[1].IsPunct("("))

	require.Equal(t, 9, MatchParen(toks, 1))
	require.Equal(t, -1, MatchParen(toks, 12))

	parts := SplitTopLevel(toks, ",")
	require.Len(t, parts, 2)
	require.Equal(t, "a(b, (c, d))", Join(parts[0]))
	require.Equal(t, "e(f", Join(parts[1]))
}

func TestJoin(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		in       string
		expected string
	}{
		{desc: "call", in: "CAST ( x AS VARCHAR ( 10 ) )", expected: "CAST(x AS VARCHAR(10))"},
		{desc: "qualified", in: "s . t", expected: "s.t"},
		{desc: "pg cast", in: "x :: text", expected: "x::text"},
		{desc: "list", in: "PRIMARY KEY ( a , b )", expected: "PRIMARY KEY(a, b)"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			toks, err := Lex("x.sql", tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.expected, Join(toks))
		})
	}
}
