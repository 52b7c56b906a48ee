package reader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hql/internal/herrors"
	"hql/internal/sexp"
)

// TestLexerScenario is spec §8 concrete scenario 1.
func TestLexerScenario(t *testing.T) {
	forms, err := ReadAll(`(+ 1 2.5 "a\"b")`, "test.hql")
	require.NoError(t, err)
	require.Len(t, forms, 1)

	lst, ok := forms[0].(*sexp.List)
	require.True(t, ok)
	require.Len(t, lst.Elements, 4)

	sym, ok := lst.Elements[0].(*sexp.Symbol)
	require.True(t, ok)
	require.Equal(t, "+", sym.Name)

	lit1 := lst.Elements[1].(*sexp.Literal)
	require.Equal(t, sexp.IntLit, lit1.Kind)
	require.EqualValues(t, 1, lit1.Int)

	lit2 := lst.Elements[2].(*sexp.Literal)
	require.Equal(t, sexp.FloatLit, lit2.Kind)
	require.InDelta(t, 2.5, lit2.Float, 1e-9)

	lit3 := lst.Elements[3].(*sexp.Literal)
	require.Equal(t, sexp.StringLit, lit3.Kind)
	require.Equal(t, `a"b`, lit3.Str)
}

func TestQuoteForms(t *testing.T) {
	cases := map[string]string{
		"'x":   "(quote x)",
		"`x":   "(quasiquote x)",
		"~x":   "(unquote x)",
		"~@x":  "(unquote-splicing x)",
	}
	for src, want := range cases {
		forms, err := ReadAll(src, "test.hql")
		require.NoError(t, err)
		require.Len(t, forms, 1)
		require.Equal(t, want, forms[0].String())
	}
}

func TestVectorMapSetSugar(t *testing.T) {
	forms, err := ReadAll("[a b c]", "t.hql")
	require.NoError(t, err)
	require.Equal(t, "(vector a b c)", forms[0].String())

	forms, err = ReadAll("[]", "t.hql")
	require.NoError(t, err)
	require.Equal(t, "(empty-array)", forms[0].String())

	forms, err = ReadAll("{k: v, k2: v2}", "t.hql")
	require.NoError(t, err)
	require.Equal(t, "(hash-map k v k2 v2)", forms[0].String())

	forms, err = ReadAll("{}", "t.hql")
	require.NoError(t, err)
	require.Equal(t, "(empty-map)", forms[0].String())

	forms, err = ReadAll("#[a b]", "t.hql")
	require.NoError(t, err)
	require.Equal(t, "(hash-set a b)", forms[0].String())
}

func TestLiteralKeywords(t *testing.T) {
	forms, err := ReadAll("true false nil", "t.hql")
	require.NoError(t, err)
	require.Len(t, forms, 3)
	require.True(t, forms[0].(*sexp.Literal).Bool)
	require.False(t, forms[1].(*sexp.Literal).Bool)
	require.Equal(t, sexp.NilLit, forms[2].(*sexp.Literal).Kind)
}

func TestDotPropertyRewrite(t *testing.T) {
	forms, err := ReadAll(".method", "t.hql")
	require.NoError(t, err)
	require.Equal(t, ".method", forms[0].String())

	forms, err = ReadAll("obj.prop", "t.hql")
	require.NoError(t, err)
	require.Equal(t, "obj.prop", forms[0].String())

	forms, err = ReadAll("obj.dash-prop", "t.hql")
	require.NoError(t, err)
	require.Equal(t, `(get obj "dash-prop")`, forms[0].String())
}

func TestBareTrailingDotIsParseError(t *testing.T) {
	_, err := ReadAll("obj.", "t.hql")
	require.Error(t, err)
	rep, ok := herrors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, herrors.RDRExpectedPropertyAfterDot, rep.Code)
}

func TestUnclosedListIsParseError(t *testing.T) {
	_, err := ReadAll("(+ 1 2", "t.hql")
	require.Error(t, err)
}

func TestUnexpectedCloseIsParseError(t *testing.T) {
	_, err := ReadAll(")", "t.hql")
	require.Error(t, err)
}

// TestRoundTrip is spec P1: serialize(read(s)) parses to the same sequence
// of SExps (up to whitespace).
func TestRoundTrip(t *testing.T) {
	sources := []string{
		`(+ 1 2.5 "a\"b")`,
		"(vector a b c)",
		"(hash-map k v)",
		"(quote (a b c))",
	}
	for _, src := range sources {
		forms, err := ReadAll(src, "t.hql")
		require.NoError(t, err)
		rendered := forms[0].String()
		again, err := ReadAll(rendered, "t.hql")
		require.NoError(t, err)
		require.Equal(t, sexp.Canonical(forms[0]), sexp.Canonical(again[0]))
	}
}
