package lexer

import "testing"

// TestNextToken exercises spec §8 scenario 1: (+ 1 2.5 "a\"b").
func TestNextToken(t *testing.T) {
	input := `(+ 1 2.5 "a\"b")`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LPAREN, "("},
		{SYMBOL, "+"},
		{NUMBER, "1"},
		{NUMBER, "2.5"},
		{STRING, `a"b`},
		{RPAREN, ")"},
		{EOF, ""},
	}

	l := New(input, "test.hql")
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("test[%d] - wrong type. expected=%s, got=%s (%q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("test[%d] - wrong literal. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestDelimitersAndQuotes(t *testing.T) {
	input := "[a b] {k: v} #[a b] 'x `x ~x ~@x"
	want := []TokenType{
		LBRACKET, SYMBOL, SYMBOL, RBRACKET,
		LBRACE, SYMBOL, COLON, SYMBOL, RBRACE,
		HASHBRACKET, SYMBOL, SYMBOL, RBRACKET,
		QUOTE, SYMBOL,
		BACKTICK, SYMBOL,
		TILDE, SYMBOL,
		TILDEAT, SYMBOL,
		EOF,
	}
	l := New(input, "test.hql")
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token[%d]: expected %s, got %s (%q)", i, wt, tok.Type, tok.Literal)
		}
	}
}

func TestComments(t *testing.T) {
	input := "; a line comment\na // another\nb /* block\ncomment */ c"
	l := New(input, "test.hql")
	var got []string
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		got = append(got, tok.Literal)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSymbolWithDotAndDash(t *testing.T) {
	input := "obj.dash-prop obj.prop .method"
	l := New(input, "test.hql")
	for _, want := range []string{"obj.dash-prop", "obj.prop", ".method"} {
		tok := l.NextToken()
		if tok.Type != SYMBOL || tok.Literal != want {
			t.Fatalf("expected SYMBOL %q, got %s %q", want, tok.Type, tok.Literal)
		}
	}
}

func TestNegativeNumberVsMinusSymbol(t *testing.T) {
	l := New("-5 -", "test.hql")
	tok := l.NextToken()
	if tok.Type != NUMBER || tok.Literal != "-5" {
		t.Fatalf("expected NUMBER -5, got %s %q", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != SYMBOL || tok.Literal != "-" {
		t.Fatalf("expected SYMBOL -, got %s %q", tok.Type, tok.Literal)
	}
}
