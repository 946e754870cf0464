package scanner

import (
	"testing"

	"github.com/lumenlang/lumen/internal/object"
)

func allTokens(t *testing.T, src string) []Token {
	s := New(src)
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF || tok.Kind == Error {
			break
		}
	}
	return toks
}

func TestKeywordAndOperatorSubKinds(t *testing.T) {
	tests := []struct {
		input   string
		subKind object.SubKind
	}{
		{"let", object.SubLet},
		{"letter", object.SubNone},
		{"lambda", object.SubLambda},
		{"+", object.SubAdd},
		{"-", object.SubSub},
		{"/", object.SubDiv},
		{"*", object.SubMul},
		{"and", object.SubAnd},
		{"or", object.SubOr},
		{"eqv?", object.SubEqvP},
		{"equal?", object.SubEqualP},
		{"frobnicate", object.SubNone},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := allTokens(t, tt.input)
			if len(toks) < 1 || toks[0].Kind != Symbol {
				t.Fatalf("expected a single Symbol token, got %+v", toks)
			}
			if toks[0].SubKind != tt.subKind {
				t.Errorf("%q: got sub-kind %d, want %d", tt.input, toks[0].SubKind, tt.subKind)
			}
		})
	}
}

func TestTokenKindSequence(t *testing.T) {
	toks := allTokens(t, "(+ 1 2.5 \"hi\" :key #t)")
	want := []Kind{LeftParen, Symbol, Number, Number, String, Keyword, Boolean, RightParen, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %d, want %d", i, toks[i].Kind, k)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks := allTokens(t, `"a\nb\t\"c\""`)
	if toks[0].Kind != String {
		t.Fatalf("expected String token, got %+v", toks[0])
	}
	want := "a\nb\t\"c\""
	if toks[0].Text != want {
		t.Errorf("got %q, want %q", toks[0].Text, want)
	}
}

func TestNegativeNumberVsSubtraction(t *testing.T) {
	toks := allTokens(t, "(- 3 -1)")
	if toks[1].Kind != Symbol || toks[1].SubKind != object.SubSub {
		t.Fatalf("expected '-' to scan as the subtraction operator, got %+v", toks[1])
	}
	if toks[3].Kind != Number || toks[3].Number != -1 {
		t.Fatalf("expected -1 to scan as a single negative number token, got %+v", toks[3])
	}
}

func TestUnterminatedStringIsAnError(t *testing.T) {
	toks := allTokens(t, `"unterminated`)
	last := toks[len(toks)-1]
	if last.Kind != Error {
		t.Fatalf("expected an Error token, got %+v", last)
	}
}
