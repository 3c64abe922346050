package lexer

import (
	"math/big"
	"testing"

	"yasny/internal/diagnostics"
)

func tokenTypes(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, got []TokenType, want []TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestTokenizeKeywordsAndPunctuation(t *testing.T) {
	src := "пусть x: Цел = 1 + 2"
	toks := New(src, "").Tokenize()
	assertTypes(t, tokenTypes(toks), []TokenType{
		TokenLet, TokenIdent, TokenColon, TokenIdent, TokenAssign, TokenInt, TokenPlus, TokenInt, TokenNewline, TokenEOF,
	})
}

func TestTokenizeIndentDedent(t *testing.T) {
	src := "если истина:\n    печать(1)\nпечать(2)"
	toks := New(src, "").Tokenize()
	types := tokenTypes(toks)
	// если истина : NEWLINE INDENT печать ( 1 ) NEWLINE DEDENT печать ( 2 ) NEWLINE EOF
	wantHasIndent, wantHasDedent := false, false
	for _, tt := range types {
		if tt == TokenIndent {
			wantHasIndent = true
		}
		if tt == TokenDedent {
			wantHasDedent = true
		}
	}
	if !wantHasIndent || !wantHasDedent {
		t.Fatalf("expected both INDENT and DEDENT in %v", types)
	}
}

func TestTokenizeMismatchedDedentIsSyntaxError(t *testing.T) {
	src := "если истина:\n    печать(1)\n  печать(2)"
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on bad dedent")
		}
		if _, ok := r.(*diagnostics.Error); !ok {
			t.Fatalf("expected *diagnostics.Error, got %T", r)
		}
	}()
	New(src, "").Tokenize()
}

func TestTokenizeTabRejected(t *testing.T) {
	src := "если истина:\n\tпечать(1)"
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on tab indentation")
		}
	}()
	New(src, "").Tokenize()
}

func TestTokenizeStringEscapes(t *testing.T) {
	src := `"a\nb\tc\"d"`
	toks := New(src, "").Tokenize()
	if toks[0].Type != TokenString {
		t.Fatalf("expected STRING, got %s", toks[0].Type)
	}
	want := "a\nb\tc\"d"
	if toks[0].Value.(string) != want {
		t.Fatalf("got %q, want %q", toks[0].Value, want)
	}
}

func TestTokenizeUnterminatedStringIsSyntaxError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unterminated string")
		}
	}()
	New(`"abc`, "").Tokenize()
}

func TestTokenizeIntLiteralIsArbitraryPrecision(t *testing.T) {
	src := "99999999999999999999999999999999999999"
	toks := New(src, "").Tokenize()
	if toks[0].Type != TokenInt {
		t.Fatalf("expected INT, got %s", toks[0].Type)
	}
	got, ok := toks[0].Value.(*big.Int)
	if !ok {
		t.Fatalf("expected *big.Int value, got %T", toks[0].Value)
	}
	want, _ := new(big.Int).SetString(src, 10)
	if got.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestTokenizeFloatLiteral(t *testing.T) {
	toks := New("3.14", "").Tokenize()
	if toks[0].Type != TokenFloat {
		t.Fatalf("expected FLOAT, got %s", toks[0].Type)
	}
	if toks[0].Value.(float64) != 3.14 {
		t.Fatalf("got %v", toks[0].Value)
	}
}

func TestTokenizeDotWithoutDigitIsSyntaxError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on trailing dot with no digit")
		}
	}()
	New("1.x", "").Tokenize()
}

func TestTokenizeCommentsAndBlankLinesIgnored(t *testing.T) {
	src := "# a comment\n\nпусть x = 1 # trailing"
	toks := New(src, "").Tokenize()
	assertTypes(t, tokenTypes(toks), []TokenType{TokenLet, TokenIdent, TokenAssign, TokenInt, TokenNewline, TokenEOF})
}

func TestTokenizeTwoCharOperatorsNotSplit(t *testing.T) {
	src := "функция f() -> Цел:\n    вернуть 1 == 1"
	toks := New(src, "").Tokenize()
	found := false
	for _, tok := range toks {
		if tok.Type == TokenArrow {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected -> token, got %v", tokenTypes(toks))
	}
}

func TestTokenizeAsyncAwaitKeywords(t *testing.T) {
	toks := New("асинхронная функция f() -> Задача:\n    вернуть ждать t", "").Tokenize()
	types := tokenTypes(toks)
	assertTypes(t, types[:2], []TokenType{TokenAsync, TokenFunc})
}
