package lexer

import (
	"strings"
	"testing"
)

func collect(t *testing.T, source string) []Token {
	t.Helper()
	tokens, errs := New(source, "test.mini").Tokenize()
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	return tokens
}

func TestLexer_Keywords(t *testing.T) {
	source := "program declare set output outputln if then else fi for by to while do label repeat repent end"
	expectedTypes := []TokenType{
		TokenProgram, TokenDeclare, TokenSet, TokenOutput, TokenOutputln,
		TokenIf, TokenThen, TokenElse, TokenFi, TokenFor, TokenBy, TokenTo,
		TokenWhile, TokenDo, TokenLabel, TokenRepeat, TokenRepent, TokenEnd,
		TokenEOF,
	}

	tokens := collect(t, source)
	if len(tokens) != len(expectedTypes) {
		t.Fatalf("expected %d tokens, got %d", len(expectedTypes), len(tokens))
	}
	for i, expected := range expectedTypes {
		if tokens[i].Type != expected {
			t.Errorf("token %d: expected %v, got %v", i, expected, tokens[i].Type)
		}
	}
}

func TestLexer_TypeAndOperatorKeywords(t *testing.T) {
	tests := []struct {
		source string
		want   TokenType
	}{
		{"integer", TokenIntegerType},
		{"real", TokenRealType},
		{"boolean", TokenBooleanType},
		{"string", TokenStringType},
		{"array", TokenArray},
		{"of", TokenOf},
		{"structure", TokenStructure},
		{"type", TokenTypeDecl},
		{"function", TokenFunction},
		{"procedure", TokenProcedure},
		{"return", TokenReturn},
		{"call", TokenCall},
		{"and", TokenAnd},
		{"or", TokenOr},
		{"fix", TokenFix},
		{"float", TokenFloat},
		{"true", TokenTrue},
		{"false", TokenFalse},
		{"Integer", TokenIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tok := collect(t, tt.source)[0]
			if tok.Type != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tok.Type)
			}
		})
	}
}

func TestLexer_Identifiers(t *testing.T) {
	tokens := collect(t, "foo bar _temp myVar123")
	expected := []string{"foo", "bar", "_temp", "myVar123"}

	for i, name := range expected {
		if tokens[i].Type != TokenIdentifier {
			t.Errorf("token %d: expected IDENTIFIER, got %v", i, tokens[i].Type)
		}
		if tokens[i].Lexeme != name {
			t.Errorf("token %d: expected %q, got %q", i, name, tokens[i].Lexeme)
		}
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		source string
		typ    TokenType
		want   string
	}{
		{"42", TokenInteger, "42"},
		{"0", TokenInteger, "0"},
		{"3.14", TokenReal, "3.14"},
		{"1e10", TokenReal, "1e10"},
		{"2.5e-3", TokenReal, "2.5e-3"},
		{"7.", TokenInteger, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tok := collect(t, tt.source)[0]
			if tok.Type != tt.typ {
				t.Errorf("expected %v, got %v", tt.typ, tok.Type)
			}
			if tok.Lexeme != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tok.Lexeme)
			}
		})
	}
}

func TestLexer_Operators(t *testing.T) {
	source := ":= + - * / = <> < <= > >= , ; . [ ] ( )"
	expected := []TokenType{
		TokenBecomes, TokenPlus, TokenMinus, TokenStar, TokenSlash,
		TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater,
		TokenGreaterEqual, TokenComma, TokenSemicolon, TokenDot,
		TokenLeftBracket, TokenRightBracket, TokenLeftParen, TokenRightParen,
		TokenEOF,
	}

	tokens := collect(t, source)
	for i, want := range expected {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %v, got %v", i, want, tokens[i].Type)
		}
	}
}

func TestLexer_FieldAfterIndex(t *testing.T) {
	tokens := collect(t, "a[1].x")
	expected := []TokenType{
		TokenIdentifier, TokenLeftBracket, TokenInteger, TokenRightBracket,
		TokenDot, TokenIdentifier, TokenEOF,
	}
	for i, want := range expected {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %v, got %v", i, want, tokens[i].Type)
		}
	}
}

func TestLexer_Text(t *testing.T) {
	tokens := collect(t, `output "hello, \"mini\"\n";`)
	if tokens[1].Type != TokenText {
		t.Fatalf("expected TEXT, got %v", tokens[1].Type)
	}
	if tokens[1].Lexeme != `"hello, \"mini\"\n"` {
		t.Errorf("lexeme = %s", tokens[1].Lexeme)
	}
}

func TestLexer_Comments(t *testing.T) {
	source := "set // trailing\n/* block /* nested */ still */ a"
	tokens := collect(t, source)

	if len(tokens) != 3 {
		t.Fatalf("expected set, a, EOF; got %v", tokens)
	}
	if tokens[1].Lexeme != "a" || tokens[1].Position.Line != 2 {
		t.Errorf("a = %v", tokens[1])
	}
}

func TestLexer_Positions(t *testing.T) {
	tokens := collect(t, "program p;\n  declare x integer;")

	tests := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 1},
		{1, 1, 9},
		{3, 2, 3},
		{4, 2, 11},
	}

	for _, tt := range tests {
		pos := tokens[tt.index].Position
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Errorf("token %d (%s): got %d:%d, want %d:%d",
				tt.index, tokens[tt.index].Lexeme, pos.Line, pos.Column, tt.line, tt.column)
		}
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"bad character", "a ? b", "unexpected character"},
		{"lone colon", "a : b", "did you mean ':='"},
		{"unterminated text", `"abc`, "unterminated text literal"},
		{"text across lines", "\"abc\ndef\"", "unterminated text literal"},
		{"unterminated comment", "/* open", "unterminated block comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := New(tt.source, "test.mini").Tokenize()
			if len(errs) == 0 {
				t.Fatal("expected an error")
			}
			if !strings.Contains(errs[0].Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", errs[0], tt.wantErr)
			}
			if !strings.HasPrefix(errs[0].Error(), "test.mini:1:") {
				t.Errorf("error %q lacks a position", errs[0])
			}
		})
	}
}
