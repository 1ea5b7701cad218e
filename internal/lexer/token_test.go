package lexer

import (
	"testing"
)

func TestToken_String(t *testing.T) {
	tests := []struct {
		name     string
		token    Token
		expected string
	}{
		{
			name: "identifier token",
			token: Token{
				Type:     TokenIdentifier,
				Lexeme:   "foo",
				Position: Position{Filename: "demo.mini", Line: 1, Column: 1},
			},
			expected: "IDENTIFIER(foo) at demo.mini:1:1",
		},
		{
			name: "integer token",
			token: Token{
				Type:     TokenInteger,
				Lexeme:   "42",
				Position: Position{Filename: "demo.mini", Line: 5, Column: 10},
			},
			expected: "INTEGER(42) at demo.mini:5:10",
		},
		{
			name: "becomes token",
			token: Token{
				Type:     TokenBecomes,
				Lexeme:   ":=",
				Position: Position{Filename: "demo.mini", Line: 2, Column: 7},
			},
			expected: "BECOMES(:=) at demo.mini:2:7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.String(); got != tt.expected {
				t.Errorf("Token.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		word string
		want TokenType
	}{
		{"declare", TokenDeclare},
		{"repent", TokenRepent},
		{"structure", TokenStructure},
		{"fix", TokenFix},
		{"x", TokenIdentifier},
		{"DECLARE", TokenIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := LookupKeyword(tt.word); got != tt.want {
				t.Errorf("LookupKeyword(%q) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestTokenType_Classes(t *testing.T) {
	tests := []struct {
		tt        TokenType
		keyword   bool
		operator  bool
		literal   bool
		statement bool
	}{
		{TokenProgram, true, false, false, false},
		{TokenDeclare, true, false, false, true},
		{TokenFloat, true, false, false, false},
		{TokenPlus, false, true, false, false},
		{TokenBecomes, false, true, false, false},
		{TokenInteger, false, false, true, false},
		{TokenTrue, false, false, true, false},
		{TokenIdentifier, false, false, false, false},
		{TokenSemicolon, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.tt.String(), func(t *testing.T) {
			if got := tt.tt.IsKeyword(); got != tt.keyword {
				t.Errorf("IsKeyword() = %v", got)
			}
			if got := tt.tt.IsOperator(); got != tt.operator {
				t.Errorf("IsOperator() = %v", got)
			}
			if got := tt.tt.IsLiteral(); got != tt.literal {
				t.Errorf("IsLiteral() = %v", got)
			}
			if got := tt.tt.StartsStatement(); got != tt.statement {
				t.Errorf("StartsStatement() = %v", got)
			}
		})
	}
}

func TestTokenType_StringUnknown(t *testing.T) {
	if got := TokenType(999).String(); got != "UNKNOWN" {
		t.Errorf("String() = %q, want UNKNOWN", got)
	}
}
