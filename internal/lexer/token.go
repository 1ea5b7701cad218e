package lexer

// TokenType represents the type of a token.
//
// DESIGN CHOICE: An int-based enum (via iota) so the parser switches on
// integers and typos are compile errors.
type TokenType int

// Token type enumeration.
//
// ORGANIZATION: Tokens are grouped logically:
// 1. Special tokens (EOF, Invalid, Comment)
// 2. Literals
// 3. Identifiers and keywords (statement keywords, then type keywords,
//    then operator keywords)
// 4. Operators
// 5. Delimiters
//
// The grouping is what IsKeyword, IsOperator and IsLiteral rely on.
const (
	// Special tokens

	// TokenEOF marks the end of the input. It carries a position so the
	// parser can say where the input ran out.
	TokenEOF TokenType = iota

	// TokenInvalid represents a lexical error; the error itself is returned
	// next to it so the parser can keep going.
	TokenInvalid

	// TokenComment is a // or /* */ comment. The parser skips them.
	TokenComment

	// Literals

	// TokenInteger is a decimal integer literal (42).
	TokenInteger

	// TokenReal is a literal with a fraction or exponent (3.14, 1e10).
	// Mini keeps the two apart at the lexical level because the literal's
	// form decides its type.
	TokenReal

	// TokenText is a double-quoted text literal. Lexeme holds the raw
	// source, quotes and escapes included.
	TokenText

	TokenTrue
	TokenFalse

	// Identifiers and Keywords

	TokenIdentifier

	// Keywords - statements
	TokenProgram
	TokenEnd
	TokenDeclare
	TokenTypeDecl
	TokenSet
	TokenOutput
	TokenOutputln
	TokenIf
	TokenThen
	TokenElse
	TokenFi
	TokenFor
	TokenBy
	TokenTo
	TokenWhile
	TokenDo
	TokenLabel
	TokenRepeat
	TokenRepent
	TokenFunction
	TokenProcedure
	TokenReturn
	TokenCall

	// Keywords - types
	TokenIntegerType
	TokenRealType
	TokenBooleanType
	TokenStringType
	TokenArray
	TokenOf
	TokenStructure

	// Keywords - operators
	TokenAnd
	TokenOr
	TokenFix
	TokenFloat

	// Operators - Arithmetic
	TokenPlus  // +
	TokenMinus // -
	TokenStar  // *
	TokenSlash // /

	// Operators - Comparison
	TokenEqual        // =
	TokenNotEqual     // <>
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Operators - Other
	TokenBecomes // :=
	TokenDot     // . (field access, optional program terminator)

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenSemicolon    // ;
	TokenComma        // ,
)

// Token represents a single lexical token.
//
// DESIGN CHOICE: Token is a value type; tokens are small and never shared
// or mutated after creation.
type Token struct {
	// Type is the token type.
	Type TokenType

	// Lexeme is the actual text from the source code. For keywords and
	// operators it is the expected spelling ("declare", ":=").
	Lexeme string

	// Position is where this token appears in the source.
	Position Position

	// Length is the length of the token in bytes.
	Length int
}

// String returns a human-readable representation of the token.
// Format: "TYPE(lexeme) at position"
// Example: "IDENTIFIER(foo) at demo.mini:4:15"
func (t Token) String() string {
	return t.Type.String() + "(" + t.Lexeme + ") at " + t.Position.String()
}

// runeCount returns the number of runes in s; columns count runes.
func runeCount(s string) int {
	count := 0
	for range s {
		count++
	}
	return count
}

var tokenNames = map[TokenType]string{
	TokenEOF:          "EOF",
	TokenInvalid:      "INVALID",
	TokenComment:      "COMMENT",
	TokenInteger:      "INTEGER",
	TokenReal:         "REAL",
	TokenText:         "TEXT",
	TokenTrue:         "TRUE",
	TokenFalse:        "FALSE",
	TokenIdentifier:   "IDENTIFIER",
	TokenProgram:      "PROGRAM",
	TokenEnd:          "END",
	TokenDeclare:      "DECLARE",
	TokenTypeDecl:    "TYPE",
	TokenSet:          "SET",
	TokenOutput:       "OUTPUT",
	TokenOutputln:     "OUTPUTLN",
	TokenIf:           "IF",
	TokenThen:         "THEN",
	TokenElse:         "ELSE",
	TokenFi:           "FI",
	TokenFor:          "FOR",
	TokenBy:           "BY",
	TokenTo:           "TO",
	TokenWhile:        "WHILE",
	TokenDo:           "DO",
	TokenLabel:        "LABEL",
	TokenRepeat:       "REPEAT",
	TokenRepent:       "REPENT",
	TokenFunction:     "FUNCTION",
	TokenProcedure:    "PROCEDURE",
	TokenReturn:       "RETURN",
	TokenCall:         "CALL",
	TokenIntegerType:  "INTEGER_TYPE",
	TokenRealType:     "REAL_TYPE",
	TokenBooleanType:  "BOOLEAN_TYPE",
	TokenStringType:   "STRING_TYPE",
	TokenArray:        "ARRAY",
	TokenOf:           "OF",
	TokenStructure:    "STRUCTURE",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenFix:          "FIX",
	TokenFloat:        "FLOAT",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenStar:         "STAR",
	TokenSlash:        "SLASH",
	TokenEqual:        "EQUAL",
	TokenNotEqual:     "NOTEQUAL",
	TokenLess:         "LESS",
	TokenLessEqual:    "LESSEQUAL",
	TokenGreater:      "GREATER",
	TokenGreaterEqual: "GREATEREQUAL",
	TokenBecomes:      "BECOMES",
	TokenDot:          "DOT",
	TokenLeftParen:    "LPAREN",
	TokenRightParen:   "RPAREN",
	TokenLeftBracket:  "LBRACKET",
	TokenRightBracket: "RBRACKET",
	TokenSemicolon:    "SEMICOLON",
	TokenComma:        "COMMA",
}

// String returns the string representation of a token type, used in
// debugging output and parser error messages.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps keyword spellings to their token types. Mini keywords are
// lower case and case sensitive.
var keywords = map[string]TokenType{
	"program":   TokenProgram,
	"end":       TokenEnd,
	"declare":   TokenDeclare,
	"type":      TokenTypeDecl,
	"set":       TokenSet,
	"output":    TokenOutput,
	"outputln":  TokenOutputln,
	"if":        TokenIf,
	"then":      TokenThen,
	"else":      TokenElse,
	"fi":        TokenFi,
	"for":       TokenFor,
	"by":        TokenBy,
	"to":        TokenTo,
	"while":     TokenWhile,
	"do":        TokenDo,
	"label":     TokenLabel,
	"repeat":    TokenRepeat,
	"repent":    TokenRepent,
	"function":  TokenFunction,
	"procedure": TokenProcedure,
	"return":    TokenReturn,
	"call":      TokenCall,
	"integer":   TokenIntegerType,
	"real":      TokenRealType,
	"boolean":   TokenBooleanType,
	"string":    TokenStringType,
	"array":     TokenArray,
	"of":        TokenOf,
	"structure": TokenStructure,
	"and":       TokenAnd,
	"or":        TokenOr,
	"fix":       TokenFix,
	"float":     TokenFloat,
	"true":      TokenTrue,
	"false":     TokenFalse,
}

// LookupKeyword checks if an identifier is actually a keyword.
// Returns the keyword token type if it is, or TokenIdentifier if not.
func LookupKeyword(identifier string) TokenType {
	if tokenType, ok := keywords[identifier]; ok {
		return tokenType
	}
	return TokenIdentifier
}

// IsKeyword returns true if the token is a keyword.
// The parser uses this to resynchronise after an error.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenProgram && tt <= TokenFloat
}

// IsOperator returns true if the token is an operator symbol.
func (tt TokenType) IsOperator() bool {
	return tt >= TokenPlus && tt <= TokenDot
}

// IsLiteral returns true if the token is a literal value.
func (tt TokenType) IsLiteral() bool {
	return tt >= TokenInteger && tt <= TokenFalse
}

// StartsStatement reports whether a statement can begin with this token.
func (tt TokenType) StartsStatement() bool {
	switch tt {
	case TokenDeclare, TokenTypeDecl, TokenSet, TokenOutput, TokenOutputln,
		TokenIf, TokenFor, TokenLabel, TokenRepeat, TokenRepent,
		TokenFunction, TokenProcedure, TokenReturn, TokenCall:
		return true
	}
	return false
}
