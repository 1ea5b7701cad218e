package parser

import (
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
)

// Precedence represents operator precedence levels (higher binds tighter).
//
// PRECEDENCE RULES (from lowest to highest):
// 1. or
// 2. and
// 3. Comparison (=, <>, <, <=, >, >=)
// 4. Addition/Subtraction (+, -)
// 5. Multiplication/Division (*, /)
// 6. Unary (-, fix, float)
// 7. Postfix ([], ., ())
//
// All binary operators are left-associative. Assignment is not an operator
// in mini: ":=" belongs to the set and for statements.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecOr              // or
	PrecAnd             // and
	PrecComparison      // = <> < <= > >=
	PrecTerm            // + -
	PrecFactor          // * /
	PrecUnary           // - fix float
	PrecCall            // [] . ()
	PrecPrimary         // literals, identifiers, grouping
)

// getPrecedence returns the infix precedence of a token, or PrecNone if the
// token cannot continue an expression. The Pratt loop stops on PrecNone.
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	case lexer.TokenOr:
		return PrecOr

	case lexer.TokenAnd:
		return PrecAnd

	case lexer.TokenEqual,
		lexer.TokenNotEqual,
		lexer.TokenLess,
		lexer.TokenLessEqual,
		lexer.TokenGreater,
		lexer.TokenGreaterEqual:
		return PrecComparison

	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm

	case lexer.TokenStar, lexer.TokenSlash:
		return PrecFactor

	case lexer.TokenDot, lexer.TokenLeftBracket, lexer.TokenLeftParen:
		return PrecCall

	default:
		return PrecNone
	}
}

// binaryOps maps infix operator tokens to syntax tree operator codes.
var binaryOps = map[lexer.TokenType]ast.Op{
	lexer.TokenOr:           ast.Or,
	lexer.TokenAnd:          ast.And,
	lexer.TokenEqual:        ast.Equal,
	lexer.TokenNotEqual:     ast.NotEqual,
	lexer.TokenLess:         ast.Less,
	lexer.TokenLessEqual:    ast.LessEq,
	lexer.TokenGreater:      ast.Greater,
	lexer.TokenGreaterEqual: ast.GreaterEq,
	lexer.TokenPlus:         ast.Plus,
	lexer.TokenMinus:        ast.Minus,
	lexer.TokenStar:         ast.Star,
	lexer.TokenSlash:        ast.Slash,
}

// baseTypes maps type keywords to base-type operator codes.
var baseTypes = map[lexer.TokenType]ast.Op{
	lexer.TokenIntegerType: ast.Integer,
	lexer.TokenRealType:    ast.RealType,
	lexer.TokenBooleanType: ast.Boolean,
	lexer.TokenStringType:  ast.String,
}
