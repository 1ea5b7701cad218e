package ast

import (
	"strconv"
	"strings"

	"github.com/hassan/minic/internal/lexer"
)

// Ident is a variable, function, field, label or type name.
type Ident struct {
	At   lexer.Position
	Name string
}

func (i *Ident) Pos() lexer.Position { return i.At }
func (i *Ident) Show() string        { return i.Name }
func (i *Ident) exprNode()           {}

// IntLit is an integer literal. Mini integers are 32-bit.
type IntLit struct {
	At    lexer.Position
	Value int32
}

func (l *IntLit) Pos() lexer.Position { return l.At }
func (l *IntLit) Show() string        { return strconv.Itoa(int(l.Value)) }
func (l *IntLit) exprNode()           {}

// RealLit is a real literal (IEEE 754 double).
type RealLit struct {
	At    lexer.Position
	Value float64
}

func (l *RealLit) Pos() lexer.Position { return l.At }
func (l *RealLit) Show() string {
	s := strconv.FormatFloat(l.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
func (l *RealLit) exprNode() {}

// BoolLit is true or false.
type BoolLit struct {
	At    lexer.Position
	Value bool
}

func (l *BoolLit) Pos() lexer.Position { return l.At }
func (l *BoolLit) Show() string        { return strconv.FormatBool(l.Value) }
func (l *BoolLit) exprNode()           {}

// TextLit is a decoded text literal.
//
// Length is the number of bytes of Value; it is carried explicitly because
// mini text is not null-terminated.
type TextLit struct {
	At     lexer.Position
	Value  string
	Length int
}

// NewText makes a text literal with its length filled in.
func NewText(at lexer.Position, value string) *TextLit {
	return &TextLit{At: at, Value: value, Length: len(value)}
}

func (l *TextLit) Pos() lexer.Position { return l.At }
func (l *TextLit) Show() string        { return strconv.Quote(l.Value[:l.Length]) }
func (l *TextLit) exprNode()           {}

// Unary is an operator with at most one operand.
//
// Neg, Fix and Float carry an operand; Structure carries its field chain;
// base types (Integer, RealType, Boolean, String) have a nil Operand.
type Unary struct {
	At      lexer.Position
	Op      Op
	Operand Expr
}

func (u *Unary) Pos() lexer.Position { return u.At }
func (u *Unary) exprNode()           {}

func (u *Unary) Show() string {
	switch {
	case u.Op.IsBaseType():
		return u.Op.String()
	case u.Operand == nil:
		return u.Op.String() + " <nil>"
	case u.Op == Neg:
		return "-" + showOperand(u.Operand)
	case u.Op == Structure:
		return "structure (" + u.Operand.Show() + ")"
	default:
		return u.Op.String() + " " + showOperand(u.Operand)
	}
}

// Binary is an operator with two operands. Right is nil for a call with no
// arguments and for a one-bound dimension.
type Binary struct {
	At    lexer.Position
	Op    Op
	Left  Expr
	Right Expr
}

func (b *Binary) Pos() lexer.Position { return b.At }
func (b *Binary) exprNode()           {}

func (b *Binary) Show() string {
	left, right := show(b.Left), show(b.Right)

	switch b.Op {
	case Comma:
		return left + ", " + right
	case Period:
		return left + "." + right
	case Call:
		if b.Right == nil {
			return left + "()"
		}
		return left + "(" + right + ")"
	case Index:
		return left + "[" + right + "]"
	case Becomes:
		return left + " := " + right
	case Field:
		return left + " " + right
	case Array:
		return "array [" + left + "] of " + right
	case Bounds:
		if b.Right == nil {
			return left
		}
		return left + ", " + right
	default:
		return showOperand(b.Left) + " " + b.Op.String() + " " + showOperand(b.Right)
	}
}

func show(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.Show()
}

// showOperand parenthesizes infix operands so Show output reparses with the
// same grouping.
func showOperand(e Expr) string {
	if b, ok := e.(*Binary); ok && (b.Op.IsArithmetic() || b.Op.IsComparison() || b.Op == And || b.Op == Or) {
		return "(" + b.Show() + ")"
	}
	return show(e)
}
