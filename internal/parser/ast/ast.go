// Package ast defines the syntax tree the parser produces for mini programs.
//
// DESIGN PHILOSOPHY:
// The tree is small and closed:
// 1. Seven expression node kinds (identifier, four literal kinds, unary,
//    binary); everything else, including type descriptions, call and index
//    chains, is an operator code on a unary or binary node
// 2. One node type per statement form
// 3. Every node reports its position and a textual rendering (Show) used
//    in diagnostics
//
// KEY DESIGN CHOICES:
// - Expr and Stmt are sealed interfaces (unexported marker methods), so a
//   type switch over them is exhaustive and a new node kind cannot slip in
//   from another package
// - Nodes are never mutated after parsing
// - Type descriptions reuse expression nodes:
//     integer                    Unary{Op: Integer}
//     point                      Ident{Name: "point"}
//     array [1, 10] of real      Binary{Array, Binary{Bounds, 1, 10}, Unary{RealType}}
//     structure (x integer)      Unary{Structure, Binary{Field, Ident{x}, Unary{Integer}}}
package ast

import (
	"github.com/hassan/minic/internal/lexer"
)

// Node is the base interface for all syntax tree nodes.
type Node interface {
	// Pos returns the starting position of this node in the source.
	Pos() lexer.Position

	// Show renders the node as mini source text.
	Show() string
}

// Expr is an expression or type-description node.
//
// The concrete types are *Ident, *IntLit, *RealLit, *BoolLit, *TextLit,
// *Unary and *Binary.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Op is the operator code carried by Unary and Binary nodes.
type Op int

const (
	// Arithmetic
	Plus Op = iota
	Minus
	Star
	Slash

	// Comparisons
	Greater
	GreaterEq
	Less
	LessEq
	Equal
	NotEqual

	// Boolean
	And
	Or

	// Unary
	Neg   // -x
	Fix   // fix x: real to integer
	Float // float x: integer to real

	// Structural
	Comma     // left-leaning list: a, b, c is Comma(Comma(a, b), c)
	Period    // field access: a.b
	Call      // f(args): Left is the callee, Right the argument list or nil
	Index     // a[i]: Left is the base, Right the index list
	Becomes   // assignment chain: a := b := e is Becomes(a, Becomes(b, e))
	Field     // field declaration: name type
	Array     // array type: Left is the bounds, Right the element type
	Bounds    // one dimension: Left the low bound or count, Right the high bound or nil
	Structure // structure type: Operand is a comma-chain of Field nodes

	// Base types (operand-less Unary nodes)
	Integer
	RealType
	Boolean
	String
)

var opSymbols = map[Op]string{
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Greater:   ">",
	GreaterEq: ">=",
	Less:      "<",
	LessEq:    "<=",
	Equal:     "=",
	NotEqual:  "<>",
	And:       "and",
	Or:        "or",
	Neg:       "-",
	Fix:       "fix",
	Float:     "float",
	Comma:     ",",
	Period:    ".",
	Call:      "()",
	Index:     "[]",
	Becomes:   ":=",
	Field:     "field",
	Array:     "array",
	Bounds:    "bounds",
	Structure: "structure",
	Integer:   "integer",
	RealType:  "real",
	Boolean:   "boolean",
	String:    "string",
}

// String returns the operator's source spelling.
func (op Op) String() string {
	if s, ok := opSymbols[op]; ok {
		return s
	}
	return "?"
}

// IsArithmetic reports whether op is + - * /.
func (op Op) IsArithmetic() bool {
	return op >= Plus && op <= Slash
}

// IsComparison reports whether op is one of the six comparisons.
func (op Op) IsComparison() bool {
	return op >= Greater && op <= NotEqual
}

// IsBaseType reports whether op names a scalar type.
func (op Op) IsBaseType() bool {
	return op >= Integer && op <= String
}

// Flatten returns the elements of a comma-chain in source order.
// A nil chain is empty; a non-comma node is a one-element list.
func Flatten(chain Expr) []Expr {
	if chain == nil {
		return nil
	}
	if b, ok := chain.(*Binary); ok && b.Op == Comma {
		return append(Flatten(b.Left), Flatten(b.Right)...)
	}
	return []Expr{chain}
}

// Chain builds the left-leaning comma-chain for exprs; nil when empty.
func Chain(exprs ...Expr) Expr {
	if len(exprs) == 0 {
		return nil
	}
	chain := exprs[0]
	for _, e := range exprs[1:] {
		chain = &Binary{At: chain.Pos(), Op: Comma, Left: chain, Right: e}
	}
	return chain
}
