// Package ir implements the intermediate representation the lowering core emits.
//
// WHAT IS IR?
// IR is the low-level form of the program between the syntax tree and the
// LLVM module that is finally printed. It is:
// 1. Typed: every value carries a types.Type
// 2. Memory based: variables live in alloca slots, reads and writes are
//    explicit loads and stores
// 3. Explicit about control flow: code lives in basic blocks that end in a
//    jump, branch or return
//
// DESIGN PHILOSOPHY:
// The instruction set mirrors the subset of LLVM that mini needs, one Go type
// per instruction, so translating a module to LLVM (or interpreting it) is a
// single type switch per instruction.
//
// EXAMPLE:
//   Source:  set a := 2 + 3;
//   IR:      %t1 = add i32 2, 3
//            store i32 %t1, %a.0
package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hassan/minic/internal/semantic/types"
)

// Value represents a value in the IR (address, temporary, constant, parameter
// or global).
type Value struct {
	// ID is unique within the defining function (-1 for constants)
	ID int

	// Name is the source name, if any
	Name string

	// Type is the value's type
	Type types.Type

	// Kind indicates what kind of value this is
	Kind ValueKind

	// Constant is the payload of a constant (int32, float64, bool) or the
	// text of a global string
	Constant interface{}
}

// ValueKind represents the kind of value.
type ValueKind int

const (
	ValueVariable  ValueKind = iota // Address produced by an alloca
	ValueTemporary                  // Compiler-generated temporary
	ValueConstant                   // Compile-time constant
	ValueParameter                  // Function parameter
	ValueGlobal                     // Global string constant (an i8* address)
)

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind {
	case ValueConstant:
		switch c := v.Constant.(type) {
		case int32:
			return strconv.Itoa(int(c))
		case float64:
			return strconv.FormatFloat(c, 'g', -1, 64)
		case bool:
			return strconv.FormatBool(c)
		case nil:
			return "null"
		default:
			return fmt.Sprintf("%v", c)
		}
	case ValueGlobal:
		return "@" + v.Name
	case ValueParameter:
		return "%" + v.Name
	case ValueTemporary:
		return fmt.Sprintf("%%t%d", v.ID)
	default:
		if v.Name != "" {
			return fmt.Sprintf("%%%s.%d", v.Name, v.ID)
		}
		return fmt.Sprintf("%%v%d", v.ID)
	}
}

// IsConstant returns true if this is a constant value.
func (v *Value) IsConstant() bool {
	return v.Kind == ValueConstant
}

// ConstInt returns an i32 constant.
func ConstInt(n int32) *Value {
	return &Value{ID: -1, Type: types.Int, Kind: ValueConstant, Constant: n}
}

// ConstReal returns a double constant.
func ConstReal(f float64) *Value {
	return &Value{ID: -1, Type: types.Real, Kind: ValueConstant, Constant: f}
}

// ConstBool returns an i1 constant.
func ConstBool(b bool) *Value {
	return &Value{ID: -1, Type: types.Bool, Kind: ValueConstant, Constant: b}
}

// ConstNull returns the null pointer of pointer type t.
func ConstNull(t types.Type) *Value {
	return &Value{ID: -1, Type: t, Kind: ValueConstant}
}

// ConstZero returns the zero constant of a scalar type, or nil for void.
func ConstZero(t types.Type) *Value {
	switch z := types.Zero(t).(type) {
	case int32:
		return ConstInt(z)
	case float64:
		return ConstReal(z)
	case bool:
		return ConstBool(z)
	}
	if types.IsPointer(t) {
		return ConstNull(t)
	}
	return nil
}

// NewParam creates a parameter value. IDs are assigned by NewFunction.
func NewParam(name string, typ types.Type) *Value {
	return &Value{Name: name, Type: typ, Kind: ValueParameter}
}

// Instruction represents a single IR instruction.
type Instruction interface {
	// String returns a human-readable representation
	String() string

	// Operands returns all values read by this instruction
	Operands() []*Value

	// Result returns the value written by this instruction (if any)
	Result() *Value
}

// typed renders "type value" the way the listing shows operands.
func typed(v *Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.Type.String() + " " + v.String()
}

// Alloca reserves a stack slot of Type. Dest is its address.

type Alloca struct {
	Dest *Value
	Type types.Type
}

func (a *Alloca) String() string {
	return fmt.Sprintf("%s = alloca %s", a.Dest, a.Type)
}

func (a *Alloca) Operands() []*Value { return nil }
func (a *Alloca) Result() *Value     { return a.Dest }

// Load reads the value at Address.

type Load struct {
	Dest    *Value
	Address *Value
}

func (l *Load) String() string {
	return fmt.Sprintf("%s = load %s, %s", l.Dest, l.Dest.Type, typed(l.Address))
}

func (l *Load) Operands() []*Value { return []*Value{l.Address} }
func (l *Load) Result() *Value     { return l.Dest }

// Store writes Value to Address.

type Store struct {
	Address *Value
	Value   *Value
}

func (s *Store) String() string {
	return fmt.Sprintf("store %s, %s", typed(s.Value), typed(s.Address))
}

func (s *Store) Operands() []*Value { return []*Value{s.Address, s.Value} }
func (s *Store) Result() *Value     { return nil }

// BinaryOp: result = left op right

type BinaryOp struct {
	Op    BinaryOperator
	Dest  *Value
	Left  *Value
	Right *Value
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("%s = %s %s, %s", b.Dest, b.Op, typed(b.Left), b.Right)
}

func (b *BinaryOp) Operands() []*Value { return []*Value{b.Left, b.Right} }
func (b *BinaryOp) Result() *Value     { return b.Dest }

// BinaryOperator selects the integer or floating variant explicitly.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv // signed
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpAnd // bitwise on i1
	OpOr
)

func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "sdiv"
	case OpFAdd:
		return "fadd"
	case OpFSub:
		return "fsub"
	case OpFMul:
		return "fmul"
	case OpFDiv:
		return "fdiv"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return "?"
	}
}

// IsFloat reports whether the operator works on doubles.
func (op BinaryOperator) IsFloat() bool {
	return op >= OpFAdd && op <= OpFDiv
}

// Compare: result = icmp/fcmp pred left, right

type Compare struct {
	Pred  Predicate
	Dest  *Value
	Left  *Value
	Right *Value
}

func (c *Compare) String() string {
	kind := "icmp"
	if c.Pred.IsFloat() {
		kind = "fcmp"
	}
	return fmt.Sprintf("%s = %s %s %s, %s", c.Dest, kind, c.Pred, typed(c.Left), c.Right)
}

func (c *Compare) Operands() []*Value { return []*Value{c.Left, c.Right} }
func (c *Compare) Result() *Value     { return c.Dest }

// Predicate is a comparison predicate. Integer predicates are signed,
// floating predicates are unordered.
type Predicate int

const (
	PredEQ Predicate = iota
	PredNE
	PredSGT
	PredSGE
	PredSLT
	PredSLE
	PredUEQ
	PredUNE
	PredUGT
	PredUGE
	PredULT
	PredULE
)

func (p Predicate) String() string {
	switch p {
	case PredEQ:
		return "eq"
	case PredNE:
		return "ne"
	case PredSGT:
		return "sgt"
	case PredSGE:
		return "sge"
	case PredSLT:
		return "slt"
	case PredSLE:
		return "sle"
	case PredUEQ:
		return "ueq"
	case PredUNE:
		return "une"
	case PredUGT:
		return "ugt"
	case PredUGE:
		return "uge"
	case PredULT:
		return "ult"
	case PredULE:
		return "ule"
	default:
		return "?"
	}
}

// IsFloat reports whether the predicate compares doubles.
func (p Predicate) IsFloat() bool {
	return p >= PredUEQ
}

// UnaryOp: result = op operand

type UnaryOp struct {
	Op      UnaryOperator
	Dest    *Value
	Operand *Value
}

func (u *UnaryOp) String() string {
	return fmt.Sprintf("%s = %s %s", u.Dest, u.Op, typed(u.Operand))
}

func (u *UnaryOp) Operands() []*Value { return []*Value{u.Operand} }
func (u *UnaryOp) Result() *Value     { return u.Dest }

type UnaryOperator int

const (
	OpNeg  UnaryOperator = iota // 0 - x
	OpFNeg                      // -x on doubles
)

func (op UnaryOperator) String() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpFNeg:
		return "fneg"
	default:
		return "?"
	}
}

// Convert: result = op value to type

type Convert struct {
	Op    ConvertOperator
	Dest  *Value
	Value *Value
}

func (c *Convert) String() string {
	return fmt.Sprintf("%s = %s %s to %s", c.Dest, c.Op, typed(c.Value), c.Dest.Type)
}

func (c *Convert) Operands() []*Value { return []*Value{c.Value} }
func (c *Convert) Result() *Value     { return c.Dest }

type ConvertOperator int

const (
	OpSIToFP  ConvertOperator = iota // integer to real
	OpFPToSI                         // real to integer, truncating
	OpBitCast                        // pointer to pointer
)

func (op ConvertOperator) String() string {
	switch op {
	case OpSIToFP:
		return "sitofp"
	case OpFPToSI:
		return "fptosi"
	case OpBitCast:
		return "bitcast"
	default:
		return "?"
	}
}

// ElementPtr computes &Base[Index] where Base points at values of type Elem.

type ElementPtr struct {
	Dest  *Value
	Elem  types.Type
	Base  *Value
	Index *Value
}

func (g *ElementPtr) String() string {
	return fmt.Sprintf("%s = elementptr %s, %s, %s", g.Dest, g.Elem, typed(g.Base), typed(g.Index))
}

func (g *ElementPtr) Operands() []*Value { return []*Value{g.Base, g.Index} }
func (g *ElementPtr) Result() *Value     { return g.Dest }

// FieldPtr computes &Base.field for a pointer to Struct.

type FieldPtr struct {
	Dest   *Value
	Struct *types.StructType
	Base   *Value
	Field  int
}

func (g *FieldPtr) String() string {
	return fmt.Sprintf("%s = fieldptr %s, %s, %d", g.Dest, g.Struct, typed(g.Base), g.Field)
}

func (g *FieldPtr) Operands() []*Value { return []*Value{g.Base} }
func (g *FieldPtr) Result() *Value     { return g.Dest }

// Control flow

// Jump unconditionally to a basic block
type Jump struct {
	Target *BasicBlock
}

func (j *Jump) String() string {
	return fmt.Sprintf("br %s", j.Target.Label)
}

func (j *Jump) Operands() []*Value { return nil }
func (j *Jump) Result() *Value     { return nil }

// Branch: if condition then TrueBlock else FalseBlock

type Branch struct {
	Condition  *Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

func (b *Branch) String() string {
	return fmt.Sprintf("br %s, %s, %s", typed(b.Condition), b.TrueBlock.Label, b.FalseBlock.Label)
}

func (b *Branch) Operands() []*Value { return []*Value{b.Condition} }
func (b *Branch) Result() *Value     { return nil }

// Call: result = call callee(args...)

type Call struct {
	Dest   *Value // nil for procedures and runtime entries returning void
	Callee *Function
	Args   []*Value
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = typed(a)
	}
	call := fmt.Sprintf("call %s @%s(%s)", c.Callee.ReturnType, c.Callee.Name, strings.Join(args, ", "))
	if c.Dest != nil {
		return fmt.Sprintf("%s = %s", c.Dest, call)
	}
	return call
}

func (c *Call) Operands() []*Value { return c.Args }
func (c *Call) Result() *Value     { return c.Dest }

// Return from function

type Return struct {
	Value *Value // nil for procedures
}

func (r *Return) String() string {
	if r.Value != nil {
		return "ret " + typed(r.Value)
	}
	return "ret void"
}

func (r *Return) Operands() []*Value {
	if r.Value != nil {
		return []*Value{r.Value}
	}
	return nil
}

func (r *Return) Result() *Value { return nil }
