package ir

import (
	"fmt"

	"github.com/hassan/minic/internal/semantic/types"
)

// Builder appends instructions at a single insertion point.
//
// DESIGN PHILOSOPHY:
// The builder knows nothing about mini. It is the cursor the lowering core
// moves around: CreateBlock makes a block, SetInsertPoint moves the cursor,
// and every emit method appends at the cursor and returns the new value.
//
// INSERTION RULES:
// - A terminator emitted into a block that already has one is dropped, so
//   "branch to merge" after an explicit return is harmless
// - Any other instruction emitted into a terminated block opens a fresh
//   block labelled "dead"; it has no predecessors and is pruned later
// - Jumps and branches record successor/predecessor edges
type Builder struct {
	module *Module
	block  *BasicBlock

	strings int
}

// NewBuilder creates a builder for a new module.
func NewBuilder(moduleName string) *Builder {
	return &Builder{module: NewModule(moduleName)}
}

// Module returns the module being built.
func (b *Builder) Module() *Module {
	return b.module
}

// NewFunction defines a function in the module and returns it; the cursor
// does not move.
func (b *Builder) NewFunction(name string, ret types.Type, params ...*Value) *Function {
	fn := NewFunction(name, ret, params...)
	b.module.AddFunction(fn)
	return fn
}

// DeclareFunction adds an external declaration.
func (b *Builder) DeclareFunction(name string, ret types.Type, params ...types.Type) *Function {
	fn := NewExternalFunction(name, ret, params...)
	b.module.AddFunction(fn)
	return fn
}

// DefineStruct records a named structure type in the module.
func (b *Builder) DefineStruct(st *types.StructType) {
	b.module.AddStruct(st)
}

// CreateBlock appends a new block to fn.
func (b *Builder) CreateBlock(fn *Function, name string) *BasicBlock {
	return fn.NewBasicBlockInFunc(name)
}

// SetInsertPoint moves the cursor to the end of block.
func (b *Builder) SetInsertPoint(block *BasicBlock) {
	b.block = block
}

// InsertBlock returns the block at the cursor.
func (b *Builder) InsertBlock() *BasicBlock {
	return b.block
}

// Alloca reserves a stack slot; the result is the slot address.
func (b *Builder) Alloca(t types.Type, name string) *Value {
	dest := b.fn().NewValue(name, types.NewPointer(t), ValueVariable)
	b.emit(&Alloca{Dest: dest, Type: t})
	return dest
}

// Load reads a value of type t from address.
func (b *Builder) Load(t types.Type, address *Value) *Value {
	dest := b.fn().NewTemp(t)
	b.emit(&Load{Dest: dest, Address: address})
	return dest
}

// Store writes value to address.
func (b *Builder) Store(value, address *Value) {
	b.emit(&Store{Address: address, Value: value})
}

// Binary emits an arithmetic or boolean operation; the result has the
// left operand's type.
func (b *Builder) Binary(op BinaryOperator, left, right *Value) *Value {
	dest := b.fn().NewTemp(left.Type)
	b.emit(&BinaryOp{Op: op, Dest: dest, Left: left, Right: right})
	return dest
}

// Compare emits a comparison yielding i1.
func (b *Builder) Compare(pred Predicate, left, right *Value) *Value {
	dest := b.fn().NewTemp(types.Bool)
	b.emit(&Compare{Pred: pred, Dest: dest, Left: left, Right: right})
	return dest
}

// Unary emits a negation.
func (b *Builder) Unary(op UnaryOperator, operand *Value) *Value {
	dest := b.fn().NewTemp(operand.Type)
	b.emit(&UnaryOp{Op: op, Dest: dest, Operand: operand})
	return dest
}

// Convert emits a conversion of value to type to.
func (b *Builder) Convert(op ConvertOperator, value *Value, to types.Type) *Value {
	dest := b.fn().NewTemp(to)
	b.emit(&Convert{Op: op, Dest: dest, Value: value})
	return dest
}

// ElementAddress computes &base[index]; base points at values of type elem.
func (b *Builder) ElementAddress(elem types.Type, base, index *Value) *Value {
	dest := b.fn().NewTemp(types.NewPointer(elem))
	b.emit(&ElementPtr{Dest: dest, Elem: elem, Base: base, Index: index})
	return dest
}

// FieldAddress computes &base.field for a pointer to st.
func (b *Builder) FieldAddress(st *types.StructType, base *Value, field int) *Value {
	if field < 0 || field >= len(st.Fields) {
		panic(fmt.Sprintf("ir: field %d out of range for %s", field, st))
	}
	dest := b.fn().NewTemp(types.NewPointer(st.Fields[field].Type))
	b.emit(&FieldPtr{Dest: dest, Struct: st, Base: base, Field: field})
	return dest
}

// Call emits a call; the result is nil for void callees.
func (b *Builder) Call(callee *Function, args []*Value) *Value {
	var dest *Value
	if !types.IsVoid(callee.ReturnType) {
		dest = b.fn().NewTemp(callee.ReturnType)
	}
	b.emit(&Call{Dest: dest, Callee: callee, Args: args})
	return dest
}

// GlobalString adds a string constant to the module and returns its
// address (an i8*). Text is stored without a terminator; the backend adds
// one.
func (b *Builder) GlobalString(text string) *Value {
	b.strings++
	g := &Value{
		ID:       len(b.module.Globals),
		Name:     fmt.Sprintf("str.%d", b.strings),
		Type:     types.String,
		Kind:     ValueGlobal,
		Constant: text,
	}
	b.module.Globals = append(b.module.Globals, g)
	return g
}

// Branch ends the current block with a jump to target.
func (b *Builder) Branch(target *BasicBlock) {
	if b.terminated() {
		return
	}
	b.block.AddInstruction(&Jump{Target: target})
	b.block.AddSuccessor(target)
}

// CondBranch ends the current block with a two-way branch.
func (b *Builder) CondBranch(cond *Value, then, otherwise *BasicBlock) {
	if b.terminated() {
		return
	}
	b.block.AddInstruction(&Branch{Condition: cond, TrueBlock: then, FalseBlock: otherwise})
	b.block.AddSuccessor(then)
	b.block.AddSuccessor(otherwise)
}

// Return ends the current block; value is nil for procedures.
func (b *Builder) Return(value *Value) {
	if b.terminated() {
		return
	}
	b.block.AddInstruction(&Return{Value: value})
}

func (b *Builder) fn() *Function {
	if b.block == nil {
		panic("ir: builder has no insertion point")
	}
	return b.block.Parent
}

func (b *Builder) terminated() bool {
	if b.block == nil {
		panic("ir: builder has no insertion point")
	}
	return b.block.IsTerminated()
}

func (b *Builder) emit(instr Instruction) {
	if b.terminated() {
		b.block = b.fn().NewBasicBlockInFunc("dead")
	}
	b.block.AddInstruction(instr)
}
