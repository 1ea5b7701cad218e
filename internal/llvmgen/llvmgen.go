// Package llvmgen translates IR modules into LLVM IR.
//
// Every IR instruction becomes one LLVM instruction. Structures become
// named type definitions; string globals become private constant
// character arrays. The runtime library is declared and left for the
// linker.
//
// USAGE:
//   lm, err := llvmgen.Generate(module)
//   fmt.Print(lm)
package llvmgen

import (
	"fmt"
	"io"

	lir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	ltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/semantic/types"
)

var binaryOps = map[ir.BinaryOperator]func(b *lir.Block, x, y value.Value) value.Value{
	ir.OpAdd:  func(b *lir.Block, x, y value.Value) value.Value { return b.NewAdd(x, y) },
	ir.OpSub:  func(b *lir.Block, x, y value.Value) value.Value { return b.NewSub(x, y) },
	ir.OpMul:  func(b *lir.Block, x, y value.Value) value.Value { return b.NewMul(x, y) },
	ir.OpDiv:  func(b *lir.Block, x, y value.Value) value.Value { return b.NewSDiv(x, y) },
	ir.OpFAdd: func(b *lir.Block, x, y value.Value) value.Value { return b.NewFAdd(x, y) },
	ir.OpFSub: func(b *lir.Block, x, y value.Value) value.Value { return b.NewFSub(x, y) },
	ir.OpFMul: func(b *lir.Block, x, y value.Value) value.Value { return b.NewFMul(x, y) },
	ir.OpFDiv: func(b *lir.Block, x, y value.Value) value.Value { return b.NewFDiv(x, y) },
	ir.OpAnd:  func(b *lir.Block, x, y value.Value) value.Value { return b.NewAnd(x, y) },
	ir.OpOr:   func(b *lir.Block, x, y value.Value) value.Value { return b.NewOr(x, y) },
}

var intPreds = map[ir.Predicate]enum.IPred{
	ir.PredEQ:  enum.IPredEQ,
	ir.PredNE:  enum.IPredNE,
	ir.PredSGT: enum.IPredSGT,
	ir.PredSGE: enum.IPredSGE,
	ir.PredSLT: enum.IPredSLT,
	ir.PredSLE: enum.IPredSLE,
}

var floatPreds = map[ir.Predicate]enum.FPred{
	ir.PredUEQ: enum.FPredUEQ,
	ir.PredUNE: enum.FPredUNE,
	ir.PredUGT: enum.FPredUGT,
	ir.PredUGE: enum.FPredUGE,
	ir.PredULT: enum.FPredULT,
	ir.PredULE: enum.FPredULE,
}

// generator holds the state of translating one module.
type generator struct {
	module *lir.Module

	structs map[*types.StructType]ltypes.Type
	funcs   map[*ir.Function]*lir.Func
	globals map[*ir.Value]constant.Constant
}

// Generate translates m. It fails on values or instructions that have no
// LLVM counterpart, which only a malformed module contains.
func Generate(m *ir.Module) (*lir.Module, error) {
	g := &generator{
		module:  lir.NewModule(),
		structs: make(map[*types.StructType]ltypes.Type),
		funcs:   make(map[*ir.Function]*lir.Func),
		globals: make(map[*ir.Value]constant.Constant),
	}
	g.module.SourceFilename = m.Name

	for _, st := range m.Structs {
		g.typ(st)
	}
	for _, s := range m.Globals {
		g.global(s)
	}

	// declare everything first; calls may precede the callee's definition
	for _, fn := range m.Functions {
		params := make([]*lir.Param, len(fn.Parameters))
		for i, p := range fn.Parameters {
			params[i] = lir.NewParam(p.Name, g.typ(p.Type))
		}
		f := g.module.NewFunc(fn.Name, g.typ(fn.ReturnType), params...)
		if fn.Private {
			f.Linkage = enum.LinkagePrivate
		}
		g.funcs[fn] = f
	}

	for _, fn := range m.Functions {
		if fn.External {
			continue
		}
		if err := g.function(fn); err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}
	return g.module, nil
}

// typ maps an IR type. Structures become named type definitions on first
// use, after the structures they contain.
func (g *generator) typ(t types.Type) ltypes.Type {
	switch tt := t.(type) {
	case *types.IntType:
		return ltypes.I32
	case *types.RealType:
		return ltypes.Double
	case *types.BoolType:
		return ltypes.I1
	case *types.ByteType:
		return ltypes.I8
	case *types.VoidType:
		return ltypes.Void
	case *types.PointerType:
		return ltypes.NewPointer(g.typ(tt.Elem))
	case *types.StructType:
		if def, ok := g.structs[tt]; ok {
			return def
		}
		fields := make([]ltypes.Type, len(tt.Fields))
		for i, f := range tt.Fields {
			fields[i] = g.typ(f.Type)
		}
		def := g.module.NewTypeDef(tt.Name, ltypes.NewStruct(fields...))
		g.structs[tt] = def
		return def
	}
	panic(fmt.Sprintf("llvmgen: no LLVM type for %s", t))
}

// global emits a string as a private constant array and records the
// address of its first character.
func (g *generator) global(s *ir.Value) {
	text, _ := s.Constant.(string)
	arr := constant.NewCharArrayFromString(text + "\x00")
	def := g.module.NewGlobalDef(s.Name, arr)
	def.Immutable = true
	def.Linkage = enum.LinkagePrivate

	zero := constant.NewInt(ltypes.I32, 0)
	addr := constant.NewGetElementPtr(arr.Typ, def, zero, zero)
	addr.InBounds = true
	g.globals[s] = addr
}

// function translates the body of fn. Blocks are filled in reverse
// postorder so every temporary is translated before its uses.
func (g *generator) function(fn *ir.Function) error {
	f := g.funcs[fn]
	fg := &funcGen{
		generator: g,
		values:    make(map[*ir.Value]value.Value),
		blocks:    make(map[*ir.BasicBlock]*lir.Block, len(fn.Blocks)),
	}
	for i, p := range fn.Parameters {
		fg.values[p] = f.Params[i]
	}
	for _, block := range fn.Blocks {
		fg.blocks[block] = f.NewBlock(block.Label)
	}

	for _, block := range reversePostorder(fn) {
		if err := fg.block(block); err != nil {
			return fmt.Errorf("block %s: %w", block.Label, err)
		}
	}
	return nil
}

func reversePostorder(fn *ir.Function) []*ir.BasicBlock {
	visited := make(map[*ir.BasicBlock]bool)
	var post []*ir.BasicBlock
	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		visited[b] = true
		for _, s := range b.Successors {
			if !visited[s] {
				visit(s)
			}
		}
		post = append(post, b)
	}
	visit(fn.Entry)

	order := make([]*ir.BasicBlock, 0, len(fn.Blocks))
	for i := len(post) - 1; i >= 0; i-- {
		order = append(order, post[i])
	}
	// unreachable blocks still need a body
	for _, b := range fn.Blocks {
		if !visited[b] {
			order = append(order, b)
		}
	}
	return order
}

// funcGen translates the instructions of one function.
type funcGen struct {
	*generator
	values map[*ir.Value]value.Value
	blocks map[*ir.BasicBlock]*lir.Block
}

func (fg *funcGen) value(v *ir.Value) (value.Value, error) {
	if v == nil {
		return nil, fmt.Errorf("missing operand")
	}
	switch v.Kind {
	case ir.ValueConstant:
		return fg.constant(v)
	case ir.ValueGlobal:
		if addr, ok := fg.globals[v]; ok {
			return addr, nil
		}
		return nil, fmt.Errorf("unknown global %s", v)
	}
	if lv, ok := fg.values[v]; ok {
		return lv, nil
	}
	return nil, fmt.Errorf("%s used before it is defined", v)
}

func (fg *funcGen) constant(v *ir.Value) (value.Value, error) {
	switch c := v.Constant.(type) {
	case int32:
		return constant.NewInt(ltypes.I32, int64(c)), nil
	case float64:
		return constant.NewFloat(ltypes.Double, c), nil
	case bool:
		return constant.NewBool(c), nil
	case nil:
		if pt, ok := fg.typ(v.Type).(*ltypes.PointerType); ok {
			return constant.NewNull(pt), nil
		}
	}
	return nil, fmt.Errorf("no LLVM constant for %s", v)
}

// operands translates vs in order.
func (fg *funcGen) operands(vs ...*ir.Value) ([]value.Value, error) {
	out := make([]value.Value, len(vs))
	for i, v := range vs {
		lv, err := fg.value(v)
		if err != nil {
			return nil, err
		}
		out[i] = lv
	}
	return out, nil
}

func (fg *funcGen) block(block *ir.BasicBlock) error {
	b := fg.blocks[block]
	for _, instr := range block.Instructions {
		ops, err := fg.operands(instr.Operands()...)
		if err != nil {
			return fmt.Errorf("%s: %w", instr, err)
		}
		result, err := fg.instruction(b, instr, ops)
		if err != nil {
			return fmt.Errorf("%s: %w", instr, err)
		}
		if dest := instr.Result(); dest != nil {
			fg.values[dest] = result
		}
	}
	return nil
}

// instruction emits one instruction; ops are its translated operands in
// Operands order.
func (fg *funcGen) instruction(b *lir.Block, instr ir.Instruction, ops []value.Value) (value.Value, error) {
	i32 := func(n int64) value.Value { return constant.NewInt(ltypes.I32, n) }

	switch in := instr.(type) {
	case *ir.Alloca:
		return b.NewAlloca(fg.typ(in.Type)), nil
	case *ir.Load:
		return b.NewLoad(fg.typ(in.Dest.Type), ops[0]), nil
	case *ir.Store:
		b.NewStore(ops[1], ops[0])
		return nil, nil
	case *ir.BinaryOp:
		op, ok := binaryOps[in.Op]
		if !ok {
			return nil, fmt.Errorf("unknown operator %s", in.Op)
		}
		return op(b, ops[0], ops[1]), nil
	case *ir.Compare:
		if in.Pred.IsFloat() {
			return b.NewFCmp(floatPreds[in.Pred], ops[0], ops[1]), nil
		}
		return b.NewICmp(intPreds[in.Pred], ops[0], ops[1]), nil
	case *ir.UnaryOp:
		if in.Op == ir.OpFNeg {
			return b.NewFNeg(ops[0]), nil
		}
		return b.NewSub(i32(0), ops[0]), nil
	case *ir.Convert:
		to := fg.typ(in.Dest.Type)
		switch in.Op {
		case ir.OpSIToFP:
			return b.NewSIToFP(ops[0], to), nil
		case ir.OpFPToSI:
			return b.NewFPToSI(ops[0], to), nil
		case ir.OpBitCast:
			return b.NewBitCast(ops[0], to), nil
		}
		return nil, fmt.Errorf("unknown conversion %s", in.Op)
	case *ir.ElementPtr:
		return b.NewGetElementPtr(fg.typ(in.Elem), ops[0], ops[1]), nil
	case *ir.FieldPtr:
		return b.NewGetElementPtr(fg.typ(in.Struct), ops[0], i32(0), i32(int64(in.Field))), nil
	case *ir.Call:
		return b.NewCall(fg.funcs[in.Callee], ops...), nil
	case *ir.Jump:
		b.NewBr(fg.blocks[in.Target])
		return nil, nil
	case *ir.Branch:
		b.NewCondBr(ops[0], fg.blocks[in.TrueBlock], fg.blocks[in.FalseBlock])
		return nil, nil
	case *ir.Return:
		if len(ops) == 0 {
			b.NewRet(nil)
		} else {
			b.NewRet(ops[0])
		}
		return nil, nil
	}
	return nil, fmt.Errorf("no LLVM instruction for %T", instr)
}

// Emitter writes the LLVM IR of every module it receives.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates an emitter writing textual LLVM IR to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit translates m and writes it.
func (e *Emitter) Emit(m *ir.Module) error {
	lm, err := Generate(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(e.w, lm.String())
	return err
}
