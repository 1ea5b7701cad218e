package semantic

import (
	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
	"github.com/hassan/minic/internal/semantic/types"
	"github.com/hassan/minic/internal/symtab"
)

// FunctionFrame is a nested function being lowered.
//
// CONTROL FLOW:
//   outer:      ...
//               br over_jump            straight-line code skips the body
//   f.entry:    <body>
//               ret <zero of result>    unless the body already returned
//   over_jump:  ...                     outer code resumes here
//
// Every function, however deeply nested, is a private function of the
// module; only main is exported.
type FunctionFrame struct {
	l   *Lowerer
	pos lexer.Position

	Function *ir.Function

	// resume is the over_jump block of the enclosing function
	resume *ir.BasicBlock

	// stack depths at entry; the body must leave them as it found them
	conds, loops, labels int
}

// BeginFunction defines the function, binds its parameters in a fresh
// scope, and moves the cursor to its entry block.
func (l *Lowerer) BeginFunction(def *ast.FunctionStmt) *FunctionFrame {
	if def.Name == nil {
		panic(violation(def.Pos(), "function without a name"))
	}
	name := def.Name.Name

	result := types.Void
	if def.Result != nil {
		result = l.scalarType(def.Result)
	}
	params := make([]*ir.Value, len(def.Params))
	for i, p := range def.Params {
		params[i] = ir.NewParam(p.Name.Name, l.scalarType(p.Type))
	}

	taken := l.b.Module().Function(name) != nil
	fn := l.b.NewFunction(name, result, params...)
	fn.Private = true
	if taken || !l.symbols.InsertFunction(name, fn) {
		l.errorf(def.Name.Pos(), "%s: cannot redefine function name", name)
	}

	outer := l.currentFunction()
	over := l.b.CreateBlock(outer, "over_jump")
	l.b.Branch(over)

	f := &FunctionFrame{
		l:        l,
		pos:      def.Pos(),
		Function: fn,
		resume:   over,
		conds:    len(l.conds),
		loops:    len(l.loops),
		labels:   len(l.labels),
	}
	l.funcs = append(l.funcs, f)

	l.symbols.PushFunction(fn)
	for i, p := range def.Params {
		ok := l.symbols.Insert(&symtab.Symbol{
			Name:   p.Name.Name,
			Kind:   symtab.SymbolParameter,
			Type:   params[i].Type,
			Pos:    p.Name.Pos(),
			Handle: params[i],
		})
		if !ok {
			l.errorf(p.Name.Pos(), "%s: already declared", p.Name.Name)
		}
	}

	l.b.SetInsertPoint(fn.Entry)
	l.trace("function %s %s", name, fn.Signature())
	return f
}

// End emits the implicit return, drops the function's scope and resumes
// the enclosing function at its over_jump block.
func (f *FunctionFrame) End() {
	l := f.l
	popFrame(&l.funcs, f, "function")
	if len(l.conds) != f.conds || len(l.loops) != f.loops || len(l.labels) != f.labels {
		panic(violation(f.pos, "function %s ended with control-flow frames open", f.Function.Name))
	}
	if l.symbols.CurrentFunction() != f.Function {
		panic(violation(f.pos, "function %s ended outside its scope", f.Function.Name))
	}

	fn := f.Function
	if types.IsVoid(fn.ReturnType) {
		l.b.Return(nil)
	} else {
		l.b.Return(ir.ConstZero(fn.ReturnType))
	}

	l.symbols.PopFunction()
	l.b.SetInsertPoint(f.resume)
}

func (l *Lowerer) lowerFunction(def *ast.FunctionStmt) {
	f := l.BeginFunction(def)
	l.lowerBody(def.Body)
	f.End()
}

// scalarType resolves a parameter or result type; only scalars pass by
// value.
func (l *Lowerer) scalarType(node ast.Expr) types.Type {
	t, _ := l.resolveType(node, "")
	if !types.IsScalar(t) {
		l.errorf(node.Pos(), "%s: parameter type must be scalar", node.Show())
		return types.Int
	}
	return t
}
