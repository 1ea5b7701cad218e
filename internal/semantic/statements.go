package semantic

import (
	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
	"github.com/hassan/minic/internal/semantic/types"
	"github.com/hassan/minic/internal/symtab"
)

func (l *Lowerer) lowerBody(body []ast.Stmt) {
	for _, stmt := range body {
		l.lowerStmt(stmt)
	}
}

func (l *Lowerer) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case nil:
		panic(violation(lexer.Position{}, "missing statement"))
	case *ast.DeclareStmt:
		l.declare(s)
	case *ast.TypeStmt:
		l.typeDecl(s)
	case *ast.AssignStmt:
		l.assign(s)
	case *ast.OutputStmt:
		l.output(s)
	case *ast.IfStmt:
		l.lowerIf(s)
	case *ast.ForStmt:
		l.lowerFor(s)
	case *ast.LabelStmt:
		l.lowerLabel(s)
	case *ast.RepeatStmt:
		l.Repeat(s.Label)
	case *ast.RepentStmt:
		l.Repent(s.Label)
	case *ast.FunctionStmt:
		l.lowerFunction(s)
	case *ast.ReturnStmt:
		l.lowerReturn(s)
	case *ast.CallStmt:
		if s.Call == nil {
			panic(violation(s.Pos(), "call statement without a call"))
		}
		l.lowerCall(s.Call, false)
	default:
		panic(violation(stmt.Pos(), "unexpected statement %s", stmt.Show()))
	}
}

// declare binds every name of a declaration to fresh storage. Each name
// gets its own layout, so "declare a, b array [3] of integer" allocates
// two descriptors.
func (l *Lowerer) declare(s *ast.DeclareStmt) {
	scope := l.symbols.Current()
	for _, id := range s.Names {
		if _, exists := scope.Symbols[id.Name]; exists {
			l.errorf(id.Pos(), "%s: already declared", id.Name)
			continue
		}

		t, addr := l.resolveType(s.Type, id.Name)
		l.symbols.Insert(&symtab.Symbol{
			Name:   id.Name,
			Kind:   symtab.SymbolVariable,
			Type:   t,
			Pos:    id.Pos(),
			Handle: addr,
		})
		l.trace("declare %s %s", id.Name, t)
	}
}

// typeDecl binds a type name to its description. Layout runs at each use.
func (l *Lowerer) typeDecl(s *ast.TypeStmt) {
	nt := &symtab.NamedType{Name: s.Name.Name, Tree: s.Type, Pos: s.Name.Pos()}
	if !l.symbols.InsertType(nt) {
		l.errorf(s.Name.Pos(), "%s: already declared", s.Name.Name)
		return
	}
	l.trace("type %s %s", nt.Name, s.Type.Show())
}

// assign evaluates the value once and stores it into every target, left
// to right.
func (l *Lowerer) assign(s *ast.AssignStmt) {
	value := l.lowerExpr(s.Value)
	for _, target := range s.Targets {
		l.storeTo(target, value)
	}
}

// storeTo stores value into target. A nil value only resolves the target
// so its errors are still reported.
func (l *Lowerer) storeTo(target ast.Expr, value *ir.Value) {
	addr, t := l.place(target)
	l.storeAt(target, addr, t, value)
}

// storeAt stores value into a location place already resolved; a nil
// address or value has been reported.
func (l *Lowerer) storeAt(target ast.Expr, addr *ir.Value, t types.Type, value *ir.Value) {
	if addr == nil || value == nil {
		return
	}
	if !types.IsScalar(t) {
		l.errorf(target.Pos(), "%s: cannot assign", target.Show())
		return
	}
	v, ok := l.coerce(value, t)
	if !ok {
		l.errorf(target.Pos(), "%s: cannot assign", target.Show())
		return
	}
	l.b.Store(v, addr)
}

// output calls the runtime entry matching each item's type.
func (l *Lowerer) output(s *ast.OutputStmt) {
	for _, item := range s.Items {
		v := l.lowerExpr(item)
		if v == nil {
			continue
		}

		var entry string
		switch {
		case types.IsString(v.Type):
			entry = ir.RuntimeOutputStr
		case types.IsReal(v.Type):
			entry = ir.RuntimeOutputReal
		case types.IsBool(v.Type):
			entry = ir.RuntimeOutputBool
		case types.IsInteger(v.Type):
			entry = ir.RuntimeOutput
		default:
			l.errorf(item.Pos(), "invalid operand types for output")
			continue
		}
		l.b.Call(l.runtime[entry], []*ir.Value{v})
	}

	if s.Newline {
		l.b.Call(l.runtime[ir.RuntimeOutputNL], nil)
	}
}

// lowerReturn returns from the function being lowered. The program body
// and procedures return without a value; functions must give one.
func (l *Lowerer) lowerReturn(s *ast.ReturnStmt) {
	fn := l.currentFunction()
	procedure := fn == l.main || types.IsVoid(fn.ReturnType)

	if s.Value == nil {
		switch {
		case fn == l.main:
			l.b.Return(ir.ConstInt(0))
		case procedure:
			l.b.Return(nil)
		default:
			l.errorf(s.Pos(), "missing return value")
		}
		return
	}

	v := l.lowerExpr(s.Value)
	if procedure {
		l.errorf(s.Pos(), "return value in procedure")
		return
	}
	if v == nil {
		return
	}
	v, ok := l.coerce(v, fn.ReturnType)
	if !ok {
		l.errorf(s.Value.Pos(), "%s: wrong return type", s.Value.Show())
		return
	}
	l.b.Return(v)
}
