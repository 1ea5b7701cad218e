package semantic

import (
	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
	"github.com/hassan/minic/internal/semantic/types"
	"github.com/hassan/minic/internal/symtab"
)

// Instruction selection for the binary operators. The float tables are
// used once the operands have been promoted to real.
var (
	intArith = map[ast.Op]ir.BinaryOperator{
		ast.Plus: ir.OpAdd, ast.Minus: ir.OpSub, ast.Star: ir.OpMul, ast.Slash: ir.OpDiv,
	}
	floatArith = map[ast.Op]ir.BinaryOperator{
		ast.Plus: ir.OpFAdd, ast.Minus: ir.OpFSub, ast.Star: ir.OpFMul, ast.Slash: ir.OpFDiv,
	}
	intCompare = map[ast.Op]ir.Predicate{
		ast.Greater: ir.PredSGT, ast.GreaterEq: ir.PredSGE, ast.Less: ir.PredSLT,
		ast.LessEq: ir.PredSLE, ast.Equal: ir.PredEQ, ast.NotEqual: ir.PredNE,
	}
	floatCompare = map[ast.Op]ir.Predicate{
		ast.Greater: ir.PredUGT, ast.GreaterEq: ir.PredUGE, ast.Less: ir.PredULT,
		ast.LessEq: ir.PredULE, ast.Equal: ir.PredUEQ, ast.NotEqual: ir.PredUNE,
	}
)

// lowerExpr emits the computation of e and returns its value, or nil when
// a resolution error was reported somewhere inside e.
func (l *Lowerer) lowerExpr(e ast.Expr) *ir.Value {
	switch n := e.(type) {
	case nil:
		panic(violation(lexer.Position{}, "missing expression"))
	case *ast.IntLit:
		return ir.ConstInt(n.Value)
	case *ast.RealLit:
		return ir.ConstReal(n.Value)
	case *ast.BoolLit:
		return ir.ConstBool(n.Value)
	case *ast.TextLit:
		return l.b.GlobalString(n.Value[:n.Length])
	case *ast.Ident:
		return l.load(n)
	case *ast.Unary:
		return l.lowerUnary(n)
	case *ast.Binary:
		return l.lowerBinary(n)
	default:
		panic(violation(e.Pos(), "unexpected expression %s", e.Show()))
	}
}

// lookup resolves a variable or parameter of the current function.
func (l *Lowerer) lookup(id *ast.Ident) *symtab.Symbol {
	sym := l.symbols.Find(id.Name)
	if sym == nil {
		l.errorf(id.Pos(), "%s: ident not found", id.Name)
	}
	return sym
}

// load reads a variable. Parameters are values already and are used
// directly.
func (l *Lowerer) load(id *ast.Ident) *ir.Value {
	sym := l.lookup(id)
	if sym == nil {
		return nil
	}
	if !sym.Addressable() {
		return sym.Handle
	}
	if !types.IsScalar(sym.Type) {
		l.errorf(id.Pos(), "%s: cannot be used as a value", id.Name)
		return nil
	}
	return l.b.Load(sym.Type, sym.Handle)
}

func (l *Lowerer) lowerBinary(n *ast.Binary) *ir.Value {
	switch {
	case n.Op.IsArithmetic():
		return l.arithmetic(n)
	case n.Op.IsComparison():
		return l.comparison(n)
	}

	switch n.Op {
	case ast.And, ast.Or:
		return l.logical(n)
	case ast.Call:
		return l.lowerCall(n, true)
	case ast.Index, ast.Period:
		addr, t := l.place(n)
		if addr == nil {
			return nil
		}
		if !types.IsScalar(t) {
			l.errorf(n.Pos(), "%s: cannot be used as a value", n.Show())
			return nil
		}
		return l.b.Load(t, addr)
	default:
		panic(violation(n.Pos(), "operator %s in expression %s", n.Op, n.Show()))
	}
}

// operands lowers both sides; either may come back nil.
func (l *Lowerer) operands(n *ast.Binary) (*ir.Value, *ir.Value) {
	if n.Left == nil || n.Right == nil {
		panic(violation(n.Pos(), "operator %s is missing an operand", n.Op))
	}
	return l.lowerExpr(n.Left), l.lowerExpr(n.Right)
}

// promote converts the integer side of a mixed integer/real pair to real.
func (l *Lowerer) promote(left, right *ir.Value) (*ir.Value, *ir.Value) {
	switch {
	case types.IsReal(left.Type) && types.IsInteger(right.Type):
		right = l.b.Convert(ir.OpSIToFP, right, types.Real)
	case types.IsInteger(left.Type) && types.IsReal(right.Type):
		left = l.b.Convert(ir.OpSIToFP, left, types.Real)
	}
	return left, right
}

func (l *Lowerer) arithmetic(n *ast.Binary) *ir.Value {
	left, right := l.operands(n)
	if left == nil || right == nil {
		return nil
	}
	if !types.IsNumeric(left.Type) || !types.IsNumeric(right.Type) {
		l.invalidOperands(n.Pos(), n.Op)
		return nil
	}

	left, right = l.promote(left, right)
	if types.IsReal(left.Type) {
		return l.b.Binary(floatArith[n.Op], left, right)
	}
	return l.b.Binary(intArith[n.Op], left, right)
}

// comparison follows the promotion rule: signed compares for integers,
// unordered compares for reals. Booleans compare with = and <> only.
func (l *Lowerer) comparison(n *ast.Binary) *ir.Value {
	left, right := l.operands(n)
	if left == nil || right == nil {
		return nil
	}

	switch {
	case types.IsBool(left.Type) && types.IsBool(right.Type):
		if n.Op != ast.Equal && n.Op != ast.NotEqual {
			break
		}
		return l.b.Compare(intCompare[n.Op], left, right)

	case types.IsNumeric(left.Type) && types.IsNumeric(right.Type):
		left, right = l.promote(left, right)
		if types.IsReal(left.Type) {
			return l.b.Compare(floatCompare[n.Op], left, right)
		}
		return l.b.Compare(intCompare[n.Op], left, right)
	}

	l.invalidOperands(n.Pos(), n.Op)
	return nil
}

func (l *Lowerer) logical(n *ast.Binary) *ir.Value {
	left, right := l.operands(n)
	if left == nil || right == nil {
		return nil
	}
	if !types.IsBool(left.Type) || !types.IsBool(right.Type) {
		l.invalidOperands(n.Pos(), n.Op)
		return nil
	}
	if n.Op == ast.And {
		return l.b.Binary(ir.OpAnd, left, right)
	}
	return l.b.Binary(ir.OpOr, left, right)
}

// lowerUnary handles negation and the fix/float conversions. fix of an
// integer and float of a real are the identity.
func (l *Lowerer) lowerUnary(n *ast.Unary) *ir.Value {
	if n.Operand == nil {
		panic(violation(n.Pos(), "operator %s is missing its operand", n.Op))
	}
	v := l.lowerExpr(n.Operand)
	if v == nil {
		return nil
	}

	switch n.Op {
	case ast.Neg:
		switch {
		case types.IsInteger(v.Type):
			return l.b.Unary(ir.OpNeg, v)
		case types.IsReal(v.Type):
			return l.b.Unary(ir.OpFNeg, v)
		}
	case ast.Fix:
		switch {
		case types.IsReal(v.Type):
			return l.b.Convert(ir.OpFPToSI, v, types.Int)
		case types.IsInteger(v.Type):
			return v
		}
	case ast.Float:
		switch {
		case types.IsInteger(v.Type):
			return l.b.Convert(ir.OpSIToFP, v, types.Real)
		case types.IsReal(v.Type):
			return v
		}
	default:
		panic(violation(n.Pos(), "operator %s in expression %s", n.Op, n.Show()))
	}

	l.invalidOperands(n.Pos(), n.Op)
	return nil
}

func (l *Lowerer) invalidOperands(pos lexer.Position, op ast.Op) {
	l.errorf(pos, "invalid operand types for %s", op)
}

// coerce converts v for storage into a location of type to: integers
// widen to real, everything else must match exactly.
func (l *Lowerer) coerce(v *ir.Value, to types.Type) (*ir.Value, bool) {
	if !v.Type.AssignableTo(to) {
		return nil, false
	}
	if types.IsInteger(v.Type) && types.IsReal(to) {
		return l.b.Convert(ir.OpSIToFP, v, types.Real), true
	}
	return v, true
}

// place resolves an assignable expression (a variable, an array element
// or a structure field) to its address and the type stored there.
func (l *Lowerer) place(e ast.Expr) (*ir.Value, types.Type) {
	switch n := e.(type) {
	case *ast.Ident:
		sym := l.lookup(n)
		if sym == nil {
			return nil, nil
		}
		if !sym.CanAssign() {
			l.errorf(n.Pos(), "%s: cannot assign", n.Name)
			return nil, nil
		}
		return sym.Handle, sym.Type
	case *ast.Binary:
		switch n.Op {
		case ast.Index:
			return l.element(n)
		case ast.Period:
			return l.field(n)
		}
	}
	l.errorf(e.Pos(), "%s: cannot assign", e.Show())
	return nil, nil
}

// element computes the address of an array element.
//
// Both a[i, j] and a[i][j] index two dimensions. The index lists are
// collected walking the Index chain outward-in and applied innermost
// first:
//   offset = sum over d of (index(d) - low(d)) * stride(d)
//   address = data + offset
func (l *Lowerer) element(n *ast.Binary) (*ir.Value, types.Type) {
	var lists []ast.Expr
	var base ast.Expr = n
	for {
		idx, ok := base.(*ast.Binary)
		if !ok || idx.Op != ast.Index {
			break
		}
		if idx.Right == nil {
			panic(violation(idx.Pos(), "index of %s has no subscripts", idx.Left.Show()))
		}
		lists = append(lists, idx.Right)
		base = idx.Left
	}
	var indices []ast.Expr
	for i := len(lists) - 1; i >= 0; i-- {
		indices = append(indices, ast.Flatten(lists[i])...)
	}

	id, ok := base.(*ast.Ident)
	if !ok {
		l.errorf(base.Pos(), "%s: is not an array", base.Show())
		return nil, nil
	}
	sym := l.lookup(id)
	if sym == nil {
		return nil, nil
	}
	layout := l.arrayLayout(sym.Type)
	if layout == nil || !sym.Addressable() {
		l.errorf(id.Pos(), "%s: is not an array", id.Name)
		return nil, nil
	}
	if len(indices) != layout.Rank {
		l.errorf(id.Pos(), "%s: wrong number of indices", id.Name)
		return nil, nil
	}

	values := make([]*ir.Value, len(indices))
	valid := true
	for i, idx := range indices {
		values[i] = l.lowerExpr(idx)
		switch {
		case values[i] == nil:
			valid = false
		case !types.IsInteger(values[i].Type):
			l.invalidOperands(idx.Pos(), ast.Index)
			valid = false
		}
	}
	if !valid {
		return nil, nil
	}

	dim := l.dimType()
	desc := layout.Descriptor
	offset := ir.ConstInt(0)
	for d, v := range values {
		rec := l.b.FieldAddress(desc, sym.Handle, d)
		low := l.b.Load(types.Int, l.b.FieldAddress(dim, rec, dimLow))
		r := l.b.Binary(ir.OpSub, v, low)
		stride := l.b.Load(types.Int, l.b.FieldAddress(dim, rec, dimStride))
		r = l.b.Binary(ir.OpMul, r, stride)
		offset = l.b.Binary(ir.OpAdd, offset, r)
	}

	data := l.b.Load(types.NewPointer(layout.Elem), l.b.FieldAddress(desc, sym.Handle, layout.Rank))
	return l.b.ElementAddress(layout.Elem, data, offset), layout.Elem
}

// field computes the address of a structure field. The offset comes from
// the field table, keyed by the synthesized structure name.
func (l *Lowerer) field(n *ast.Binary) (*ir.Value, types.Type) {
	name, ok := n.Right.(*ast.Ident)
	if !ok || n.Left == nil {
		panic(violation(n.Pos(), "malformed field access %s", n.Show()))
	}

	var base *ir.Value
	var t types.Type
	if id, ok := n.Left.(*ast.Ident); ok {
		sym := l.lookup(id)
		if sym == nil {
			return nil, nil
		}
		if sym.Addressable() {
			base, t = sym.Handle, sym.Type
		}
	} else {
		base, t = l.place(n.Left)
		if base == nil {
			return nil, nil
		}
	}

	if base == nil || !l.isStructure(t) {
		l.errorf(n.Left.Pos(), "%s: is not a structure", n.Left.Show())
		return nil, nil
	}
	st := t.(*types.StructType)
	off, ok := l.symbols.FindField(st.Name + "." + name.Name)
	if !ok {
		l.errorf(name.Pos(), "%s: is not a name of a field", name.Name)
		return nil, nil
	}
	return l.b.FieldAddress(st, base, off), st.Fields[off].Type
}

// lowerCall emits a call. A call used as a value must have one.
func (l *Lowerer) lowerCall(n *ast.Binary, value bool) *ir.Value {
	id, ok := n.Left.(*ast.Ident)
	if !ok {
		l.errorf(n.Pos(), "function name must be ident")
		return nil
	}
	fn := l.symbols.FindFunction(id.Name)
	if fn == nil {
		l.errorf(id.Pos(), "%s: function name is not found", id.Name)
		return nil
	}

	exprs := ast.Flatten(n.Right)
	args := make([]*ir.Value, len(exprs))
	valid := true
	for i, a := range exprs {
		if args[i] = l.lowerExpr(a); args[i] == nil {
			valid = false
		}
	}
	if len(args) != len(fn.Parameters) {
		l.errorf(id.Pos(), "%s: wrong number of arguments", id.Name)
		return nil
	}
	if !valid {
		return nil
	}
	for i, p := range fn.Parameters {
		v, ok := l.coerce(args[i], p.Type)
		if !ok {
			l.errorf(exprs[i].Pos(), "%s: wrong argument type", exprs[i].Show())
			return nil
		}
		args[i] = v
	}

	if value && types.IsVoid(fn.ReturnType) {
		l.errorf(id.Pos(), "%s: procedure has no value", id.Name)
		return nil
	}
	return l.b.Call(fn, args)
}
