package semantic

import (
	"fmt"

	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
	"github.com/hassan/minic/internal/semantic/types"
)

// ArrayLayout is the layout-table entry of one array descriptor.
//
// DESCRIPTOR:
//   %array_main_1 = type { %dim, %dim, T* }     one dim per dimension
//   %dim          = type { i32, i32, i32 }      low, high, stride
//
// High is the inclusive upper bound. The innermost stride is one element;
// each outer stride is the inner stride times the inner length. Data is
// allocated once when the array is declared.
type ArrayLayout struct {
	Descriptor *types.StructType
	Elem       types.Type
	Rank       int
}

// Fields of a dim record.
const (
	dimLow = iota
	dimHigh
	dimStride
)

// resolveType maps a type description to a type. With a non-empty name it
// also allocates storage for a variable of that type, runs the
// initialization arrays need, and returns the storage address.
//
// An unrecognized description is reported and integer is used in its
// place so the declaration still binds.
func (l *Lowerer) resolveType(node ast.Expr, name string) (types.Type, *ir.Value) {
	switch n := node.(type) {
	case nil:
		panic(violation(lexer.Position{}, "missing type description"))

	case *ast.Unary:
		switch n.Op {
		case ast.Integer:
			return l.storage(types.Int, name)
		case ast.RealType:
			return l.storage(types.Real, name)
		case ast.Boolean:
			return l.storage(types.Bool, name)
		case ast.String:
			return l.storage(types.String, name)
		case ast.Structure:
			return l.storage(l.structure(n), name)
		}

	case *ast.Binary:
		if n.Op == ast.Array {
			return l.array(n, name)
		}

	case *ast.Ident:
		if tree := l.expand(n); tree != nil {
			defer delete(l.expanding, n.Name)
			return l.resolveType(tree, name)
		}
		return l.storage(types.Int, name)
	}

	l.errorf(node.Pos(), "%s: unknown type", node.Show())
	return l.storage(types.Int, name)
}

// expand returns the tree bound to a type name and marks it as being
// expanded; the caller unmarks it. Unknown and self-referencing names are
// reported and yield nil.
func (l *Lowerer) expand(id *ast.Ident) ast.Expr {
	nt := l.symbols.FindType(id.Name)
	if nt == nil || l.expanding[id.Name] {
		l.errorf(id.Pos(), "%s: unknown type", id.Name)
		return nil
	}
	l.expanding[id.Name] = true
	return nt.Tree
}

func (l *Lowerer) storage(t types.Type, name string) (types.Type, *ir.Value) {
	if name == "" {
		return t, nil
	}
	return t, l.b.Alloca(t, name)
}

// serialName synthesizes a unique aggregate name: <prefix>_<function>_<n>.
func (l *Lowerer) serialName(prefix string) string {
	l.serial++
	return fmt.Sprintf("%s_%s_%d", prefix, l.currentFunction().Name, l.serial)
}

// structure builds the type of a structure description and records the
// offset of every field as "<struct>.<field>".
//
// EXAMPLE:
//   structure (x real, y real)
//   => %struct_main_1 = type { double, double }
//      struct_main_1.x = 0, struct_main_1.y = 1
func (l *Lowerer) structure(n *ast.Unary) *types.StructType {
	st := types.NewStruct(l.serialName("struct"), nil)

	for _, f := range ast.Flatten(n.Operand) {
		field, ok := f.(*ast.Binary)
		if !ok || field.Op != ast.Field {
			panic(violation(f.Pos(), "%s is not a field declaration", f.Show()))
		}
		id, ok := field.Left.(*ast.Ident)
		if !ok {
			panic(violation(field.Pos(), "field name %s is not an identifier", field.Show()))
		}

		ft, _ := l.resolveType(field.Right, "")
		if l.arrayLayout(ft) != nil {
			l.errorf(id.Pos(), "%s: array field not supported", id.Name)
			continue
		}
		if !l.symbols.InsertField(st.Name+"."+id.Name, len(st.Fields)) {
			l.errorf(id.Pos(), "%s: already declared", id.Name)
			continue
		}
		st.Fields = append(st.Fields, types.StructField{Name: id.Name, Type: ft})
	}

	l.b.DefineStruct(st)
	l.trace("structure %s = type %s", st, st.Body())
	return st
}

// array builds the descriptor type of an array description. The chain
// "array [a] of array [b, c] of T" has two dimensions; a named array type
// used as element type adds its dimensions too.
func (l *Lowerer) array(n *ast.Binary, name string) (types.Type, *ir.Value) {
	var dims []*ast.Binary
	var node ast.Expr = n
	var named []string

	for {
		if id, ok := node.(*ast.Ident); ok {
			if nt := l.symbols.FindType(id.Name); nt != nil && isArrayTree(nt.Tree) && !l.expanding[id.Name] {
				l.expanding[id.Name] = true
				named = append(named, id.Name)
				node = nt.Tree
				continue
			}
		}
		arr, ok := node.(*ast.Binary)
		if !ok || arr.Op != ast.Array {
			break
		}
		bounds, ok := arr.Left.(*ast.Binary)
		if !ok || bounds.Op != ast.Bounds {
			panic(violation(arr.Pos(), "array %s has no bounds", arr.Show()))
		}
		dims = append(dims, bounds)
		node = arr.Right
	}

	elem, _ := l.resolveType(node, "")
	for _, nt := range named {
		delete(l.expanding, nt)
	}

	fields := make([]types.StructField, 0, len(dims)+1)
	for i := range dims {
		fields = append(fields, types.StructField{Name: fmt.Sprintf("dim%d", i), Type: l.dimType()})
	}
	fields = append(fields, types.StructField{Name: "data", Type: types.NewPointer(elem)})

	desc := types.NewStruct(l.serialName("array"), fields)
	l.b.DefineStruct(desc)
	layout := &ArrayLayout{Descriptor: desc, Elem: elem, Rank: len(dims)}
	l.layouts[desc] = layout
	l.trace("array %s of %s, rank %d", desc, elem, layout.Rank)

	if name == "" {
		return desc, nil
	}
	addr := l.b.Alloca(desc, name)
	l.initArray(layout, addr, dims)
	return desc, addr
}

func isArrayTree(e ast.Expr) bool {
	b, ok := e.(*ast.Binary)
	return ok && b.Op == ast.Array
}

// initArray fills a freshly allocated descriptor.
//
// ALGORITHM:
// 1. Store low and high of every dimension; [n] means 1..n
// 2. len(d) = high - low + 1, total = product of all lengths
// 3. Strides back to front: innermost 1, stride(d) = stride(d+1) * len(d+1)
// 4. data = allocate_array(total, sizeof(elem))
func (l *Lowerer) initArray(layout *ArrayLayout, addr *ir.Value, dims []*ast.Binary) {
	lows := make([]*ir.Value, len(dims))
	highs := make([]*ir.Value, len(dims))
	valid := true
	for i, d := range dims {
		lows[i], highs[i] = ir.ConstInt(1), l.bound(d.Left)
		if d.Right != nil {
			lows[i], highs[i] = highs[i], l.bound(d.Right)
		}
		if lows[i] == nil || highs[i] == nil {
			valid = false
		}
	}
	if !valid {
		return
	}

	dim := l.dimType()
	desc := layout.Descriptor
	lengths := make([]*ir.Value, len(dims))
	total := ir.ConstInt(1)
	for i := range dims {
		rec := l.b.FieldAddress(desc, addr, i)
		l.b.Store(lows[i], l.b.FieldAddress(dim, rec, dimLow))
		l.b.Store(highs[i], l.b.FieldAddress(dim, rec, dimHigh))

		n := l.b.Binary(ir.OpSub, highs[i], lows[i])
		lengths[i] = l.b.Binary(ir.OpAdd, n, ir.ConstInt(1))
		total = l.b.Binary(ir.OpMul, total, lengths[i])
	}

	stride := ir.ConstInt(1)
	for i := len(dims) - 1; i >= 0; i-- {
		rec := l.b.FieldAddress(desc, addr, i)
		l.b.Store(stride, l.b.FieldAddress(dim, rec, dimStride))
		if i > 0 {
			stride = l.b.Binary(ir.OpMul, stride, lengths[i])
		}
	}

	size := ir.ConstInt(int32(types.Sizeof(layout.Elem)))
	raw := l.b.Call(l.runtime[ir.RuntimeAllocate], []*ir.Value{total, size})
	data := l.b.Convert(ir.OpBitCast, raw, types.NewPointer(layout.Elem))
	l.b.Store(data, l.b.FieldAddress(desc, addr, layout.Rank))
}

func (l *Lowerer) bound(e ast.Expr) *ir.Value {
	v := l.lowerExpr(e)
	if v == nil {
		return nil
	}
	if !types.IsInteger(v.Type) {
		l.errorf(e.Pos(), "%s: array bound must be integer", e.Show())
		return nil
	}
	return v
}

func (l *Lowerer) dimType() *types.StructType {
	if l.dim == nil {
		l.dim = types.NewStruct("dim", []types.StructField{
			{Name: "low", Type: types.Int},
			{Name: "high", Type: types.Int},
			{Name: "stride", Type: types.Int},
		})
		l.b.DefineStruct(l.dim)
	}
	return l.dim
}

// arrayLayout returns the layout of an array descriptor type, or nil.
func (l *Lowerer) arrayLayout(t types.Type) *ArrayLayout {
	st, ok := t.(*types.StructType)
	if !ok {
		return nil
	}
	return l.layouts[st]
}

// isStructure reports whether t is a user structure.
func (l *Lowerer) isStructure(t types.Type) bool {
	_, ok := t.(*types.StructType)
	return ok && l.arrayLayout(t) == nil
}
