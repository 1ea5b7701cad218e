package interp

import (
	"fmt"

	"github.com/hassan/minic/internal/semantic/types"
)

// MEMORY MODEL:
// Every alloca and every allocate_array call creates one object: a flat
// slice of cells, one cell per scalar. A structure occupies the cells of
// its fields in order, so a field address is the base cell plus the cells
// of the fields before it. An element address is the base cell plus
// index times the cells of one element.
//
// Cells hold int32, float64, bool, string (texts) or Pointer. A cell that
// was never stored reads as the zero of the loaded type.

// object is one allocation.
type object struct {
	name  string
	cells []interface{}

	// count is the element count of a runtime allocation; its cells are
	// created when the raw pointer is cast to a typed one
	count int
}

// Pointer addresses one cell of an object.
type Pointer struct {
	obj *object
	off int
}

func (p Pointer) String() string {
	if p.obj == nil {
		return "null"
	}
	return fmt.Sprintf("&%s+%d", p.obj.name, p.off)
}

func newObject(name string, t types.Type) *object {
	return &object{name: name, cells: make([]interface{}, cellCount(t))}
}

func (p Pointer) check() error {
	if p.obj == nil {
		return fmt.Errorf("null pointer dereference")
	}
	if p.off < 0 || p.off >= len(p.obj.cells) {
		return fmt.Errorf("address %s out of range (%d cells)", p, len(p.obj.cells))
	}
	return nil
}

func (p Pointer) load(t types.Type) (interface{}, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	if v := p.obj.cells[p.off]; v != nil {
		return v, nil
	}
	return zeroOf(t), nil
}

func (p Pointer) store(v interface{}) error {
	if err := p.check(); err != nil {
		return err
	}
	p.obj.cells[p.off] = v
	return nil
}

// cellCount returns the cells a value of type t occupies.
func cellCount(t types.Type) int {
	st, ok := t.(*types.StructType)
	if !ok {
		return 1
	}
	n := 0
	for _, f := range st.Fields {
		n += cellCount(f.Type)
	}
	return n
}

// fieldOffset returns the first cell of field i.
func fieldOffset(st *types.StructType, i int) int {
	n := 0
	for _, f := range st.Fields[:i] {
		n += cellCount(f.Type)
	}
	return n
}

func zeroOf(t types.Type) interface{} {
	if z := types.Zero(t); z != nil {
		return z
	}
	if types.IsString(t) {
		return ""
	}
	return Pointer{}
}
