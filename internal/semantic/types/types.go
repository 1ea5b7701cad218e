// Package types implements the type system shared by the lowering core and the IR.
//
// DESIGN PHILOSOPHY:
// Mini types are determined structurally from declarations; there is no inference.
// Every type here is already a machine-level type:
// 1. Scalars: integer (i32), real (double), boolean (i1), byte (i8)
// 2. Pointers (a string is a pointer to byte)
// 3. Structures, used for user structures and for array descriptors
// 4. Function signatures
//
// KEY DESIGN CHOICES:
// - Scalars are singletons compared by identity
// - Structures are nominal: two structures with the same fields are different types
//   when they come from different declarations
// - Pointers and functions are structural
package types

import (
	"fmt"
	"strings"
)

// Type is the interface that all types implement.
type Type interface {
	// String returns the textual form used in the IR listing.
	String() string

	// Equals reports whether two types are identical.
	Equals(other Type) bool

	// AssignableTo reports whether a value of this type can be stored into a
	// location of the other type. Integer is assignable to real (the store
	// converts); everything else requires identity.
	AssignableTo(other Type) bool

	kind() TypeKind
}

// TypeKind represents the kind of type.
type TypeKind int

const (
	KindInvalid TypeKind = iota
	KindVoid
	KindInt
	KindReal
	KindBool
	KindByte
	KindPointer
	KindStruct
	KindFunction
)

// InvalidType is the placeholder for a type that failed to resolve.
type InvalidType struct{}

func (i *InvalidType) String() string         { return "<invalid>" }
func (i *InvalidType) Equals(other Type) bool { return false }
func (i *InvalidType) AssignableTo(Type) bool { return false }
func (i *InvalidType) kind() TypeKind         { return KindInvalid }

// VoidType is the result type of procedures.
type VoidType struct{}

func (v *VoidType) String() string         { return "void" }
func (v *VoidType) Equals(other Type) bool { _, ok := other.(*VoidType); return ok }
func (v *VoidType) AssignableTo(Type) bool { return false }
func (v *VoidType) kind() TypeKind         { return KindVoid }

// IntType is the 32-bit signed integer.
type IntType struct{}

func (i *IntType) String() string         { return "i32" }
func (i *IntType) Equals(other Type) bool { _, ok := other.(*IntType); return ok }
func (i *IntType) AssignableTo(other Type) bool {
	return i.Equals(other) || other.Equals(Real)
}
func (i *IntType) kind() TypeKind { return KindInt }

// RealType is the IEEE754 double.
type RealType struct{}

func (r *RealType) String() string               { return "double" }
func (r *RealType) Equals(other Type) bool       { _, ok := other.(*RealType); return ok }
func (r *RealType) AssignableTo(other Type) bool { return r.Equals(other) }
func (r *RealType) kind() TypeKind               { return KindReal }

// BoolType is the 1-bit boolean.
type BoolType struct{}

func (b *BoolType) String() string               { return "i1" }
func (b *BoolType) Equals(other Type) bool       { _, ok := other.(*BoolType); return ok }
func (b *BoolType) AssignableTo(other Type) bool { return b.Equals(other) }
func (b *BoolType) kind() TypeKind               { return KindBool }

// ByteType is the 8-bit character cell strings point to.
type ByteType struct{}

func (b *ByteType) String() string               { return "i8" }
func (b *ByteType) Equals(other Type) bool       { _, ok := other.(*ByteType); return ok }
func (b *ByteType) AssignableTo(other Type) bool { return b.Equals(other) }
func (b *ByteType) kind() TypeKind               { return KindByte }

// PointerType is an address of a value of type Elem.
type PointerType struct {
	Elem Type
}

// NewPointer returns a pointer to elem.
func NewPointer(elem Type) *PointerType {
	return &PointerType{Elem: elem}
}

func (p *PointerType) String() string { return p.Elem.String() + "*" }

func (p *PointerType) Equals(other Type) bool {
	o, ok := other.(*PointerType)
	return ok && p.Elem.Equals(o.Elem)
}

func (p *PointerType) AssignableTo(other Type) bool { return p.Equals(other) }
func (p *PointerType) kind() TypeKind               { return KindPointer }

// StructField is one member of a structure.
type StructField struct {
	Name string
	Type Type
}

// StructType is an aggregate laid out field after field.
//
// Structures are nominal: Equals compares identity, so the layouts of two
// declarations stay distinguishable even when their fields match.
type StructType struct {
	Name   string
	Fields []StructField
}

// NewStruct creates a named structure type.
func NewStruct(name string, fields []StructField) *StructType {
	return &StructType{Name: name, Fields: fields}
}

func (s *StructType) String() string { return "%" + s.Name }

// Body returns the member list, e.g. "{ i32, double }".
func (s *StructType) Body() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Type.String()
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (s *StructType) Equals(other Type) bool {
	o, ok := other.(*StructType)
	return ok && s == o
}

func (s *StructType) AssignableTo(other Type) bool { return s.Equals(other) }
func (s *StructType) kind() TypeKind               { return KindStruct }

// FieldIndex returns the position of the named field, or -1.
func (s *StructType) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FunctionType is a function signature.
type FunctionType struct {
	Params []Type
	Result Type
}

// NewFunction creates a function signature.
func NewFunction(result Type, params ...Type) *FunctionType {
	return &FunctionType{Params: params, Result: result}
}

func (f *FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s (%s)", f.Result, strings.Join(parts, ", "))
}

func (f *FunctionType) Equals(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok || len(f.Params) != len(o.Params) || !f.Result.Equals(o.Result) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equals(o.Params[i]) {
			return false
		}
	}
	return true
}

func (f *FunctionType) AssignableTo(other Type) bool { return f.Equals(other) }
func (f *FunctionType) kind() TypeKind               { return KindFunction }

// Singletons for the scalar types.
var (
	Invalid Type = &InvalidType{}
	Void    Type = &VoidType{}
	Int     Type = &IntType{}
	Real    Type = &RealType{}
	Bool    Type = &BoolType{}
	Byte    Type = &ByteType{}

	// String is the type of text values: a pointer to the first byte.
	String Type = NewPointer(Byte)
)

// IsInteger reports whether t is the integer type.
func IsInteger(t Type) bool { return t != nil && t.kind() == KindInt }

// IsReal reports whether t is the real type.
func IsReal(t Type) bool { return t != nil && t.kind() == KindReal }

// IsNumeric reports whether t is integer or real.
func IsNumeric(t Type) bool { return IsInteger(t) || IsReal(t) }

// IsBool reports whether t is the boolean type.
func IsBool(t Type) bool { return t != nil && t.kind() == KindBool }

// IsString reports whether t is the text pointer type.
func IsString(t Type) bool { return t != nil && String.Equals(t) }

// IsPointer reports whether t is any pointer type.
func IsPointer(t Type) bool { return t != nil && t.kind() == KindPointer }

// IsScalar reports whether t fits in a single machine cell.
func IsScalar(t Type) bool {
	if t == nil {
		return false
	}
	switch t.kind() {
	case KindInt, KindReal, KindBool, KindByte, KindPointer:
		return true
	}
	return false
}

// IsVoid reports whether t is void.
func IsVoid(t Type) bool { return t != nil && t.kind() == KindVoid }

// Elem returns the pointee of a pointer type, or nil.
func Elem(t Type) Type {
	if p, ok := t.(*PointerType); ok {
		return p.Elem
	}
	return nil
}

// Sizeof returns the storage size in bytes, as a target with natural
// alignment lays the type out.
//
// SIZES:
//   i32 = 4, double = 8, i1 = 1, i8 = 1, pointers = 8,
//   structures = fields at aligned offsets, rounded up to the largest
//   field alignment
//
// EXAMPLE:
//   structure (f boolean, n integer)  -> 1 + 3 padding + 4 = 8
//   structure (n integer, x real)     -> 4 + 4 padding + 8 = 16
func Sizeof(t Type) int {
	switch tt := t.(type) {
	case *IntType:
		return 4
	case *RealType, *PointerType:
		return 8
	case *BoolType, *ByteType:
		return 1
	case *StructType:
		n := 0
		for _, f := range tt.Fields {
			n = alignUp(n, Alignof(f.Type)) + Sizeof(f.Type)
		}
		return alignUp(n, Alignof(tt))
	default:
		return 0
	}
}

// Alignof returns the alignment in bytes. Scalars align to their size; a
// structure aligns to its most aligned field.
func Alignof(t Type) int {
	st, ok := t.(*StructType)
	if !ok {
		if n := Sizeof(t); n > 0 {
			return n
		}
		return 1
	}
	align := 1
	for _, f := range st.Fields {
		if a := Alignof(f.Type); a > align {
			align = a
		}
	}
	return align
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// Zero returns the Go value used for the zero of a scalar type.
// It is the implicit return value of a function that falls off its end.
func Zero(t Type) interface{} {
	switch t.(type) {
	case *IntType:
		return int32(0)
	case *RealType:
		return float64(0)
	case *BoolType:
		return false
	default:
		return nil
	}
}
