package types

import (
	"testing"
)

func TestScalarType_String(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{Int, "i32"},
		{Real, "double"},
		{Bool, "i1"},
		{Byte, "i8"},
		{String, "i8*"},
		{Void, "void"},
		{Invalid, "<invalid>"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.typ.String()
			if result != tt.expected {
				t.Errorf("Type.String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestType_Equals(t *testing.T) {
	point := NewStruct("struct_main_1", []StructField{{"x", Int}, {"y", Int}})
	twin := NewStruct("struct_main_2", []StructField{{"x", Int}, {"y", Int}})

	tests := []struct {
		name     string
		t1       Type
		t2       Type
		expected bool
	}{
		{"int equals int", Int, Int, true},
		{"real equals real", Real, Real, true},
		{"int not equals real", Int, Real, false},
		{"bool not equals int", Bool, Int, false},
		{"string equals pointer to byte", String, NewPointer(Byte), true},
		{"pointer to int not equals string", NewPointer(Int), String, false},
		{"struct equals itself", point, point, true},
		{"same-shaped structs differ", point, twin, false},
		{"invalid never equal", Invalid, Invalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.t1.Equals(tt.t2)
			if result != tt.expected {
				t.Errorf("%s.Equals(%s) = %v, want %v", tt.t1, tt.t2, result, tt.expected)
			}
		})
	}
}

func TestType_AssignableTo(t *testing.T) {
	tests := []struct {
		name     string
		value    Type
		target   Type
		expected bool
	}{
		{"int to int", Int, Int, true},
		{"int to real", Int, Real, true},
		{"real to int", Real, Int, false},
		{"bool to int", Bool, Int, false},
		{"string to string", String, String, true},
		{"void to int", Void, Int, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.AssignableTo(tt.target); got != tt.expected {
				t.Errorf("%s.AssignableTo(%s) = %v, want %v", tt.value, tt.target, got, tt.expected)
			}
		})
	}
}

func TestSizeof(t *testing.T) {
	rec := NewStruct("struct_main_1", []StructField{{"a", Int}, {"b", Real}, {"c", Bool}})

	tests := []struct {
		name string
		typ  Type
		want int
	}{
		{"int", Int, 4},
		{"real", Real, 8},
		{"bool", Bool, 1},
		{"string", String, 8},
		{"struct", rec, 24},
		{"bool then int", NewStruct("s", []StructField{{"f", Bool}, {"n", Int}}), 8},
		{"int then real", NewStruct("s", []StructField{{"n", Int}, {"x", Real}}), 16},
		{"packed bools", NewStruct("s", []StructField{{"a", Bool}, {"b", Bool}, {"c", Bool}}), 3},
		{"nested", NewStruct("s", []StructField{{"f", Bool}, {"r", NewStruct("r", []StructField{{"n", Int}, {"x", Real}})}}), 24},
		{"void", Void, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sizeof(tt.typ); got != tt.want {
				t.Errorf("Sizeof(%s) = %d, want %d", tt.typ, got, tt.want)
			}
		})
	}
}

func TestStructType_FieldIndex(t *testing.T) {
	rec := NewStruct("struct_main_1", []StructField{{"a", Int}, {"b", Real}})

	if got := rec.FieldIndex("b"); got != 1 {
		t.Errorf("FieldIndex(b) = %d, want 1", got)
	}
	if got := rec.FieldIndex("zz"); got != -1 {
		t.Errorf("FieldIndex(zz) = %d, want -1", got)
	}
	if got := rec.Body(); got != "{ i32, double }" {
		t.Errorf("Body() = %q, want %q", got, "{ i32, double }")
	}
}

func TestFunctionType(t *testing.T) {
	f1 := NewFunction(Int, Int, Real)
	f2 := NewFunction(Int, Int, Real)
	f3 := NewFunction(Void, Int)

	if !f1.Equals(f2) {
		t.Error("expected structurally equal signatures to be equal")
	}
	if f1.Equals(f3) {
		t.Error("expected different signatures to differ")
	}
	if got := f1.String(); got != "i32 (i32, double)" {
		t.Errorf("String() = %q", got)
	}
}

func TestZero(t *testing.T) {
	if v, ok := Zero(Int).(int32); !ok || v != 0 {
		t.Errorf("Zero(Int) = %v", Zero(Int))
	}
	if v, ok := Zero(Real).(float64); !ok || v != 0 {
		t.Errorf("Zero(Real) = %v", Zero(Real))
	}
	if v, ok := Zero(Bool).(bool); !ok || v {
		t.Errorf("Zero(Bool) = %v", Zero(Bool))
	}
	if Zero(Void) != nil {
		t.Errorf("Zero(Void) = %v, want nil", Zero(Void))
	}
}

func TestPredicates(t *testing.T) {
	if !IsNumeric(Int) || !IsNumeric(Real) || IsNumeric(Bool) {
		t.Error("IsNumeric misclassifies scalars")
	}
	if !IsString(String) || IsString(NewPointer(Int)) {
		t.Error("IsString misclassifies pointers")
	}
	if !IsScalar(String) || IsScalar(NewStruct("s", nil)) {
		t.Error("IsScalar misclassifies")
	}
	if Elem(String) != Byte {
		t.Error("Elem(String) should be Byte")
	}
	if Elem(Int) != nil {
		t.Error("Elem(Int) should be nil")
	}
}
