package ir

import "github.com/hassan/minic/internal/semantic/types"

// Runtime library entries. Every module declares all of them; the
// interpreter implements them in Go and a native build links the C runtime.
const (
	RuntimeOutput     = "rtl_output"
	RuntimeOutputStr  = "rtl_output_str"
	RuntimeOutputReal = "rtl_output_real"
	RuntimeOutputBool = "rtl_output_bool"
	RuntimeOutputNL   = "rtl_output_nl"
	RuntimeAllocate   = "rtl_allocate_array"
)

// RuntimeEntry is the signature of one runtime library function.
type RuntimeEntry struct {
	Name   string
	Result types.Type
	Params []types.Type
}

// Runtime lists the runtime library in declaration order.
//
//   rtl_output(i32)                 print an integer
//   rtl_output_str(i8*)             print a text
//   rtl_output_real(double)         print a real
//   rtl_output_bool(i1)             print true or false
//   rtl_output_nl()                 end the line
//   rtl_allocate_array(i32, i32)    count elements of size bytes, zeroed
var Runtime = []RuntimeEntry{
	{Name: RuntimeOutput, Result: types.Void, Params: []types.Type{types.Int}},
	{Name: RuntimeOutputStr, Result: types.Void, Params: []types.Type{types.String}},
	{Name: RuntimeOutputReal, Result: types.Void, Params: []types.Type{types.Real}},
	{Name: RuntimeOutputBool, Result: types.Void, Params: []types.Type{types.Bool}},
	{Name: RuntimeOutputNL, Result: types.Void},
	{Name: RuntimeAllocate, Result: types.String, Params: []types.Type{types.Int, types.Int}},
}

