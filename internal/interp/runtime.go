package interp

import (
	"fmt"
	"strconv"

	"github.com/hassan/minic/internal/ir"
)

// runtime executes a call to an external function. Only the runtime
// library is known; every call is appended to the trace.
//
// OUTPUT FORMAT:
//   integers in decimal, reals in %g form, booleans as true or false,
//   texts verbatim. Items are not separated; rtl_output_nl writes "\n".
func (m *Machine) runtime(fn *ir.Function, args []interface{}) (interface{}, error) {
	m.trace = append(m.trace, RuntimeCall{Name: fn.Name, Args: append([]interface{}(nil), args...)})

	fail := func(format string, a ...interface{}) error {
		return &RuntimeError{Function: fn.Name, Block: "entry", Message: fmt.Sprintf(format, a...)}
	}

	var text string
	switch fn.Name {
	case ir.RuntimeOutput:
		text = strconv.FormatInt(int64(args[0].(int32)), 10)
	case ir.RuntimeOutputStr:
		text = args[0].(string)
	case ir.RuntimeOutputReal:
		text = strconv.FormatFloat(args[0].(float64), 'g', -1, 64)
	case ir.RuntimeOutputBool:
		text = strconv.FormatBool(args[0].(bool))
	case ir.RuntimeOutputNL:
		text = "\n"
	case ir.RuntimeAllocate:
		count, size := args[0].(int32), args[1].(int32)
		if count <= 0 {
			return nil, fail("cannot allocate %d elements", count)
		}
		if size <= 0 {
			return nil, fail("cannot allocate elements of %d bytes", size)
		}
		return Pointer{obj: &object{name: "heap", count: int(count)}}, nil
	default:
		return nil, fail("unknown external function")
	}

	if _, err := fmt.Fprint(m.out, text); err != nil {
		return nil, fail("write: %v", err)
	}
	return nil, nil
}
