// Package interp executes IR modules.
//
// The interpreter is the reference semantics of the IR: it runs a module
// from main, implements the runtime library in Go, and records every
// runtime call. minic run and the REPL execute programs with it, and the
// lowering tests use it to check what the generated code does.
//
// USAGE:
//   m := interp.New(module, os.Stdout)
//   code, err := m.Run()
package interp

import (
	"fmt"
	"io"
	"math"

	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/semantic/types"
)

// Default limits.
const (
	DefaultStepLimit  = 10_000_000
	DefaultDepthLimit = 10_000
)

// RuntimeError is a failure while executing the program.
type RuntimeError struct {
	Function string
	Block    string
	Message  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s.%s: %s", e.Function, e.Block, e.Message)
}

// RuntimeCall records one call of a runtime library entry.
type RuntimeCall struct {
	Name string
	Args []interface{}
}

// Option configures a Machine.
type Option func(*Machine)

// WithStepLimit bounds the number of executed instructions.
func WithStepLimit(n int) Option {
	return func(m *Machine) { m.stepLimit = n }
}

// WithDepthLimit bounds the call depth.
func WithDepthLimit(n int) Option {
	return func(m *Machine) { m.depthLimit = n }
}

// Machine runs one module.
type Machine struct {
	module *ir.Module
	out    io.Writer

	trace []RuntimeCall

	steps      int
	stepLimit  int
	depth      int
	depthLimit int
}

// New creates a machine for module writing program output to out.
func New(module *ir.Module, out io.Writer, opts ...Option) *Machine {
	m := &Machine{
		module:     module,
		out:        out,
		stepLimit:  DefaultStepLimit,
		depthLimit: DefaultDepthLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Trace returns the runtime calls made so far, in order.
func (m *Machine) Trace() []RuntimeCall {
	out := make([]RuntimeCall, len(m.trace))
	copy(out, m.trace)
	return out
}

// Run executes main and returns its exit code.
func (m *Machine) Run() (int32, error) {
	main := m.module.Function("main")
	if main == nil || main.External {
		return 0, fmt.Errorf("module %s has no main function", m.module.Name)
	}
	v, err := m.call(main, nil)
	if err != nil {
		return 0, err
	}
	code, _ := v.(int32)
	return code, nil
}

// Call executes one function of the module with the given arguments.
func (m *Machine) Call(name string, args ...interface{}) (interface{}, error) {
	fn := m.module.Function(name)
	if fn == nil {
		return nil, fmt.Errorf("module %s has no function %s", m.module.Name, name)
	}
	if len(args) != len(fn.Parameters) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", name, len(fn.Parameters), len(args))
	}
	return m.call(fn, args)
}

// frame is the activation of one function.
type frame struct {
	fn     *ir.Function
	block  *ir.BasicBlock
	values map[*ir.Value]interface{}
}

func (f *frame) fail(format string, args ...interface{}) error {
	return &RuntimeError{Function: f.fn.Name, Block: f.block.Label, Message: fmt.Sprintf(format, args...)}
}

func (f *frame) value(v *ir.Value) (interface{}, error) {
	if v == nil {
		return nil, f.fail("missing operand")
	}
	switch v.Kind {
	case ir.ValueConstant:
		if v.Constant == nil {
			return zeroOf(v.Type), nil
		}
		return v.Constant, nil
	case ir.ValueGlobal:
		return v.Constant, nil
	}
	x, ok := f.values[v]
	if !ok {
		return nil, f.fail("%s used before it is defined", v)
	}
	return x, nil
}

func (f *frame) pointer(v *ir.Value) (Pointer, error) {
	x, err := f.value(v)
	if err != nil {
		return Pointer{}, err
	}
	p, ok := x.(Pointer)
	if !ok {
		return Pointer{}, f.fail("%s is not an address", v)
	}
	return p, nil
}

func (m *Machine) call(fn *ir.Function, args []interface{}) (interface{}, error) {
	if fn.External {
		return m.runtime(fn, args)
	}

	m.depth++
	defer func() { m.depth-- }()
	if m.depth > m.depthLimit {
		return nil, &RuntimeError{Function: fn.Name, Block: "entry", Message: "call depth limit exceeded"}
	}

	f := &frame{fn: fn, block: fn.Entry, values: make(map[*ir.Value]interface{})}
	for i, p := range fn.Parameters {
		f.values[p] = args[i]
	}

	for {
		next, result, err := m.run(f)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return result, nil
		}
		f.block = next
	}
}

// run executes the current block. It returns the successor, or nil and
// the result when the block returns.
func (m *Machine) run(f *frame) (*ir.BasicBlock, interface{}, error) {
	for _, instr := range f.block.Instructions {
		m.steps++
		if m.steps > m.stepLimit {
			return nil, nil, f.fail("step limit of %d instructions exceeded", m.stepLimit)
		}

		switch in := instr.(type) {
		case *ir.Jump:
			return in.Target, nil, nil

		case *ir.Branch:
			c, err := f.value(in.Condition)
			if err != nil {
				return nil, nil, err
			}
			if c.(bool) {
				return in.TrueBlock, nil, nil
			}
			return in.FalseBlock, nil, nil

		case *ir.Return:
			if in.Value == nil {
				return nil, nil, nil
			}
			v, err := f.value(in.Value)
			return nil, v, err

		default:
			result, err := m.exec(f, instr)
			if err != nil {
				return nil, nil, err
			}
			if dest := instr.Result(); dest != nil {
				f.values[dest] = result
			}
		}
	}
	return nil, nil, f.fail("block has no terminator")
}

// exec executes one non-terminator instruction.
func (m *Machine) exec(f *frame, instr ir.Instruction) (interface{}, error) {
	switch in := instr.(type) {
	case *ir.Alloca:
		return Pointer{obj: newObject(in.Dest.Name, in.Type)}, nil

	case *ir.Load:
		p, err := f.pointer(in.Address)
		if err != nil {
			return nil, err
		}
		v, err := p.load(in.Dest.Type)
		if err != nil {
			return nil, f.fail("load: %v", err)
		}
		return v, nil

	case *ir.Store:
		p, err := f.pointer(in.Address)
		if err != nil {
			return nil, err
		}
		v, err := f.value(in.Value)
		if err != nil {
			return nil, err
		}
		if err := p.store(v); err != nil {
			return nil, f.fail("store: %v", err)
		}
		return nil, nil

	case *ir.BinaryOp:
		left, err := f.value(in.Left)
		if err != nil {
			return nil, err
		}
		right, err := f.value(in.Right)
		if err != nil {
			return nil, err
		}
		return binary(f, in.Op, left, right)

	case *ir.Compare:
		left, err := f.value(in.Left)
		if err != nil {
			return nil, err
		}
		right, err := f.value(in.Right)
		if err != nil {
			return nil, err
		}
		return compare(f, in.Pred, left, right)

	case *ir.UnaryOp:
		v, err := f.value(in.Operand)
		if err != nil {
			return nil, err
		}
		switch in.Op {
		case ir.OpNeg:
			return -v.(int32), nil
		case ir.OpFNeg:
			return -v.(float64), nil
		}
		return nil, f.fail("unknown unary operator %s", in.Op)

	case *ir.Convert:
		v, err := f.value(in.Value)
		if err != nil {
			return nil, err
		}
		return convert(f, in, v)

	case *ir.ElementPtr:
		p, err := f.pointer(in.Base)
		if err != nil {
			return nil, err
		}
		idx, err := f.value(in.Index)
		if err != nil {
			return nil, err
		}
		p.off += int(idx.(int32)) * cellCount(in.Elem)
		return p, nil

	case *ir.FieldPtr:
		p, err := f.pointer(in.Base)
		if err != nil {
			return nil, err
		}
		p.off += fieldOffset(in.Struct, in.Field)
		return p, nil

	case *ir.Call:
		args := make([]interface{}, len(in.Args))
		for i, a := range in.Args {
			v, err := f.value(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return m.call(in.Callee, args)
	}

	return nil, f.fail("cannot execute %s", instr)
}

func binary(f *frame, op ir.BinaryOperator, left, right interface{}) (interface{}, error) {
	switch op {
	case ir.OpAdd:
		return left.(int32) + right.(int32), nil
	case ir.OpSub:
		return left.(int32) - right.(int32), nil
	case ir.OpMul:
		return left.(int32) * right.(int32), nil
	case ir.OpDiv:
		if right.(int32) == 0 {
			return nil, f.fail("integer division by zero")
		}
		return left.(int32) / right.(int32), nil
	case ir.OpFAdd:
		return left.(float64) + right.(float64), nil
	case ir.OpFSub:
		return left.(float64) - right.(float64), nil
	case ir.OpFMul:
		return left.(float64) * right.(float64), nil
	case ir.OpFDiv:
		return left.(float64) / right.(float64), nil
	case ir.OpAnd:
		return left.(bool) && right.(bool), nil
	case ir.OpOr:
		return left.(bool) || right.(bool), nil
	}
	return nil, f.fail("unknown binary operator %s", op)
}

// compare evaluates a predicate. Floating predicates are unordered: they
// also hold when either operand is NaN.
func compare(f *frame, pred ir.Predicate, left, right interface{}) (interface{}, error) {
	if pred.IsFloat() {
		a, b := left.(float64), right.(float64)
		nan := math.IsNaN(a) || math.IsNaN(b)
		switch pred {
		case ir.PredUEQ:
			return nan || a == b, nil
		case ir.PredUNE:
			return nan || a != b, nil
		case ir.PredUGT:
			return nan || a > b, nil
		case ir.PredUGE:
			return nan || a >= b, nil
		case ir.PredULT:
			return nan || a < b, nil
		case ir.PredULE:
			return nan || a <= b, nil
		}
	}

	switch pred {
	case ir.PredEQ:
		return left == right, nil
	case ir.PredNE:
		return left != right, nil
	}
	a, b := left.(int32), right.(int32)
	switch pred {
	case ir.PredSGT:
		return a > b, nil
	case ir.PredSGE:
		return a >= b, nil
	case ir.PredSLT:
		return a < b, nil
	case ir.PredSLE:
		return a <= b, nil
	}
	return nil, f.fail("unknown predicate %s", pred)
}

func convert(f *frame, in *ir.Convert, v interface{}) (interface{}, error) {
	switch in.Op {
	case ir.OpSIToFP:
		return float64(v.(int32)), nil
	case ir.OpFPToSI:
		return int32(v.(float64)), nil
	case ir.OpBitCast:
		p, ok := v.(Pointer)
		if !ok {
			return v, nil
		}
		// a raw allocation gets its cells once its element type is known
		if p.obj != nil && p.obj.cells == nil {
			p.obj.cells = make([]interface{}, p.obj.count*cellCount(types.Elem(in.Dest.Type)))
		}
		return p, nil
	}
	return nil, f.fail("unknown conversion %s", in.Op)
}
