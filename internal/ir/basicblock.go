package ir

import (
	"fmt"
	"strings"

	"github.com/hassan/minic/internal/semantic/types"
)

// BasicBlock represents a sequence of instructions with single entry and exit.
//
// WHAT IS A BASIC BLOCK?
// A basic block is a straight-line code sequence with:
// - One entry point (the first instruction)
// - One exit point (a jump, branch or return)
// - No jumps in or out in the middle
//
// The lowering core creates blocks by role (then, else, ifcont, loop_body,
// over_jump, ...); labels are made unique per function.
type BasicBlock struct {
	// Label is the unique name of this block inside its function
	Label string

	// Instructions in this block (in order)
	Instructions []Instruction

	// Successors are blocks that can execute after this one
	Successors []*BasicBlock

	// Predecessors are blocks that can jump to this one
	Predecessors []*BasicBlock

	// Parent is the function that owns this block
	Parent *Function

	// Index is the position in the function's block list
	Index int
}

// NewBasicBlock creates a detached basic block with the given label.
func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{
		Label:        label,
		Instructions: make([]Instruction, 0),
		Successors:   make([]*BasicBlock, 0),
		Predecessors: make([]*BasicBlock, 0),
	}
}

// AddInstruction adds an instruction to the end of this block.
func (bb *BasicBlock) AddInstruction(instr Instruction) {
	bb.Instructions = append(bb.Instructions, instr)
}

// AddSuccessor adds a successor block and updates its predecessor list.
func (bb *BasicBlock) AddSuccessor(succ *BasicBlock) {
	for _, s := range bb.Successors {
		if s == succ {
			return
		}
	}

	bb.Successors = append(bb.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, bb)
}

// Terminator returns the last instruction if it is a jump, branch or return.
func (bb *BasicBlock) Terminator() Instruction {
	if len(bb.Instructions) == 0 {
		return nil
	}
	last := bb.Instructions[len(bb.Instructions)-1]

	switch last.(type) {
	case *Jump, *Branch, *Return:
		return last
	default:
		return nil
	}
}

// IsTerminated returns true if this block has a terminator instruction.
func (bb *BasicBlock) IsTerminated() bool {
	return bb.Terminator() != nil
}

// String returns a human-readable representation of the basic block.
func (bb *BasicBlock) String() string {
	var sb strings.Builder

	sb.WriteString(bb.Label)
	sb.WriteString(":")

	if len(bb.Predecessors) > 0 {
		sb.WriteString("  ; preds: ")
		for i, pred := range bb.Predecessors {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(pred.Label)
		}
	}
	sb.WriteString("\n")

	for _, instr := range bb.Instructions {
		sb.WriteString("  ")
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

// Function represents a function in IR.
//
// A function with External set has no blocks: it is a runtime-library entry
// the module only declares.
type Function struct {
	// Name is the function name
	Name string

	// Parameters are the incoming values, in order
	Parameters []*Value

	// ReturnType is the function's return type (types.Void for procedures)
	ReturnType types.Type

	// Blocks are all basic blocks in this function; the first is the entry
	Blocks []*BasicBlock

	// Entry is the entry basic block (nil for external functions)
	Entry *BasicBlock

	// External marks a declaration without a body
	External bool

	// Private marks a function only visible inside the module
	Private bool

	nextValueID int
	labels      map[string]int
}

// NewFunction creates a function with an entry block.
func NewFunction(name string, returnType types.Type, params ...*Value) *Function {
	fn := &Function{
		Name:       name,
		Parameters: params,
		ReturnType: returnType,
		Blocks:     make([]*BasicBlock, 0),
		labels:     make(map[string]int),
	}
	for i, p := range params {
		p.ID = i
		p.Kind = ValueParameter
	}
	fn.nextValueID = len(params)
	fn.Entry = fn.NewBasicBlockInFunc("entry")
	return fn
}

// NewExternalFunction creates a body-less declaration.
func NewExternalFunction(name string, returnType types.Type, params ...types.Type) *Function {
	values := make([]*Value, len(params))
	for i, t := range params {
		values[i] = &Value{ID: i, Type: t, Kind: ValueParameter, Name: fmt.Sprintf("p%d", i)}
	}
	return &Function{
		Name:       name,
		Parameters: values,
		ReturnType: returnType,
		External:   true,
		labels:     make(map[string]int),
	}
}

// Signature returns the function type.
func (f *Function) Signature() *types.FunctionType {
	params := make([]types.Type, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.Type
	}
	return types.NewFunction(f.ReturnType, params...)
}

// NewBasicBlockInFunc creates a new basic block and adds it to the function.
// Repeated labels get a numeric suffix: then, then.1, then.2, ...
func (f *Function) NewBasicBlockInFunc(label string) *BasicBlock {
	unique := label
	if n, ok := f.labels[label]; ok {
		unique = fmt.Sprintf("%s.%d", label, n)
		f.labels[label] = n + 1
	} else {
		f.labels[label] = 1
	}

	bb := NewBasicBlock(unique)
	bb.Parent = f
	bb.Index = len(f.Blocks)
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// NewValue creates a new value with a unique ID.
func (f *Function) NewValue(name string, typ types.Type, kind ValueKind) *Value {
	v := &Value{
		ID:   f.nextValueID,
		Name: name,
		Type: typ,
		Kind: kind,
	}
	f.nextValueID++
	return v
}

// NewTemp creates a new temporary value.
func (f *Function) NewTemp(typ types.Type) *Value {
	return f.NewValue("", typ, ValueTemporary)
}

// String returns a human-readable representation of the function.
func (f *Function) String() string {
	var sb strings.Builder

	if f.External {
		sb.WriteString("declare ")
	} else {
		sb.WriteString("define ")
	}
	if f.Private {
		sb.WriteString("private ")
	}
	sb.WriteString(f.ReturnType.String())
	sb.WriteString(" @")
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, param := range f.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(param.Type.String())
		if !f.External {
			sb.WriteString(" ")
			sb.WriteString(param.String())
		}
	}
	sb.WriteString(")")

	if f.External {
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(" {\n")
	for i, block := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Module represents a compilation unit: one program with its functions,
// string constants and named structure types.
type Module struct {
	// Name is the program name
	Name string

	// Functions are all functions in this module, declarations first
	Functions []*Function

	// Globals are the string constants (Kind == ValueGlobal)
	Globals []*Value

	// Structs are the named structure types, in creation order
	Structs []*types.StructType
}

// NewModule creates a new module.
func NewModule(name string) *Module {
	return &Module{
		Name:      name,
		Functions: make([]*Function, 0),
		Globals:   make([]*Value, 0),
		Structs:   make([]*types.StructType, 0),
	}
}

// AddFunction adds a function to the module.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
}

// AddStruct records a named structure type.
func (m *Module) AddStruct(st *types.StructType) {
	m.Structs = append(m.Structs, st)
}

// Function looks a function up by name.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// String returns a human-readable representation of the module.
func (m *Module) String() string {
	var sb strings.Builder

	sb.WriteString("; module ")
	sb.WriteString(m.Name)
	sb.WriteString("\n\n")

	for _, st := range m.Structs {
		fmt.Fprintf(&sb, "%s = type %s\n", st, st.Body())
	}
	if len(m.Structs) > 0 {
		sb.WriteString("\n")
	}

	for _, global := range m.Globals {
		fmt.Fprintf(&sb, "%s = constant %q\n", global, global.Constant)
	}
	if len(m.Globals) > 0 {
		sb.WriteString("\n")
	}

	for _, fn := range m.Functions {
		sb.WriteString(fn.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

// Verify checks that the IR is well-formed.
// Returns a list of errors found.
//
// CHECKS:
// - Every block ends with a terminator, and only there
// - The entry block has no predecessors
// - No instruction reads a missing operand
// - Branch targets belong to the same function
// - Calls pass as many arguments as the callee takes
func (m *Module) Verify() []error {
	errors := make([]error, 0)

	for _, fn := range m.Functions {
		if fn.External {
			continue
		}

		if len(fn.Entry.Predecessors) > 0 {
			errors = append(errors, fmt.Errorf(
				"entry block of function %s has predecessors", fn.Name))
		}

		for _, block := range fn.Blocks {
			if !block.IsTerminated() {
				errors = append(errors, fmt.Errorf(
					"block %s in function %s has no terminator", block.Label, fn.Name))
			}

			for i, instr := range block.Instructions {
				if i < len(block.Instructions)-1 && isTerminator(instr) {
					errors = append(errors, fmt.Errorf(
						"block %s in function %s has a terminator before its end", block.Label, fn.Name))
				}
				for _, op := range instr.Operands() {
					if op == nil {
						errors = append(errors, fmt.Errorf(
							"%s in %s.%s reads a missing operand", instr, fn.Name, block.Label))
					}
				}
				errors = append(errors, verifyTargets(fn, block, instr)...)
				if call, ok := instr.(*Call); ok && len(call.Args) != len(call.Callee.Parameters) {
					errors = append(errors, fmt.Errorf(
						"call to %s in %s.%s passes %d arguments, want %d",
						call.Callee.Name, fn.Name, block.Label, len(call.Args), len(call.Callee.Parameters)))
				}
			}
		}
	}

	return errors
}

func isTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *Jump, *Branch, *Return:
		return true
	}
	return false
}

func verifyTargets(fn *Function, block *BasicBlock, instr Instruction) []error {
	var targets []*BasicBlock
	switch t := instr.(type) {
	case *Jump:
		targets = []*BasicBlock{t.Target}
	case *Branch:
		targets = []*BasicBlock{t.TrueBlock, t.FalseBlock}
	}

	var errs []error
	for _, target := range targets {
		if target.Parent != fn {
			errs = append(errs, fmt.Errorf(
				"block %s in function %s branches to foreign block %s", block.Label, fn.Name, target.Label))
		}
	}
	return errs
}
