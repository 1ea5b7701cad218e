// Package semantic lowers a mini syntax tree into IR.
//
// LOWERING:
// The syntax tree is correct syntactically, but names, types and layouts
// are still unresolved. Lowering resolves them and emits IR in the same
// walk:
// 1. Type descriptions become types, arrays become descriptors with
//    initialization code, structures get a field-offset table
// 2. Names are bound per function in the symbol manager
// 3. Expressions become loads, arithmetic, calls and address computations
// 4. Conditionals, loops, labels and nested functions become basic blocks
//
// DESIGN PHILOSOPHY:
// - Collect all errors, don't stop at the first one: a resolution error is
//   logged and a nil placeholder value is returned so the walk goes on
// - A broken tree (a missing child, a frame ended out of order) is not a
//   user error; it panics with *ContractError and Lower returns it
// - All state of one compilation unit lives in the Lowerer
//
// USAGE:
//   b := ir.NewBuilder("demo")
//   module, err := semantic.New(b, semantic.WithVerbose(os.Stderr)).Lower(prog)
package semantic

import (
	"errors"
	"fmt"
	"io"

	"github.com/hassan/minic/internal/diag"
	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
	"github.com/hassan/minic/internal/semantic/types"
	"github.com/hassan/minic/internal/symtab"
)

// Builder is the IR builder the lowering core drives.
type Builder interface {
	Module() *ir.Module
	NewFunction(name string, ret types.Type, params ...*ir.Value) *ir.Function
	DeclareFunction(name string, ret types.Type, params ...types.Type) *ir.Function
	DefineStruct(st *types.StructType)
	CreateBlock(fn *ir.Function, name string) *ir.BasicBlock
	SetInsertPoint(block *ir.BasicBlock)
	InsertBlock() *ir.BasicBlock

	Alloca(t types.Type, name string) *ir.Value
	Load(t types.Type, address *ir.Value) *ir.Value
	Store(value, address *ir.Value)
	Binary(op ir.BinaryOperator, left, right *ir.Value) *ir.Value
	Compare(pred ir.Predicate, left, right *ir.Value) *ir.Value
	Unary(op ir.UnaryOperator, operand *ir.Value) *ir.Value
	Convert(op ir.ConvertOperator, value *ir.Value, to types.Type) *ir.Value
	ElementAddress(elem types.Type, base, index *ir.Value) *ir.Value
	FieldAddress(st *types.StructType, base *ir.Value, field int) *ir.Value
	Call(callee *ir.Function, args []*ir.Value) *ir.Value
	GlobalString(text string) *ir.Value

	Branch(target *ir.BasicBlock)
	CondBranch(cond *ir.Value, then, otherwise *ir.BasicBlock)
	Return(value *ir.Value)
}

var _ Builder = (*ir.Builder)(nil)

// Emitter receives the module of a unit that lowered without errors.
type Emitter interface {
	Emit(m *ir.Module) error
}

// EmitterFunc adapts a function to an Emitter.
type EmitterFunc func(m *ir.Module) error

// Emit calls f(m).
func (f EmitterFunc) Emit(m *ir.Module) error { return f(m) }

// Option configures a Lowerer.
type Option func(*Lowerer)

// WithVerbose traces declarations and dumps every scope when it is popped.
func WithVerbose(w io.Writer) Option {
	return func(l *Lowerer) { l.verbose = w }
}

// WithDiagnostics records errors into log instead of a private one.
func WithDiagnostics(log *diag.Log) Option {
	return func(l *Lowerer) { l.log = log }
}

// WithEmitter hands the finished module to e.
func WithEmitter(e Emitter) Option {
	return func(l *Lowerer) { l.emitter = e }
}

// Lowerer holds the state of lowering one compilation unit.
type Lowerer struct {
	b       Builder
	log     *diag.Log
	symbols *symtab.Table
	verbose io.Writer
	emitter Emitter

	// runtime library declarations by name
	runtime map[string]*ir.Function

	// array descriptors and their element metadata
	layouts map[*types.StructType]*ArrayLayout

	// dim is the {low, high, stride} record shared by all descriptors
	dim *types.StructType

	// serial numbers synthesized structure and descriptor names
	serial int

	// named types being expanded, to stop self-referencing definitions
	expanding map[string]bool

	// coordination stacks; each is popped only by the frame that pushed
	conds  []*CondFrame
	loops  []*LoopFrame
	labels []*LabelFrame
	funcs  []*FunctionFrame

	main *ir.Function
	used bool
}

// New creates a Lowerer emitting through b.
func New(b Builder, opts ...Option) *Lowerer {
	l := &Lowerer{
		b:         b,
		runtime:   make(map[string]*ir.Function),
		layouts:   make(map[*types.StructType]*ArrayLayout),
		expanding: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = diag.New(nil)
	}
	l.symbols = symtab.New(l.verbose)
	return l
}

// Diagnostics returns the error log of the unit.
func (l *Lowerer) Diagnostics() *diag.Log {
	return l.log
}

// Symbols returns the symbol manager.
func (l *Lowerer) Symbols() *symtab.Table {
	return l.symbols
}

// Lower lowers a whole program into the builder's module.
//
// The program body becomes function main, returning 0. When no error was
// recorded the module is pruned of unreachable blocks, verified, handed to
// the emitter, and returned. Otherwise the result is nil and the error
// joins every diagnostic.
func (l *Lowerer) Lower(prog *ast.Program) (module *ir.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*ContractError)
			if !ok {
				panic(r)
			}
			module, err = nil, ce
		}
	}()

	if l.used {
		panic(violation(lexer.Position{}, "lowerer already used for another unit"))
	}
	l.used = true
	if prog == nil {
		panic(violation(lexer.Position{}, "missing program"))
	}

	l.begin(prog)
	l.lowerBody(prog.Body)
	l.end(prog)

	if l.log.Count() > 0 {
		return nil, l.log.Err()
	}

	module = l.b.Module()
	module.Prune()
	if errs := module.Verify(); len(errs) > 0 {
		return nil, fmt.Errorf("module %s is malformed: %w", module.Name, errors.Join(errs...))
	}

	if l.emitter != nil {
		if err := l.emitter.Emit(module); err != nil {
			return nil, err
		}
	}
	return module, nil
}

// begin declares the runtime library and opens main.
func (l *Lowerer) begin(prog *ast.Program) {
	l.b.Module().Name = prog.Name
	for _, entry := range ir.Runtime {
		l.runtime[entry.Name] = l.b.DeclareFunction(entry.Name, entry.Result, entry.Params...)
	}

	l.main = l.b.NewFunction("main", types.Int)
	l.symbols.PushFunction(l.main)
	l.b.SetInsertPoint(l.main.Entry)
	l.trace("program %s", prog.Name)
}

// end closes main with "return 0".
func (l *Lowerer) end(prog *ast.Program) {
	if n := len(l.conds) + len(l.loops) + len(l.labels) + len(l.funcs); n != 0 {
		panic(violation(prog.Pos(), "%d control-flow frames still open at end of program", n))
	}
	l.b.Return(ir.ConstInt(0))
	l.symbols.PopFunction()
}

func (l *Lowerer) errorf(pos lexer.Position, format string, args ...interface{}) {
	l.log.Errorf(pos, format, args...)
}

func (l *Lowerer) trace(format string, args ...interface{}) {
	if l.verbose != nil {
		fmt.Fprintf(l.verbose, format+"\n", args...)
	}
}

func (l *Lowerer) currentFunction() *ir.Function {
	fn := l.symbols.CurrentFunction()
	if fn == nil {
		panic(violation(lexer.Position{}, "no function is being lowered"))
	}
	return fn
}
