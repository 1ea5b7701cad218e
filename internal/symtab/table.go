package symtab

import (
	"fmt"
	"io"

	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
)

// NamedType is the binding created by a type declaration.
// The tree is kept rather than a resolved type so that every declaration
// using the name gets its own storage and initialization code.
type NamedType struct {
	Name string
	Tree ast.Expr
	Pos  lexer.Position
}

// Table is the symbol manager.
//
// USAGE:
//   tab := symtab.New(nil)
//   tab.PushFunction(mainFn)
//   tab.Insert(&symtab.Symbol{Name: "a", ...})
//   sym := tab.Find("a")
//   tab.PopFunction()
//
// The top of the scope stack is the function currently being lowered.
type Table struct {
	scopes    []*Scope
	functions map[string]*ir.Function
	fields    map[string]int
	named     map[string]*NamedType

	// verbose receives a dump of every scope when it is popped (nil = off)
	verbose io.Writer
}

// New creates an empty table. A non-nil verbose writer receives scope dumps.
func New(verbose io.Writer) *Table {
	return &Table{
		scopes:    make([]*Scope, 0),
		functions: make(map[string]*ir.Function),
		fields:    make(map[string]int),
		named:     make(map[string]*NamedType),
		verbose:   verbose,
	}
}

// PushFunction opens a fresh, empty scope for fn.
func (t *Table) PushFunction(fn *ir.Function) *Scope {
	kind := ScopeFunction
	if len(t.scopes) == 0 {
		kind = ScopeProgram
	}
	scope := NewScope(kind, fn, len(t.scopes))
	t.scopes = append(t.scopes, scope)
	return scope
}

// PopFunction removes the innermost scope and all its bindings.
// Popping an empty stack panics: it means lowering lost track of nesting.
func (t *Table) PopFunction() *Scope {
	if len(t.scopes) == 0 {
		panic("symtab: pop of empty scope stack")
	}
	scope := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	if t.verbose != nil {
		fmt.Fprint(t.verbose, scope.DebugString())
	}
	return scope
}

// Depth returns the number of active scopes.
func (t *Table) Depth() int {
	return len(t.scopes)
}

// Current returns the innermost scope, or nil.
func (t *Table) Current() *Scope {
	if len(t.scopes) == 0 {
		return nil
	}
	return t.scopes[len(t.scopes)-1]
}

// CurrentFunction returns the function whose scope is on top, or nil.
func (t *Table) CurrentFunction() *ir.Function {
	if s := t.Current(); s != nil {
		return s.Function
	}
	return nil
}

// Insert binds a symbol in the current scope.
// Returns false if the name is already bound there.
func (t *Table) Insert(symbol *Symbol) bool {
	scope := t.Current()
	if scope == nil {
		return false
	}
	return scope.Define(symbol) == nil
}

// Find resolves a name in the current function only.
func (t *Table) Find(name string) *Symbol {
	scope := t.Current()
	if scope == nil {
		return nil
	}
	return scope.Lookup(name)
}

// InsertFunction records a function definition.
// Functions are write-once: returns false on redefinition.
func (t *Table) InsertFunction(name string, fn *ir.Function) bool {
	if _, ok := t.functions[name]; ok {
		return false
	}
	t.functions[name] = fn
	return true
}

// FindFunction resolves a function name.
func (t *Table) FindFunction(name string) *ir.Function {
	return t.functions[name]
}

// InsertField records the offset constant for a qualified field name
// ("struct_main_1.x"). Returns false if already recorded.
func (t *Table) InsertField(qualified string, offset int) bool {
	if _, ok := t.fields[qualified]; ok {
		return false
	}
	t.fields[qualified] = offset
	return true
}

// FindField returns the offset recorded for a qualified field name.
func (t *Table) FindField(qualified string) (int, bool) {
	off, ok := t.fields[qualified]
	return off, ok
}

// InsertType binds a named type. Returns false on redefinition.
func (t *Table) InsertType(nt *NamedType) bool {
	if _, ok := t.named[nt.Name]; ok {
		return false
	}
	t.named[nt.Name] = nt
	return true
}

// FindType resolves a type name.
func (t *Table) FindType(name string) *NamedType {
	return t.named[name]
}
