// Package symtab implements symbol table management for the lowering core.
//
// DESIGN PHILOSOPHY:
// Mini has three separate namespaces:
// 1. Variables and parameters, scoped per function
// 2. Functions, one global write-once table
// 3. Field-offset constants and named types, global
//
// KEY DESIGN CHOICES:
// - No shadowing across nested functions: a nested function starts with an
//   empty scope plus its own parameters, and lookups never walk outward
// - A symbol carries its storage handle (an IR address, or the parameter
//   value itself) so lowering never has to re-derive it
// - Redeclaration is reported by the caller; the table only says no
package symtab

import (
	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/semantic/types"
)

// SymbolKind represents the kind of symbol.
type SymbolKind int

const (
	// SymbolVariable is a declared variable; its handle is an address.
	SymbolVariable SymbolKind = iota

	// SymbolParameter is a function parameter; its handle is the incoming
	// value, used directly instead of being loaded.
	SymbolParameter

	// SymbolFunction is a function or procedure.
	SymbolFunction

	// SymbolType is a named type from a type declaration.
	SymbolType

	// SymbolField is a field-offset constant ("struct.field").
	SymbolField
)

// String returns a human-readable representation of the symbol kind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolType:
		return "type"
	case SymbolField:
		return "field"
	default:
		return "unknown"
	}
}

// Symbol represents a named entity visible to the lowering core.
type Symbol struct {
	// Name is the symbol's identifier
	Name string

	// Kind is what kind of symbol this is
	Kind SymbolKind

	// Type is the declared type of the stored value (not of the handle)
	Type types.Type

	// Pos is where this symbol was declared
	Pos lexer.Position

	// Scope is the scope where this symbol was declared
	Scope *Scope

	// Handle is the storage location: the alloca for variables, the
	// parameter value for parameters
	Handle *ir.Value

	// Used tracks if this symbol has been referenced
	Used bool

	// Index is the declaration order inside the scope
	Index int
}

// String returns a human-readable representation of the symbol.
// Format: "kind name: type at position"
// Example: "variable x: i32 at demo.mini:3:9"
func (s *Symbol) String() string {
	typ := "<none>"
	if s.Type != nil {
		typ = s.Type.String()
	}
	return s.Kind.String() + " " + s.Name + ": " + typ + " at " + s.Pos.String()
}

// CanAssign reports whether the symbol names a storage location.
// Parameters arrive as values, not addresses, so they cannot be stored to.
func (s *Symbol) CanAssign() bool {
	return s.Kind == SymbolVariable
}

// Addressable reports whether the handle must be loaded to get the value.
func (s *Symbol) Addressable() bool {
	return s.Kind == SymbolVariable
}

// MarkUsed marks this symbol as used.
func (s *Symbol) MarkUsed() {
	s.Used = true
}
