package symtab

import (
	"fmt"
	"strings"

	"github.com/hassan/minic/internal/ir"
)

// ScopeKind represents the kind of scope.
type ScopeKind int

const (
	// ScopeProgram is the scope of the program body (the main function)
	ScopeProgram ScopeKind = iota

	// ScopeFunction is a nested function's scope
	ScopeFunction
)

// String returns a human-readable representation of the scope kind.
func (sk ScopeKind) String() string {
	switch sk {
	case ScopeProgram:
		return "program"
	case ScopeFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Scope is the symbol table of one function being lowered.
//
// EXAMPLE:
//   program demo;                  // program scope: a
//     declare a integer;
//     function f(n integer) integer;   // function scope: n, b (a is NOT visible)
//       declare b integer;
//     end;
//   end
//
// DESIGN CHOICE: Scopes are isolated rather than chained to a parent because
// a nested function cannot reach its enclosing function's stack slots.
type Scope struct {
	// Kind is the kind of scope
	Kind ScopeKind

	// Function is the IR function whose locals live here
	Function *ir.Function

	// Symbols maps names to their symbols in this scope
	Symbols map[string]*Symbol

	// order keeps declaration order for dumps
	order []*Symbol

	// Depth is the function nesting depth (0 for the program)
	Depth int
}

// NewScope creates an empty scope for fn.
func NewScope(kind ScopeKind, fn *ir.Function, depth int) *Scope {
	return &Scope{
		Kind:     kind,
		Function: fn,
		Symbols:  make(map[string]*Symbol),
		order:    make([]*Symbol, 0),
		Depth:    depth,
	}
}

// Define adds a symbol to this scope.
//
// RETURNS:
// - nil if successful
// - error if a symbol with the same name already exists
func (s *Scope) Define(symbol *Symbol) error {
	if existing, ok := s.Symbols[symbol.Name]; ok {
		return fmt.Errorf("symbol %s already declared at %s",
			symbol.Name, existing.Pos.String())
	}

	s.Symbols[symbol.Name] = symbol
	symbol.Scope = s
	symbol.Index = len(s.order)
	s.order = append(s.order, symbol)

	return nil
}

// Lookup finds a symbol by name in this scope only and marks it used.
func (s *Scope) Lookup(name string) *Symbol {
	if symbol, ok := s.Symbols[name]; ok {
		symbol.MarkUsed()
		return symbol
	}
	return nil
}

// LocalSymbols returns the symbols in declaration order.
func (s *Scope) LocalSymbols() []*Symbol {
	out := make([]*Symbol, len(s.order))
	copy(out, s.order)
	return out
}

// UnusedSymbols returns the symbols that were never referenced.
func (s *Scope) UnusedSymbols() []*Symbol {
	unused := make([]*Symbol, 0)
	for _, symbol := range s.order {
		if !symbol.Used {
			unused = append(unused, symbol)
		}
	}
	return unused
}

// String returns the scope kind, owner, depth, and number of symbols.
func (s *Scope) String() string {
	name := "<none>"
	if s.Function != nil {
		name = s.Function.Name
	}
	return fmt.Sprintf("%s scope %s (depth %d, %d symbols)",
		s.Kind.String(), name, s.Depth, len(s.Symbols))
}

// DebugString returns the scope header, one line per symbol, and the
// names that were declared but never referenced.
//
// EXAMPLE OUTPUT:
//   function scope f (depth 1, 2 symbols)
//     parameter n: i32 at demo.mini:4:14
//     variable b: i32 at demo.mini:5:13
//     unused: b
func (s *Scope) DebugString() string {
	var sb strings.Builder
	sb.WriteString(s.String())
	sb.WriteString("\n")
	for _, symbol := range s.order {
		sb.WriteString("  ")
		sb.WriteString(symbol.String())
		sb.WriteString("\n")
	}
	if unused := s.UnusedSymbols(); len(unused) > 0 {
		names := make([]string, len(unused))
		for i, symbol := range unused {
			names[i] = symbol.Name
		}
		sb.WriteString("  unused: ")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}
