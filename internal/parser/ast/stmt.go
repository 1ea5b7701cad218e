package ast

import (
	"strings"

	"github.com/hassan/minic/internal/lexer"
)

// Statement nodes. Show renders the statement header only (no nested
// bodies), which is what diagnostics and listings need.

// Program is the root: program name; body end.
type Program struct {
	At   lexer.Position
	Name string
	Body []Stmt
}

func (p *Program) Pos() lexer.Position { return p.At }
func (p *Program) Show() string        { return "program " + p.Name + ";" }
func (p *Program) stmtNode()           {}

// DeclareStmt declares one or more variables of one type:
// declare a, b integer;
type DeclareStmt struct {
	At    lexer.Position
	Names []*Ident
	Type  Expr
}

func (d *DeclareStmt) Pos() lexer.Position { return d.At }
func (d *DeclareStmt) Show() string {
	return "declare " + joinIdents(d.Names) + " " + show(d.Type) + ";"
}
func (d *DeclareStmt) stmtNode() {}

// TypeStmt binds a type name: type point structure (x real, y real);
type TypeStmt struct {
	At   lexer.Position
	Name *Ident
	Type Expr
}

func (t *TypeStmt) Pos() lexer.Position { return t.At }
func (t *TypeStmt) Show() string        { return "type " + t.Name.Name + " " + show(t.Type) + ";" }
func (t *TypeStmt) stmtNode()           {}

// AssignStmt stores one value into one or more targets:
// set a := b := 2 + 3;
// Targets are in source order; each is an lvalue expression.
type AssignStmt struct {
	At      lexer.Position
	Targets []Expr
	Value   Expr
}

func (a *AssignStmt) Pos() lexer.Position { return a.At }
func (a *AssignStmt) Show() string {
	var sb strings.Builder
	sb.WriteString("set ")
	for _, t := range a.Targets {
		sb.WriteString(show(t))
		sb.WriteString(" := ")
	}
	sb.WriteString(show(a.Value))
	sb.WriteString(";")
	return sb.String()
}
func (a *AssignStmt) stmtNode() {}

// OutputStmt prints its items; Newline is set for outputln.
type OutputStmt struct {
	At      lexer.Position
	Items   []Expr
	Newline bool
}

func (o *OutputStmt) Pos() lexer.Position { return o.At }
func (o *OutputStmt) Show() string {
	kw := "output"
	if o.Newline {
		kw = "outputln"
	}
	if len(o.Items) == 0 {
		return kw + ";"
	}
	return kw + " " + joinExprs(o.Items) + ";"
}
func (o *OutputStmt) stmtNode() {}

// IfStmt is if cond then ... [else ...] fi;
type IfStmt struct {
	At   lexer.Position
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when there is no else part
}

func (i *IfStmt) Pos() lexer.Position { return i.At }
func (i *IfStmt) Show() string        { return "if " + show(i.Cond) + " then" }
func (i *IfStmt) stmtNode()           {}

// ForStmt is the counted loop:
// for target := init [by step] [to bound] [while guard] do ... end;
// By, To and While are nil when absent.
type ForStmt struct {
	At     lexer.Position
	Target Expr
	Init   Expr
	By     Expr
	To     Expr
	While  Expr
	Body   []Stmt
}

func (f *ForStmt) Pos() lexer.Position { return f.At }
func (f *ForStmt) Show() string {
	var sb strings.Builder
	sb.WriteString("for ")
	sb.WriteString(show(f.Target))
	sb.WriteString(" := ")
	sb.WriteString(show(f.Init))
	if f.By != nil {
		sb.WriteString(" by ")
		sb.WriteString(f.By.Show())
	}
	if f.To != nil {
		sb.WriteString(" to ")
		sb.WriteString(f.To.Show())
	}
	if f.While != nil {
		sb.WriteString(" while ")
		sb.WriteString(f.While.Show())
	}
	sb.WriteString(" do")
	return sb.String()
}
func (f *ForStmt) stmtNode() {}

// LabelStmt names a loop or a block so repeat and repent can target it.
//
//	label outer for i := 1 to 3 do ... end;   Loop set, Body nil
//	label blk do ... end;                     Loop nil, Body set
type LabelStmt struct {
	At   lexer.Position
	Name *Ident
	Loop *ForStmt
	Body []Stmt
}

func (l *LabelStmt) Pos() lexer.Position { return l.At }
func (l *LabelStmt) Show() string {
	if l.Loop != nil {
		return "label " + l.Name.Name + " " + l.Loop.Show()
	}
	return "label " + l.Name.Name + " do"
}
func (l *LabelStmt) stmtNode() {}

// RepeatStmt jumps back to the head of a labelled construct.
type RepeatStmt struct {
	At    lexer.Position
	Label *Ident
}

func (r *RepeatStmt) Pos() lexer.Position { return r.At }
func (r *RepeatStmt) Show() string        { return "repeat " + r.Label.Name + ";" }
func (r *RepeatStmt) stmtNode()           {}

// RepentStmt leaves a labelled construct.
type RepentStmt struct {
	At    lexer.Position
	Label *Ident
}

func (r *RepentStmt) Pos() lexer.Position { return r.At }
func (r *RepentStmt) Show() string        { return "repent " + r.Label.Name + ";" }
func (r *RepentStmt) stmtNode()           {}

// Param is one formal parameter.
type Param struct {
	Name *Ident
	Type Expr
}

// FunctionStmt defines a function (Result set) or a procedure (Result nil).
type FunctionStmt struct {
	At     lexer.Position
	Name   *Ident
	Params []*Param
	Result Expr
	Body   []Stmt
}

// IsProcedure reports whether the definition returns no value.
func (f *FunctionStmt) IsProcedure() bool { return f.Result == nil }

func (f *FunctionStmt) Pos() lexer.Position { return f.At }
func (f *FunctionStmt) Show() string {
	var sb strings.Builder
	if f.IsProcedure() {
		sb.WriteString("procedure ")
	} else {
		sb.WriteString("function ")
	}
	sb.WriteString(f.Name.Name)
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name.Name)
		sb.WriteString(" ")
		sb.WriteString(show(p.Type))
	}
	sb.WriteString(")")
	if !f.IsProcedure() {
		sb.WriteString(" ")
		sb.WriteString(f.Result.Show())
	}
	sb.WriteString(";")
	return sb.String()
}
func (f *FunctionStmt) stmtNode() {}

// ReturnStmt returns from the enclosing function; Value is nil in
// procedures.
type ReturnStmt struct {
	At    lexer.Position
	Value Expr
}

func (r *ReturnStmt) Pos() lexer.Position { return r.At }
func (r *ReturnStmt) Show() string {
	if r.Value == nil {
		return "return;"
	}
	return "return " + r.Value.Show() + ";"
}
func (r *ReturnStmt) stmtNode() {}

// CallStmt calls a procedure (or a function, discarding its value).
// Call is a Binary{Op: Call} node.
type CallStmt struct {
	At   lexer.Position
	Call *Binary
}

func (c *CallStmt) Pos() lexer.Position { return c.At }
func (c *CallStmt) Show() string        { return "call " + c.Call.Show() + ";" }
func (c *CallStmt) stmtNode()           {}

func joinIdents(ids []*Ident) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return strings.Join(names, ", ")
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = show(e)
	}
	return strings.Join(parts, ", ")
}
