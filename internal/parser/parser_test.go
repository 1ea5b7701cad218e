package parser

import (
	"strings"
	"testing"

	"github.com/hassan/minic/internal/parser/ast"
)

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, errs := Parse(source, "test.mini")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	return prog
}

func parseValue(t *testing.T, expr string) ast.Expr {
	t.Helper()
	prog := mustParse(t, "program t; set x := "+expr+"; end")
	return prog.Body[0].(*ast.AssignStmt).Value
}

func TestParser_ExpressionPrecedence(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3", "1 + (2 * 3)"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"1 - 2 - 3", "(1 - 2) - 3"},
		{"a or b and c", "a or (b and c)"},
		{"a + 1 < b * 2", "(a + 1) < (b * 2)"},
		{"a < b = c", "(a < b) = c"},
		{"-a[1].x", "-a[1].x"},
		{"fix 2.5 + 1", "fix 2.5 + 1"},
		{"float n / 2", "float n / 2"},
		{"f(1, 2) - 3", "f(1, 2) - 3"},
		{"g()", "g()"},
		{"m[i, j]", "m[i, j]"},
		{"m[i][j]", "m[i][j]"},
		{"a <> b", "a <> b"},
		{`"hi"`, `"hi"`},
		{"2.5", "2.5"},
		{"true", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := parseValue(t, tt.source).Show(); got != tt.want {
				t.Errorf("Show() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParser_Literals(t *testing.T) {
	if lit, ok := parseValue(t, "42").(*ast.IntLit); !ok || lit.Value != 42 {
		t.Errorf("42 parsed as %#v", parseValue(t, "42"))
	}
	if lit, ok := parseValue(t, "1e3").(*ast.RealLit); !ok || lit.Value != 1000 {
		t.Errorf("1e3 parsed as %#v", parseValue(t, "1e3"))
	}
	if lit, ok := parseValue(t, "false").(*ast.BoolLit); !ok || lit.Value {
		t.Errorf("false parsed as %#v", parseValue(t, "false"))
	}

	text, ok := parseValue(t, `"a\tb"`).(*ast.TextLit)
	if !ok {
		t.Fatal("expected a text literal")
	}
	if text.Value != "a\tb" || text.Length != 3 {
		t.Errorf("text = %q (length %d)", text.Value, text.Length)
	}
}

func TestParser_IndexAndCallShape(t *testing.T) {
	index := parseValue(t, "a[1, 2]").(*ast.Binary)
	if index.Op != ast.Index {
		t.Fatalf("op = %v, want []", index.Op)
	}
	if n := len(ast.Flatten(index.Right)); n != 2 {
		t.Errorf("expected 2 indices, got %d", n)
	}

	call := parseValue(t, "f(x, y + 1, 3)").(*ast.Binary)
	if call.Op != ast.Call {
		t.Fatalf("op = %v, want ()", call.Op)
	}
	if id, ok := call.Left.(*ast.Ident); !ok || id.Name != "f" {
		t.Errorf("callee = %v", call.Left)
	}
	if n := len(ast.Flatten(call.Right)); n != 3 {
		t.Errorf("expected 3 arguments, got %d", n)
	}
}

func TestParser_Statements(t *testing.T) {
	source := `program demo;
  declare a, b integer;
  type point structure (x real, y real);
  declare grid array [1, 3][4] of point;
  set a := b := 2 + 3;
  output a, "done";
  outputln;
  if a > b then output a; else output b; fi;
  for a := 1 by 2 to 10 while b < 5 do output a; end;
  label outer for b := 1 to 3 do repeat outer; end;
  label blk do repent blk; end;
  function sq(n integer) integer;
    return n * n;
  end;
  procedure show(v real);
    output v;
  end;
  call show(1.5);
end.`

	prog := mustParse(t, source)
	if prog.Name != "demo" {
		t.Errorf("program name = %q", prog.Name)
	}

	wantKinds := []string{
		"*ast.DeclareStmt", "*ast.TypeStmt", "*ast.DeclareStmt", "*ast.AssignStmt",
		"*ast.OutputStmt", "*ast.OutputStmt", "*ast.IfStmt", "*ast.ForStmt",
		"*ast.LabelStmt", "*ast.LabelStmt", "*ast.FunctionStmt", "*ast.FunctionStmt",
		"*ast.CallStmt",
	}
	if len(prog.Body) != len(wantKinds) {
		t.Fatalf("expected %d statements, got %d", len(wantKinds), len(prog.Body))
	}
	for i, want := range wantKinds {
		if got := typeName(prog.Body[i]); got != want {
			t.Errorf("statement %d: got %s, want %s", i, got, want)
		}
	}

	decl := prog.Body[0].(*ast.DeclareStmt)
	if len(decl.Names) != 2 || decl.Type.Show() != "integer" {
		t.Errorf("declare = %s", decl.Show())
	}

	grid := prog.Body[2].(*ast.DeclareStmt)
	if got := grid.Type.Show(); got != "array [1, 3] of array [4] of point" {
		t.Errorf("grid type = %q", got)
	}

	set := prog.Body[3].(*ast.AssignStmt)
	if len(set.Targets) != 2 || set.Value.Show() != "2 + 3" {
		t.Errorf("set = %s", set.Show())
	}

	if out := prog.Body[5].(*ast.OutputStmt); !out.Newline || len(out.Items) != 0 {
		t.Errorf("outputln = %s", out.Show())
	}

	ifs := prog.Body[6].(*ast.IfStmt)
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Errorf("if arms = %d, %d", len(ifs.Then), len(ifs.Else))
	}

	loop := prog.Body[7].(*ast.ForStmt)
	if loop.By == nil || loop.To == nil || loop.While == nil {
		t.Errorf("for = %s", loop.Show())
	}

	outer := prog.Body[8].(*ast.LabelStmt)
	if outer.Loop == nil || outer.Body != nil {
		t.Errorf("label outer = %s", outer.Show())
	}
	blk := prog.Body[9].(*ast.LabelStmt)
	if blk.Loop != nil || len(blk.Body) != 1 {
		t.Errorf("label blk = %s", blk.Show())
	}

	sq := prog.Body[10].(*ast.FunctionStmt)
	if sq.IsProcedure() || len(sq.Params) != 1 || sq.Show() != "function sq(n integer) integer;" {
		t.Errorf("function = %s", sq.Show())
	}
	if show := prog.Body[11].(*ast.FunctionStmt); !show.IsProcedure() {
		t.Error("show should be a procedure")
	}

	call := prog.Body[12].(*ast.CallStmt)
	if call.Show() != "call show(1.5);" {
		t.Errorf("call = %s", call.Show())
	}
}

func TestParser_StructureType(t *testing.T) {
	prog := mustParse(t, "program t; declare p structure (x integer, y real, z boolean); end")
	typ := prog.Body[0].(*ast.DeclareStmt).Type.(*ast.Unary)

	if typ.Op != ast.Structure {
		t.Fatalf("op = %v", typ.Op)
	}
	fields := ast.Flatten(typ.Operand)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if got := fields[1].Show(); got != "y real" {
		t.Errorf("field 1 = %q", got)
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		wantCount int
		wantMsg   string
	}{
		{
			name:      "missing program",
			source:    "declare a integer; end",
			wantCount: 1,
			wantMsg:   "expected 'program'",
		},
		{
			name:      "missing semicolon recovers",
			source:    "program t; declare a integer set a := 1; output a; end",
			wantCount: 1,
			wantMsg:   "expected ';' after declaration",
		},
		{
			name:      "two bad statements",
			source:    "program t; set := 1; output ; declare integer; end",
			wantCount: 2,
			wantMsg:   "expected expression",
		},
		{
			name:      "bad type",
			source:    "program t; declare a 42; end",
			wantCount: 1,
			wantMsg:   "expected type",
		},
		{
			name:      "integer overflow",
			source:    "program t; set a := 99999999999; end",
			wantCount: 1,
			wantMsg:   "out of range",
		},
		{
			name:      "stray token",
			source:    "program t; fi; end",
			wantCount: 1,
			wantMsg:   "expected statement",
		},
		{
			name:      "trailing input",
			source:    "program t; end. output 1;",
			wantCount: 1,
			wantMsg:   "after end of program",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Parse(tt.source, "test.mini")
			if len(errs) != tt.wantCount {
				t.Fatalf("expected %d errors, got %d: %v", tt.wantCount, len(errs), errs)
			}
			if !strings.Contains(errs[0].Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", errs[0], tt.wantMsg)
			}
			if !strings.HasPrefix(errs[0].Error(), "test.mini:1:") {
				t.Errorf("error %q lacks a position", errs[0])
			}
		})
	}
}

func TestParser_Recovery(t *testing.T) {
	prog, errs := Parse("program t; declare a integer set a := 1; output a; end", "test.mini")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	// Resynchronisation stops at "set", so both following statements parse.
	if len(prog.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Body))
	}
	if _, ok := prog.Body[0].(*ast.AssignStmt); !ok {
		t.Errorf("first statement = %T, want *ast.AssignStmt", prog.Body[0])
	}
	last := prog.Body[len(prog.Body)-1]
	if _, ok := last.(*ast.OutputStmt); !ok {
		t.Errorf("last statement = %T, want *ast.OutputStmt", last)
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"program t;", true},
		{"program t; if a then", true},
		{"program t; for i := 1 to 3 do output i;", true},
		{"program t; output 1; end", false},
		{"program t; output ); end", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, errs := Parse(tt.source, "<stdin>")
			if got := Incomplete(errs); got != tt.want {
				t.Errorf("Incomplete() = %v, want %v (errors: %v)", got, tt.want, errs)
			}
		})
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *ast.DeclareStmt:
		return "*ast.DeclareStmt"
	case *ast.TypeStmt:
		return "*ast.TypeStmt"
	case *ast.AssignStmt:
		return "*ast.AssignStmt"
	case *ast.OutputStmt:
		return "*ast.OutputStmt"
	case *ast.IfStmt:
		return "*ast.IfStmt"
	case *ast.ForStmt:
		return "*ast.ForStmt"
	case *ast.LabelStmt:
		return "*ast.LabelStmt"
	case *ast.FunctionStmt:
		return "*ast.FunctionStmt"
	case *ast.CallStmt:
		return "*ast.CallStmt"
	default:
		return "other"
	}
}
