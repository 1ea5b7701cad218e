package semantic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/parser/ast"
)

func TestLower_Conditionals(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"then arm", "if 1 < 2 then output 1; else output 2; fi;", "1"},
		{"else arm", "if 2 < 1 then output 1; else output 2; fi;", "2"},
		{"no else", "if 2 < 1 then output 1; fi; output 3;", "3"},
		{"nested", "declare a integer; set a := 5; if a > 2 then if a > 4 then output \"big\"; else output \"mid\"; fi; fi;", "big"},
		{"bool variable", "declare b boolean; set b := 2.5 > 1; if b then output b; fi;", "true"},
		{"both arms return", "if true then output 1; return; else return; fi; output 2;", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out, _ := execute(t, tt.body); out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestLower_LoopBounds(t *testing.T) {
	tests := []struct{ from, to, by int }{
		{1, 10, 1},
		{1, 10, 3},
		{5, 4, 2},
		{-3, 3, 2},
		{0, 0, 1},
		{2, 1, 1},
		{1, 100, 7},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("from %d to %d by %d", tt.from, tt.to, tt.by)
		t.Run(name, func(t *testing.T) {
			count := 0
			if tt.to >= tt.from {
				count = (tt.to-tt.from)/tt.by + 1
			}
			final := tt.from + tt.by*count

			body := fmt.Sprintf(`declare i, n integer; set n := 0;
				for i := %d by %d to %d do set n := n + 1; end;
				output n, " ", i;`, tt.from, tt.by, tt.to)
			want := fmt.Sprintf("%d %d", count, final)
			if out, _ := execute(t, body); out != want {
				t.Errorf("output = %q, want %q", out, want)
			}
		})
	}
}

func TestLower_Loops(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"default step", "declare i integer; for i := 1 to 3 do output i; end;", "123"},
		{"while only", "declare i integer; for i := 1 while i * i < 20 do output i; end;", "1234"},
		{"while and to", "declare i integer; for i := 1 to 10 while i < 4 do output i; end;", "123"},
		{"real target", `declare x real; for x := 0.5 by 0.5 to 2 do output x, " "; end;`, "0.5 1 1.5 2 "},
		{"array element target", "declare a array [2] of integer; for a[2] := 1 to 3 do output a[2]; end; output a[2];", "1234"},
		{"empty range", "declare i integer; for i := 3 to 1 do output i; end; output i;", "3"},
		{"field target", "declare p structure (n integer, x real); for p.x := 1 by 0.5 to 2 do output p.x, \" \"; end;", "1 1.5 2 "},
		{"nested", "declare i, j integer; for i := 1 to 2 do for j := 1 to 2 do output i, j, \" \"; end; end;", "11 12 21 22 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out, _ := execute(t, tt.body); out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestLower_Labels(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "repent a loop",
			body: `declare i integer;
				label outer for i := 1 to 10 do if i = 4 then repent outer; fi; output i; end;
				output "|", i;`,
			want: "123|4",
		},
		{
			name: "repeat a loop",
			body: "declare i integer; label outer for i := 1 to 5 do if i < 3 then repeat outer; fi; output i; end;",
			want: "345",
		},
		{
			name: "repent from an inner loop",
			body: `declare i, j integer;
				label outer for i := 1 to 3 do
					for j := 1 to 3 do if j = 2 then repent outer; fi; output i, j, " "; end;
				end;
				output "done";`,
			want: "11 done",
		},
		{
			name: "repeat a block",
			body: `declare n integer; set n := 0;
				label again do set n := n + 1; if n < 3 then repeat again; fi; repent again; output "dead"; end;
				output n;`,
			want: "3",
		},
		{
			name: "block without repent",
			body: "label blk do output 1; end; output 2;",
			want: "12",
		},
		{
			name: "innermost label wins",
			body: `declare i integer;
				label l for i := 1 to 2 do
					label l do repent l; end;
					output i;
				end;`,
			want: "12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out, _ := execute(t, tt.body); out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestLower_Functions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "recursion",
			body: "function fact(n integer) integer; if n <= 1 then return 1; fi; return n * fact(n - 1); end; output fact(5);",
			want: "120",
		},
		{
			name: "procedure with promoted argument",
			body: `procedure show(v real); output v, ";"; end; call show(1); call show(2.5);`,
			want: "1;2.5;",
		},
		{
			name: "nested function",
			body: "function outer(n integer) integer; function inner(m integer) integer; return m + 1; end; return inner(n) * 2; end; output outer(3);",
			want: "8",
		},
		{
			name: "implicit zero result",
			body: "function f(n integer) integer; declare k integer; set k := n; end; output f(1);",
			want: "0",
		},
		{
			name: "promoted result",
			body: "function half(n integer) real; return n; end; output half(3) / 2;",
			want: "1.5",
		},
		{
			name: "local arrays",
			body: `function sum(n integer) integer;
					declare a array [n] of integer; declare i, s integer;
					for i := 1 to n do set a[i] := i; end;
					set s := 0;
					for i := 1 to n do set s := s + a[i]; end;
					return s;
				end;
				output sum(4), " ", sum(10);`,
			want: "10 55",
		},
		{
			name: "early return from main",
			body: "output 1; return; output 2;",
			want: "1",
		},
		{
			name: "code after a definition",
			body: "output 1; procedure p(n integer); output n; end; output 2; call p(3);",
			want: "123",
		},
		{
			name: "sibling locals",
			body: `declare t real; set t := 0.5;
				function f(n integer) integer; declare t integer; set t := n * 2; return t; end;
				function g(n integer) boolean; declare t boolean; set t := n > 0; return t; end;
				output f(2), g(1), t;`,
			want: "4true0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out, _ := execute(t, tt.body); out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestLower_ProcedureReturnsVoid(t *testing.T) {
	m, _, err := lower(t, "procedure p(n integer); if n > 0 then return; fi; output n; end; call p(0);")
	if err != nil {
		t.Fatal(err)
	}
	for _, block := range m.Function("p").Blocks {
		if ret, ok := block.Terminator().(*ir.Return); ok && ret.Value != nil {
			t.Errorf("block %s of a procedure returns %s", block.Label, ret.Value)
		}
	}
}

// begun returns a lowerer with main open, the way Lower leaves it before
// walking the program body.
func begun(t *testing.T, body string) (*Lowerer, *ast.Program) {
	t.Helper()
	prog := parse(t, body)
	l := New(ir.NewBuilder("t"))
	l.begin(prog)
	return l, prog
}

func TestFunctionFrame_ScopeIsolation(t *testing.T) {
	l, prog := begun(t, "declare k real; function f(n integer) integer; declare k integer; return n; end;")
	l.lowerStmt(prog.Body[0])
	outerK := l.Symbols().Find("k")

	def := prog.Body[1].(*ast.FunctionStmt)
	f := l.BeginFunction(def)
	if l.Symbols().Depth() != 2 {
		t.Fatalf("depth = %d inside f, want 2", l.Symbols().Depth())
	}
	if l.Symbols().Find("k") != nil {
		t.Error("the enclosing k is visible inside f")
	}
	l.lowerBody(def.Body)
	innerK := l.Symbols().Find("k")
	if innerK == nil || innerK == outerK || l.Symbols().Find("n") == nil {
		t.Fatal("f's own bindings are missing")
	}
	f.End()

	if l.Symbols().Depth() != 1 {
		t.Errorf("depth = %d after f, want 1", l.Symbols().Depth())
	}
	if l.Symbols().Find("n") != nil {
		t.Error("parameter n is still visible after f")
	}
	if l.Symbols().Find("k") != outerK {
		t.Error("k does not resolve to the enclosing declaration after f")
	}
	if l.b.InsertBlock().Label != "over_jump" {
		t.Errorf("cursor at %s after f, want over_jump", l.b.InsertBlock().Label)
	}
}

// violates runs fn and returns the contract violation it raises.
func violates(t *testing.T, fn func()) (ce *ContractError) {
	t.Helper()
	defer func() {
		r := recover()
		var ok bool
		if ce, ok = r.(*ContractError); !ok {
			t.Fatalf("expected a contract violation, got %v", r)
		}
	}()
	fn()
	return nil
}

func TestFrames_ContractViolations(t *testing.T) {
	cond := &ast.BoolLit{Value: true}

	tests := []struct {
		name string
		run  func(l *Lowerer, prog *ast.Program)
	}{
		{"conditionals out of order", func(l *Lowerer, _ *ast.Program) {
			outer := l.BeginIf(cond)
			l.BeginIf(cond)
			outer.End()
		}},
		{"conditional ended twice", func(l *Lowerer, _ *ast.Program) {
			f := l.BeginIf(cond)
			f.End()
			f.End()
		}},
		{"two else parts", func(l *Lowerer, _ *ast.Program) {
			f := l.BeginIf(cond)
			f.BeginElse()
			f.BeginElse()
		}},
		{"labels out of order", func(l *Lowerer, _ *ast.Program) {
			outer := l.BeginLabel(&ast.Ident{Name: "a"}, false)
			l.BeginLabel(&ast.Ident{Name: "b"}, false)
			outer.End()
		}},
		{"loop ended inside a conditional", func(l *Lowerer, _ *ast.Program) {
			l.lowerStmt(parse(t, "declare i integer;").Body[0])
			loop := l.BeginLoop(&ast.Ident{Name: "i"}, &ast.IntLit{Value: 1}, nil, &ast.IntLit{Value: 3}, nil)
			l.BeginIf(cond)
			loop.End()
		}},
		{"function with open conditional", func(l *Lowerer, prog *ast.Program) {
			f := l.BeginFunction(prog.Body[0].(*ast.FunctionStmt))
			l.BeginIf(cond)
			f.End()
		}},
		{"missing statement", func(l *Lowerer, _ *ast.Program) {
			l.lowerStmt(nil)
		}},
		{"missing expression", func(l *Lowerer, _ *ast.Program) {
			l.lowerExpr(nil)
		}},
		{"nameless function", func(l *Lowerer, _ *ast.Program) {
			l.BeginFunction(&ast.FunctionStmt{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, prog := begun(t, "procedure p(n integer); end;")
			ce := violates(t, func() { tt.run(l, prog) })
			if ce.Message == "" {
				t.Error("violation without a message")
			}
		})
	}
}

func TestLower_ContractErrors(t *testing.T) {
	l := New(ir.NewBuilder("t"))
	var ce *ContractError
	if _, err := l.Lower(nil); !errors.As(err, &ce) {
		t.Errorf("Lower(nil) error = %v, want a contract violation", err)
	}

	l = New(ir.NewBuilder("t"))
	prog := parse(t, "output 1;")
	if _, err := l.Lower(prog); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Lower(prog); !errors.As(err, &ce) {
		t.Errorf("second Lower() error = %v, want a contract violation", err)
	}
	if l.Diagnostics().Count() != 0 {
		t.Error("a contract violation was counted as a diagnostic")
	}
}
