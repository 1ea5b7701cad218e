package llvmgen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/parser"
	"github.com/hassan/minic/internal/semantic"
	"github.com/hassan/minic/internal/semantic/types"
)

func generate(t *testing.T, source string) string {
	t.Helper()
	prog, errs := parser.Parse(source, "t.mini")
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	m, err := semantic.New(ir.NewBuilder("t")).Lower(prog)
	if err != nil {
		t.Fatalf("Lower() error: %v", err)
	}
	lm, err := Generate(m)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return lm.String()
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "main and runtime",
			source: "program t; output 1; outputln; end",
			want: []string{
				"define i32 @main()",
				"declare void @rtl_output(",
				"declare i8* @rtl_allocate_array(",
				"call void @rtl_output(i32 1)",
				"call void @rtl_output_nl()",
				"ret i32 0",
			},
		},
		{
			name:   "strings",
			source: `program t; output "hi"; end`,
			want: []string{
				`c"hi\00"`,
				"private constant [3 x i8]",
				"call void @rtl_output_str(i8* getelementptr inbounds",
			},
		},
		{
			name:   "arithmetic and promotion",
			source: "program t; declare x real; set x := 1 + 2.5; output x < 3, 7 / 2; end",
			want: []string{
				"sitofp i32 1 to double",
				"fadd double",
				"fcmp ult double",
				"sdiv i32 7, 2",
				"store double",
			},
		},
		{
			name:   "arrays",
			source: "program t; declare a array [1, 10] of integer; set a[3] := 7; end",
			want: []string{
				"%dim = type { i32, i32, i32 }",
				"%array_main_1 = type { %dim, i32* }",
				"call i8* @rtl_allocate_array(i32",
				"bitcast i8*",
				"getelementptr i32, i32*",
			},
		},
		{
			name:   "structures",
			source: "program t; declare p structure (x integer, y real); set p.y := 1.5; end",
			want: []string{
				"%struct_main_1 = type { i32, double }",
				"getelementptr %struct_main_1, %struct_main_1* %",
				"i32 0, i32 1",
			},
		},
		{
			name:   "functions",
			source: "program t; function sq(n integer) integer; return n * n; end; procedure p(b boolean); end; output sq(3); end",
			want: []string{
				"define private i32 @sq(i32 %n)",
				"mul i32 %n, %n",
				"define private void @p(i1 %b)",
				"ret void",
				"call i32 @sq(i32 3)",
				"br label %over_jump",
			},
		},
		{
			name:   "control flow",
			source: "program t; declare i integer; for i := 1 to 3 do if i = 2 then output i; fi; end; end",
			want: []string{
				"icmp sle i32",
				"icmp eq i32",
				"icmp ne i1",
				"br i1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generate(t, tt.source)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output lacks %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestGenerate_Malformed(t *testing.T) {
	b := ir.NewBuilder("bad")
	main := b.NewFunction("main", types.Int)
	b.SetInsertPoint(main.Entry)
	stray := ir.NewParam("x", types.Int)
	b.Return(b.Binary(ir.OpAdd, stray, ir.ConstInt(1)))

	if _, err := Generate(b.Module()); err == nil {
		t.Error("Generate() accepted an operand from no function")
	}
}

func TestEmitter(t *testing.T) {
	prog, errs := parser.Parse("program t; output 2.5; end", "t.mini")
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	var out bytes.Buffer
	if _, err := semantic.New(ir.NewBuilder("t"), semantic.WithEmitter(NewEmitter(&out))).Lower(prog); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "call void @rtl_output_real(double 2.5)") {
		t.Errorf("emitted:\n%s", out.String())
	}
}
