package ir

import (
	"strings"
	"testing"

	"github.com/hassan/minic/internal/semantic/types"
)

func newMain(t *testing.T) (*Builder, *Function) {
	t.Helper()
	b := NewBuilder("test")
	fn := b.NewFunction("main", types.Int)
	b.SetInsertPoint(fn.Entry)
	return b, fn
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name     string
		value    *Value
		expected string
	}{
		{"int constant", ConstInt(5), "5"},
		{"real constant", ConstReal(2.5), "2.5"},
		{"bool constant", ConstBool(true), "true"},
		{"temporary", &Value{ID: 3, Kind: ValueTemporary}, "%t3"},
		{"variable", &Value{ID: 1, Name: "a", Kind: ValueVariable}, "%a.1"},
		{"parameter", &Value{ID: 0, Name: "n", Kind: ValueParameter}, "%n"},
		{"global", &Value{Name: "str.1", Kind: ValueGlobal}, "@str.1"},
		{"nil", nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.expected {
				t.Errorf("Value.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstZero(t *testing.T) {
	if v := ConstZero(types.Int); v.Constant != int32(0) {
		t.Errorf("ConstZero(Int) = %v", v.Constant)
	}
	if v := ConstZero(types.Real); v.Constant != float64(0) {
		t.Errorf("ConstZero(Real) = %v", v.Constant)
	}
	if v := ConstZero(types.Bool); v.Constant != false {
		t.Errorf("ConstZero(Bool) = %v", v.Constant)
	}
	if v := ConstZero(types.String); v == nil || v.String() != "null" {
		t.Errorf("ConstZero(String) = %v, want null", v)
	}
	if v := ConstZero(types.Void); v != nil {
		t.Errorf("ConstZero(Void) = %v, want nil", v)
	}
}

func TestBuilder_EmitsAtCursor(t *testing.T) {
	b, fn := newMain(t)

	slot := b.Alloca(types.Int, "a")
	sum := b.Binary(OpAdd, ConstInt(2), ConstInt(3))
	b.Store(sum, slot)
	b.Return(ConstInt(0))

	if len(fn.Entry.Instructions) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(fn.Entry.Instructions))
	}
	if !types.NewPointer(types.Int).Equals(slot.Type) {
		t.Errorf("alloca result type = %s, want i32*", slot.Type)
	}
	if _, ok := fn.Entry.Instructions[1].(*BinaryOp); !ok {
		t.Errorf("expected BinaryOp, got %T", fn.Entry.Instructions[1])
	}
	if !fn.Entry.IsTerminated() {
		t.Error("entry should be terminated")
	}
}

func TestBuilder_TerminatedBlockRules(t *testing.T) {
	b, fn := newMain(t)
	other := b.CreateBlock(fn, "other")

	b.Return(ConstInt(1))
	// A second terminator is dropped.
	b.Branch(other)
	if len(fn.Entry.Instructions) != 1 {
		t.Fatalf("expected the jump to be dropped, got %d instructions", len(fn.Entry.Instructions))
	}
	if len(other.Predecessors) != 0 {
		t.Error("dropped jump must not record an edge")
	}

	// A non-terminator opens a dead block.
	b.Alloca(types.Int, "x")
	dead := b.InsertBlock()
	if dead == fn.Entry {
		t.Fatal("expected a fresh block after a terminator")
	}
	if !strings.HasPrefix(dead.Label, "dead") {
		t.Errorf("fresh block label = %q, want dead", dead.Label)
	}
}

func TestBuilder_BranchEdges(t *testing.T) {
	b, fn := newMain(t)
	then := b.CreateBlock(fn, "then")
	els := b.CreateBlock(fn, "else")

	b.CondBranch(ConstBool(true), then, els)

	if len(fn.Entry.Successors) != 2 {
		t.Fatalf("expected 2 successors, got %d", len(fn.Entry.Successors))
	}
	if len(then.Predecessors) != 1 || then.Predecessors[0] != fn.Entry {
		t.Error("then block should have entry as its only predecessor")
	}
}

func TestFunction_UniqueLabels(t *testing.T) {
	fn := NewFunction("f", types.Void)
	a := fn.NewBasicBlockInFunc("then")
	c := fn.NewBasicBlockInFunc("then")
	d := fn.NewBasicBlockInFunc("then")

	if a.Label != "then" || c.Label != "then.1" || d.Label != "then.2" {
		t.Errorf("labels = %s, %s, %s", a.Label, c.Label, d.Label)
	}
}

func TestBuilder_CallResult(t *testing.T) {
	b, _ := newMain(t)
	out := b.DeclareFunction("rtl_output", types.Void, types.Int)
	alloc := b.DeclareFunction("rtl_allocate_array", types.String, types.Int, types.Int)

	if v := b.Call(out, []*Value{ConstInt(5)}); v != nil {
		t.Errorf("void call returned %v", v)
	}
	v := b.Call(alloc, []*Value{ConstInt(10), ConstInt(4)})
	if v == nil || !types.IsString(v.Type) {
		t.Errorf("allocate_array call result = %v", v)
	}
}

func TestBuilder_GlobalString(t *testing.T) {
	b, _ := newMain(t)
	g1 := b.GlobalString("hello")
	g2 := b.GlobalString("world")

	if g1.Name == g2.Name {
		t.Error("global strings need distinct names")
	}
	if len(b.Module().Globals) != 2 {
		t.Errorf("expected 2 globals, got %d", len(b.Module().Globals))
	}
	if !types.IsString(g1.Type) {
		t.Errorf("global string type = %s", g1.Type)
	}
}

func TestModule_Verify(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *Builder, fn *Function)
		wantErr string
	}{
		{
			name: "well formed",
			build: func(b *Builder, fn *Function) {
				b.Return(ConstInt(0))
			},
		},
		{
			name:    "missing terminator",
			build:   func(b *Builder, fn *Function) {},
			wantErr: "has no terminator",
		},
		{
			name: "missing operand",
			build: func(b *Builder, fn *Function) {
				slot := b.Alloca(types.Int, "a")
				b.Store(nil, slot)
				b.Return(ConstInt(0))
			},
			wantErr: "missing operand",
		},
		{
			name: "entry with predecessor",
			build: func(b *Builder, fn *Function) {
				b.Branch(fn.Entry)
			},
			wantErr: "has predecessors",
		},
		{
			name: "argument count",
			build: func(b *Builder, fn *Function) {
				out := b.DeclareFunction("rtl_output", types.Void, types.Int)
				b.Call(out, nil)
				b.Return(ConstInt(0))
			},
			wantErr: "passes 0 arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fn := newMain(t)
			tt.build(b, fn)
			errs := b.Module().Verify()

			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error containing %q, got %v", tt.wantErr, errs)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	b, fn := newMain(t)
	live := b.CreateBlock(fn, "live")
	orphan := b.CreateBlock(fn, "orphan")

	b.Branch(live)
	b.SetInsertPoint(orphan)
	b.Branch(live)
	b.SetInsertPoint(live)
	b.Return(ConstInt(0))

	if !Prune(fn) {
		t.Fatal("expected Prune to remove the orphan block")
	}
	if len(fn.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(fn.Blocks))
	}
	if len(live.Predecessors) != 1 || live.Predecessors[0] != fn.Entry {
		t.Errorf("live predecessors = %v", live.Predecessors)
	}
	for i, block := range fn.Blocks {
		if block.Index != i {
			t.Errorf("block %s has index %d, want %d", block.Label, block.Index, i)
		}
	}
	if Prune(fn) {
		t.Error("second Prune should be a no-op")
	}
}

func TestModule_String(t *testing.T) {
	b, fn := newMain(t)
	st := types.NewStruct("struct_main_1", []types.StructField{{Name: "x", Type: types.Int}})
	b.DefineStruct(st)
	b.GlobalString("hi")
	b.Return(ConstInt(0))
	_ = fn

	out := b.Module().String()
	for _, want := range []string{"; module test", "%struct_main_1 = type { i32 }", "@str.1", "define i32 @main()", "ret i32 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("module listing missing %q:\n%s", want, out)
		}
	}
}
