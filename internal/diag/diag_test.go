package diag

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/hassan/minic/internal/lexer"
)

func TestLog_Errorf(t *testing.T) {
	var sink bytes.Buffer
	log := New(&sink)
	pos := lexer.Position{Filename: "demo.mini", Line: 3, Column: 7}

	log.Errorf(pos, "%s: ident not found", "x")
	log.Errorf(lexer.Position{}, "Must be boolean type")

	if log.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", log.Count())
	}

	want := []string{"demo.mini:3:7: x: ident not found", "Must be boolean type"}
	got := log.Messages()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}

	if sink.String() != strings.Join(want, "\n")+"\n" {
		t.Errorf("sink = %q", sink.String())
	}
}

func TestLog_Err(t *testing.T) {
	log := New(nil)
	if log.Err() != nil {
		t.Error("empty log should have a nil Err")
	}

	log.Errorf(lexer.Position{Filename: "a", Line: 1, Column: 1}, "first")
	log.Add(errors.New("a:2:1: second"), nil)

	err := log.Err()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "a:1:1: first") || !strings.Contains(err.Error(), "a:2:1: second") {
		t.Errorf("Err() = %q", err)
	}
	if log.Count() != 2 {
		t.Errorf("Count() = %d, want 2 (nil errors are skipped)", log.Count())
	}

	var d *Diagnostic
	if !errors.As(err, &d) {
		t.Error("joined error should unwrap to a *Diagnostic")
	}
}

func TestLog_DiagnosticsIsACopy(t *testing.T) {
	log := New(nil)
	log.Errorf(lexer.Position{}, "one")

	ds := log.Diagnostics()
	ds[0] = &Diagnostic{Message: "changed"}

	if log.Messages()[0] != "one" {
		t.Error("Diagnostics() must not expose the log's storage")
	}
}
