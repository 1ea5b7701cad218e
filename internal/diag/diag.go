// Package diag accumulates the diagnostics of one compilation unit.
//
// A Log is an append-only list of positioned errors plus a counter. The
// lowering core records resolution errors here and keeps going; module
// emission is gated on Count() being zero.
//
// USAGE:
//   log := diag.New(os.Stderr)
//   log.Errorf(pos, "%s: ident not found", name)
//   if log.Count() > 0 { return log.Err() }
package diag

import (
	"errors"
	"fmt"
	"io"

	"github.com/hassan/minic/internal/lexer"
)

// Diagnostic is one recorded error.
type Diagnostic struct {
	Pos     lexer.Position
	Message string
}

// Error formats the diagnostic as "file:line:col: message", or just the
// message when the position is unknown.
func (d *Diagnostic) Error() string {
	if !d.Pos.IsValid() {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Pos, d.Message)
}

// Log is the diagnostics state of one compilation unit.
type Log struct {
	entries []*Diagnostic

	// sink, if set, receives each message as it is recorded
	sink io.Writer
}

// New creates an empty log. A non-nil sink gets each message on its own
// line as soon as it is recorded.
func New(sink io.Writer) *Log {
	return &Log{entries: make([]*Diagnostic, 0), sink: sink}
}

// Errorf records an error at pos.
func (l *Log) Errorf(pos lexer.Position, format string, args ...interface{}) {
	d := &Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)}
	l.entries = append(l.entries, d)
	if l.sink != nil {
		fmt.Fprintln(l.sink, d.Error())
	}
}

// Add records already-formatted errors (e.g. syntax errors).
func (l *Log) Add(errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		d := &Diagnostic{Message: err.Error()}
		l.entries = append(l.entries, d)
		if l.sink != nil {
			fmt.Fprintln(l.sink, d.Error())
		}
	}
}

// Count returns the number of recorded errors. It never decreases.
func (l *Log) Count() int {
	return len(l.entries)
}

// Diagnostics returns the recorded errors in order.
func (l *Log) Diagnostics() []*Diagnostic {
	out := make([]*Diagnostic, len(l.entries))
	copy(out, l.entries)
	return out
}

// Messages returns the formatted messages in order.
func (l *Log) Messages() []string {
	out := make([]string, len(l.entries))
	for i, d := range l.entries {
		out[i] = d.Error()
	}
	return out
}

// Err joins every recorded error, or returns nil when there are none.
func (l *Log) Err() error {
	if len(l.entries) == 0 {
		return nil
	}
	errs := make([]error, len(l.entries))
	for i, d := range l.entries {
		errs[i] = d
	}
	return errors.Join(errs...)
}
