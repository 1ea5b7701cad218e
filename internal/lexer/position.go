// Package lexer turns mini source text into a stream of tokens for the parser.
package lexer

import "strconv"

// Position is a location in a source unit. The zero value means "no
// position"; diagnostics without one print the bare message.
type Position struct {
	Filename string // "<stdin>" for piped input
	Line     int    // 1-based
	Column   int    // 1-based, in runes
	Offset   int    // 0-based, in bytes
}

// String formats the position as "file:line:col".
func (p Position) String() string {
	return p.Filename + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position names a line.
func (p Position) IsValid() bool {
	return p.Line > 0
}
