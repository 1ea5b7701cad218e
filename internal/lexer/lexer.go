package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Lexer performs lexical analysis on mini source code.
//
// DESIGN PHILOSOPHY:
// The lexer's responsibilities are:
// 1. Break source into tokens
// 2. Track position information for error reporting
// 3. Skip whitespace, return comments as tokens
// 4. Recognize keywords, identifiers, literals, and operators
//
// The lexer does NOT parse syntax, check types, or decode text literals
// (the parser unquotes them so it can report bad escapes in context).
type Lexer struct {
	// source is the complete source being lexed
	source string

	// filename is used in positions
	filename string

	// start is the byte offset of the token being scanned
	start int

	// current is the byte offset being examined
	current int

	// line is the current 1-based line number
	line int

	// lineStart is the byte offset where the current line started;
	// column = start - lineStart + 1
	lineStart int
}

// New creates a new Lexer for the given source code.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
	}
}

// NextToken returns the next token from the source.
//
// The parser calls this repeatedly until it gets TokenEOF. On a lexical
// error the token is TokenInvalid and err says what went wrong; lexing can
// continue after it.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	l.start = l.current

	if l.isAtEnd() {
		return l.makeToken(TokenEOF, ""), nil
	}

	ch, _ := l.advance()

	if isLetter(ch) {
		return l.scanIdentifier(), nil
	}
	if isDigit(ch) {
		return l.scanNumber(), nil
	}

	switch ch {
	case '(':
		return l.makeToken(TokenLeftParen, "("), nil
	case ')':
		return l.makeToken(TokenRightParen, ")"), nil
	case '[':
		return l.makeToken(TokenLeftBracket, "["), nil
	case ']':
		return l.makeToken(TokenRightBracket, "]"), nil
	case ';':
		return l.makeToken(TokenSemicolon, ";"), nil
	case ',':
		return l.makeToken(TokenComma, ","), nil
	case '.':
		return l.makeToken(TokenDot, "."), nil
	case '+':
		return l.makeToken(TokenPlus, "+"), nil
	case '-':
		return l.makeToken(TokenMinus, "-"), nil
	case '*':
		return l.makeToken(TokenStar, "*"), nil
	case '=':
		return l.makeToken(TokenEqual, "="), nil

	case '/':
		if l.match('/') {
			return l.scanLineComment(), nil
		} else if l.match('*') {
			return l.scanBlockComment()
		}
		return l.makeToken(TokenSlash, "/"), nil

	case '<':
		if l.match('=') {
			return l.makeToken(TokenLessEqual, "<="), nil
		} else if l.match('>') {
			return l.makeToken(TokenNotEqual, "<>"), nil
		}
		return l.makeToken(TokenLess, "<"), nil

	case '>':
		if l.match('=') {
			return l.makeToken(TokenGreaterEqual, ">="), nil
		}
		return l.makeToken(TokenGreater, ">"), nil

	case ':':
		if l.match('=') {
			return l.makeToken(TokenBecomes, ":="), nil
		}
		return l.makeToken(TokenInvalid, ":"),
			l.error("unexpected character ':' (did you mean ':='?)")

	case '"':
		return l.scanText()

	default:
		return l.makeToken(TokenInvalid, string(ch)),
			l.error(fmt.Sprintf("unexpected character: %q", ch))
	}
}

// Tokenize lexes the whole source, dropping comments.
// Lexical errors are collected; invalid tokens stay in the stream.
func (l *Lexer) Tokenize() ([]Token, []error) {
	var (
		tokens []Token
		errs   []error
	)
	for {
		tok, err := l.NextToken()
		if err != nil {
			errs = append(errs, err)
		}
		if tok.Type == TokenComment {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, errs
		}
	}
}

// advance reads and returns the next rune and its size.
func (l *Lexer) advance() (rune, int) {
	if l.isAtEnd() {
		return 0, 0
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	return ch, size
}

// peek returns the current rune without advancing (0 at end of file).
func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return ch
}

// peekNext returns the rune after the current one (0 if none).
func (l *Lexer) peekNext() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.current:])
	ch, _ := utf8.DecodeRuneInString(l.source[l.current+size:])
	return ch
}

// match advances past the current rune if it is expected.
func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	if ch != expected {
		return false
	}
	l.current += size
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) newline() {
	l.line++
	l.lineStart = l.current
}

// skipWhitespace skips blanks and tracks newlines.
func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.advance()
			l.newline()
		default:
			return
		}
	}
}

// scanIdentifier scans an identifier or keyword.
//
// RULES:
// - Starts with a letter or underscore
// - Continues with letters, digits, or underscores
func (l *Lexer) scanIdentifier() Token {
	for !l.isAtEnd() {
		ch := l.peek()
		if !isLetter(ch) && !isDigit(ch) {
			break
		}
		l.advance()
	}

	text := l.source[l.start:l.current]
	return l.makeToken(LookupKeyword(text), text)
}

// scanNumber scans an integer or real literal.
//
// SUPPORTED FORMATS:
// - Integers: 0, 42
// - Reals: 3.14, 1e10, 2.5e-3
//
// A dot only starts a fraction when a digit follows it, so "a[1].x" and
// "end 1." lex the dot separately. Range checking is left to the parser.
func (l *Lexer) scanNumber() Token {
	isReal := false

	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		isReal = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		saved := l.current
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !isDigit(l.peek()) {
			// Not an exponent: "2e" is 2 followed by an identifier.
			l.current = saved
		} else {
			isReal = true
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	text := l.source[l.start:l.current]
	if isReal {
		return l.makeToken(TokenReal, text)
	}
	return l.makeToken(TokenInteger, text)
}

// scanText scans a double-quoted text literal. Escapes are kept raw; a
// text literal may not span lines.
func (l *Lexer) scanText() (Token, error) {
	for !l.isAtEnd() {
		ch := l.peek()

		switch ch {
		case '"':
			l.advance()
			return l.makeToken(TokenText, l.source[l.start:l.current]), nil
		case '\n':
			return l.makeToken(TokenInvalid, l.source[l.start:l.current]),
				l.error("unterminated text literal")
		case '\\':
			l.advance()
			if !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			l.advance()
		}
	}

	return l.makeToken(TokenInvalid, l.source[l.start:l.current]),
		l.error("unterminated text literal")
}

// scanLineComment scans a // comment up to the end of the line.
func (l *Lexer) scanLineComment() Token {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
	return l.makeToken(TokenComment, l.source[l.start:l.current])
}

// scanBlockComment scans a /* */ comment. Block comments nest.
func (l *Lexer) scanBlockComment() (Token, error) {
	// Positions of the token refer to where the comment started.
	startLine, startLineStart := l.line, l.lineStart
	depth := 1

	for !l.isAtEnd() && depth > 0 {
		ch := l.peek()

		switch {
		case ch == '/' && l.peekNext() == '*':
			l.advance()
			l.advance()
			depth++
		case ch == '*' && l.peekNext() == '/':
			l.advance()
			l.advance()
			depth--
		case ch == '\n':
			l.advance()
			l.newline()
		default:
			l.advance()
		}
	}

	endLine, endLineStart := l.line, l.lineStart
	l.line, l.lineStart = startLine, startLineStart
	defer func() { l.line, l.lineStart = endLine, endLineStart }()

	if depth > 0 {
		return l.makeToken(TokenInvalid, ""),
			l.error("unterminated block comment")
	}
	return l.makeToken(TokenComment, l.source[l.start:l.current]), nil
}

// makeToken creates a token positioned at the start of the current lexeme.
func (l *Lexer) makeToken(tokenType TokenType, lexeme string) Token {
	return Token{
		Type:     tokenType,
		Lexeme:   lexeme,
		Position: l.currentPosition(),
		Length:   l.current - l.start,
	}
}

func (l *Lexer) currentPosition() Position {
	return Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   runeCount(l.source[l.lineStart:l.start]) + 1,
		Offset:   l.start,
	}
}

// error creates an error with the current position.
func (l *Lexer) error(message string) error {
	return fmt.Errorf("%s: %s", l.currentPosition().String(), message)
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

// isDigit accepts ASCII digits only.
func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
