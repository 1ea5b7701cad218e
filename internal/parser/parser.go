// Package parser implements the mini parser.
//
// PARSING STRATEGY:
// 1. Recursive descent for programs, statements and type descriptions
// 2. Pratt parsing (precedence climbing) for expressions
//
// ERROR HANDLING STRATEGY:
// - Report errors but continue parsing (find multiple errors in one pass)
// - Use panic/recover for error recovery at statement boundaries
// - Errors are "file:line:col: message"; the caller decides whether to
//   lower a program that had syntax errors (the compiler never does)
package parser

import (
	"fmt"
	"strconv"

	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
)

// SyntaxError is a parse error with its position.
type SyntaxError struct {
	Pos     lexer.Position
	Message string

	// AtEOF is set when the parser ran out of input; an interactive reader
	// uses it to ask for another line instead of reporting the error.
	AtEOF bool
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Message
}

// Incomplete reports whether every error in errs is an end-of-input error,
// i.e. the input is a valid prefix of a program.
func Incomplete(errs []error) bool {
	if len(errs) == 0 {
		return false
	}
	for _, err := range errs {
		se, ok := err.(*SyntaxError)
		if !ok || !se.AtEOF {
			return false
		}
	}
	return true
}

// bailout is the panic value used to unwind to the enclosing statement.
type bailout struct{}

// Parser converts a stream of tokens into a syntax tree.
type Parser struct {
	// lexer is the source of tokens
	lexer *lexer.Lexer

	// current is the token we're currently examining
	current lexer.Token

	// previous is the last token we consumed
	previous lexer.Token

	// errors accumulates all parsing errors
	errors []error

	// panicMode suppresses cascading errors until the next statement
	panicMode bool
}

// New creates a new parser for the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		errors: make([]error, 0),
	}
	p.advance()
	return p
}

// Parse is a convenience wrapper: lex and parse source as one program.
func Parse(source, filename string) (*ast.Program, []error) {
	return New(lexer.New(source, filename)).ParseProgram()
}

// ParseProgram parses a complete compilation unit.
//
// GRAMMAR:
//   program = "program" ident ";" { stmt } "end" [ "." ] EOF
//
// Returns the tree and any errors. The tree is partial when there are
// errors.
func (p *Parser) ParseProgram() (prog *ast.Program, errs []error) {
	prog = &ast.Program{At: p.current.Position}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
		}
		errs = p.errors
	}()

	p.consume(lexer.TokenProgram, "expected 'program'")
	prog.Name = p.identifier("expected program name").Name
	p.consume(lexer.TokenSemicolon, "expected ';' after program name")

	prog.Body = p.parseBody(lexer.TokenEnd)
	p.consume(lexer.TokenEnd, "expected 'end' at end of program")
	p.match(lexer.TokenDot)

	if !p.isAtEnd() {
		p.error(fmt.Sprintf("unexpected %s after end of program", p.current.Type))
	}
	return prog, p.errors
}

// parseBody parses statements until one of the terminators (or EOF).
// The terminator itself is not consumed; the caller reports a missing one.
// Every statement consumes at least one token, so the loop terminates.
func (p *Parser) parseBody(terminators ...lexer.TokenType) []ast.Stmt {
	body := make([]ast.Stmt, 0)

	for !p.isAtEnd() && !p.check(terminators...) {
		if stmt := p.parseStmt(); stmt != nil {
			body = append(body, stmt)
		}
	}
	return body
}

// parseStmt parses one statement, recovering at the next statement
// boundary on error.
//
// GRAMMAR:
//   stmt = declare | typedecl | set | output | if | for | label
//        | repeat | repent | function | return | call
func (p *Parser) parseStmt() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.match(lexer.TokenDeclare):
		return p.parseDeclare()
	case p.match(lexer.TokenTypeDecl):
		return p.parseTypeDecl()
	case p.match(lexer.TokenSet):
		return p.parseAssign()
	case p.match(lexer.TokenOutput, lexer.TokenOutputln):
		return p.parseOutput()
	case p.match(lexer.TokenIf):
		return p.parseIf()
	case p.match(lexer.TokenFor):
		return p.parseFor()
	case p.match(lexer.TokenLabel):
		return p.parseLabel()
	case p.match(lexer.TokenRepeat):
		at := p.previous.Position
		label := p.identifier("expected label name after 'repeat'")
		p.consume(lexer.TokenSemicolon, "expected ';' after repeat")
		return &ast.RepeatStmt{At: at, Label: label}
	case p.match(lexer.TokenRepent):
		at := p.previous.Position
		label := p.identifier("expected label name after 'repent'")
		p.consume(lexer.TokenSemicolon, "expected ';' after repent")
		return &ast.RepentStmt{At: at, Label: label}
	case p.match(lexer.TokenFunction, lexer.TokenProcedure):
		return p.parseFunction()
	case p.match(lexer.TokenReturn):
		return p.parseReturn()
	case p.match(lexer.TokenCall):
		return p.parseCall()
	default:
		p.error(fmt.Sprintf("expected statement, got %s", p.current.Type))
		p.advance()
		panic(bailout{})
	}
}

// parseDeclare parses: declare a, b type;
func (p *Parser) parseDeclare() *ast.DeclareStmt {
	at := p.previous.Position

	names := []*ast.Ident{p.identifier("expected variable name")}
	for p.match(lexer.TokenComma) {
		names = append(names, p.identifier("expected variable name after ','"))
	}

	typ := p.parseType()
	p.consume(lexer.TokenSemicolon, "expected ';' after declaration")

	return &ast.DeclareStmt{At: at, Names: names, Type: typ}
}

// parseTypeDecl parses: type name type;
func (p *Parser) parseTypeDecl() *ast.TypeStmt {
	at := p.previous.Position
	name := p.identifier("expected type name")
	typ := p.parseType()
	p.consume(lexer.TokenSemicolon, "expected ';' after type declaration")

	return &ast.TypeStmt{At: at, Name: name, Type: typ}
}

// parseType parses a type description.
//
// GRAMMAR:
//   type  = "integer" | "real" | "boolean" | "string" | ident
//         | "array" dims { dims } "of" type
//         | "structure" "(" field { "," field } ")"
//   dims  = "[" expr [ "," expr ] "]"
//   field = ident type
func (p *Parser) parseType() ast.Expr {
	tok := p.current

	if op, ok := baseTypes[tok.Type]; ok {
		p.advance()
		return &ast.Unary{At: tok.Position, Op: op}
	}

	switch {
	case p.check(lexer.TokenIdentifier):
		p.advance()
		return &ast.Ident{At: tok.Position, Name: tok.Lexeme}

	case p.match(lexer.TokenArray):
		return p.parseArrayType(tok.Position)

	case p.match(lexer.TokenStructure):
		p.consume(lexer.TokenLeftParen, "expected '(' after 'structure'")
		fields := []ast.Expr{p.parseField()}
		for p.match(lexer.TokenComma) {
			fields = append(fields, p.parseField())
		}
		p.consume(lexer.TokenRightParen, "expected ')' after structure fields")
		return &ast.Unary{At: tok.Position, Op: ast.Structure, Operand: ast.Chain(fields...)}
	}

	p.error(fmt.Sprintf("expected type, got %s", tok.Type))
	panic(bailout{})
}

// parseArrayType parses the dimensions and element type after "array".
// Extra dimensions nest to the right:
//   array [2][3] of integer = Array(Bounds 2, Array(Bounds 3, integer))
func (p *Parser) parseArrayType(at lexer.Position) ast.Expr {
	dims := make([]*ast.Binary, 0, 1)

	for p.check(lexer.TokenLeftBracket) || len(dims) == 0 {
		open := p.current.Position
		p.consume(lexer.TokenLeftBracket, "expected '[' after 'array'")

		bounds := &ast.Binary{At: open, Op: ast.Bounds, Left: p.parseExpression()}
		if p.match(lexer.TokenComma) {
			bounds.Right = p.parseExpression()
		}
		p.consume(lexer.TokenRightBracket, "expected ']' after array bounds")
		dims = append(dims, bounds)
	}

	p.consume(lexer.TokenOf, "expected 'of' after array bounds")
	typ := p.parseType()

	for i := len(dims) - 1; i >= 0; i-- {
		typ = &ast.Binary{At: at, Op: ast.Array, Left: dims[i], Right: typ}
		at = dims[i].At
	}
	return typ
}

func (p *Parser) parseField() ast.Expr {
	name := p.identifier("expected field name")
	return &ast.Binary{At: name.At, Op: ast.Field, Left: name, Right: p.parseType()}
}

// parseAssign parses: set lvalue := { lvalue := } expr;
func (p *Parser) parseAssign() *ast.AssignStmt {
	at := p.previous.Position

	targets := []ast.Expr{p.parsePrecedence(PrecCall)}
	p.consume(lexer.TokenBecomes, "expected ':=' in set statement")

	var value ast.Expr
	for {
		e := p.parseExpression()
		if !p.match(lexer.TokenBecomes) {
			value = e
			break
		}
		targets = append(targets, e)
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after set statement")

	return &ast.AssignStmt{At: at, Targets: targets, Value: value}
}

// parseOutput parses: output|outputln [ expr { , expr } ];
func (p *Parser) parseOutput() *ast.OutputStmt {
	stmt := &ast.OutputStmt{
		At:      p.previous.Position,
		Newline: p.previous.Type == lexer.TokenOutputln,
		Items:   make([]ast.Expr, 0),
	}

	if !p.check(lexer.TokenSemicolon) {
		stmt.Items = append(stmt.Items, p.parseExpression())
		for p.match(lexer.TokenComma) {
			stmt.Items = append(stmt.Items, p.parseExpression())
		}
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after output")
	return stmt
}

// parseIf parses: if expr then { stmt } [ else { stmt } ] fi;
func (p *Parser) parseIf() *ast.IfStmt {
	stmt := &ast.IfStmt{At: p.previous.Position}

	stmt.Cond = p.parseExpression()
	p.consume(lexer.TokenThen, "expected 'then' after condition")
	stmt.Then = p.parseBody(lexer.TokenElse, lexer.TokenFi)
	if p.match(lexer.TokenElse) {
		stmt.Else = p.parseBody(lexer.TokenFi)
	}
	p.consume(lexer.TokenFi, "expected 'fi' to close if")
	p.consume(lexer.TokenSemicolon, "expected ';' after 'fi'")
	return stmt
}

// parseFor parses:
//   for lvalue := expr [by expr] [to expr] [while expr] do { stmt } end;
func (p *Parser) parseFor() *ast.ForStmt {
	stmt := &ast.ForStmt{At: p.previous.Position}

	stmt.Target = p.parsePrecedence(PrecCall)
	p.consume(lexer.TokenBecomes, "expected ':=' after loop variable")
	stmt.Init = p.parseExpression()

	if p.match(lexer.TokenBy) {
		stmt.By = p.parseExpression()
	}
	if p.match(lexer.TokenTo) {
		stmt.To = p.parseExpression()
	}
	if p.match(lexer.TokenWhile) {
		stmt.While = p.parseExpression()
	}

	p.consume(lexer.TokenDo, "expected 'do' in for statement")
	stmt.Body = p.parseBody(lexer.TokenEnd)
	p.consume(lexer.TokenEnd, "expected 'end' to close for")
	p.consume(lexer.TokenSemicolon, "expected ';' after 'end'")
	return stmt
}

// parseLabel parses: label ident ( for ... | do { stmt } end; )
func (p *Parser) parseLabel() *ast.LabelStmt {
	stmt := &ast.LabelStmt{At: p.previous.Position}
	stmt.Name = p.identifier("expected label name")

	switch {
	case p.match(lexer.TokenFor):
		stmt.Loop = p.parseFor()
	case p.match(lexer.TokenDo):
		stmt.Body = p.parseBody(lexer.TokenEnd)
		p.consume(lexer.TokenEnd, "expected 'end' to close label block")
		p.consume(lexer.TokenSemicolon, "expected ';' after 'end'")
	default:
		p.error(fmt.Sprintf("expected 'for' or 'do' after label %s", stmt.Name.Name))
		panic(bailout{})
	}
	return stmt
}

// parseFunction parses a function or procedure definition:
//   function name ( [params] ) type ; { stmt } end ;
//   procedure name ( [params] ) ; { stmt } end ;
func (p *Parser) parseFunction() *ast.FunctionStmt {
	isFunction := p.previous.Type == lexer.TokenFunction
	stmt := &ast.FunctionStmt{At: p.previous.Position, Params: make([]*ast.Param, 0)}

	stmt.Name = p.identifier("expected function name")
	p.consume(lexer.TokenLeftParen, "expected '(' after function name")
	if !p.check(lexer.TokenRightParen) {
		for {
			param := &ast.Param{Name: p.identifier("expected parameter name")}
			param.Type = p.parseType()
			stmt.Params = append(stmt.Params, param)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "expected ')' after parameters")

	if isFunction {
		stmt.Result = p.parseType()
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after function header")

	stmt.Body = p.parseBody(lexer.TokenEnd)
	p.consume(lexer.TokenEnd, "expected 'end' to close function")
	p.consume(lexer.TokenSemicolon, "expected ';' after 'end'")
	return stmt
}

// parseReturn parses: return [ expr ];
func (p *Parser) parseReturn() *ast.ReturnStmt {
	stmt := &ast.ReturnStmt{At: p.previous.Position}
	if !p.check(lexer.TokenSemicolon) {
		stmt.Value = p.parseExpression()
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after return")
	return stmt
}

// parseCall parses: call ident ( [ args ] );
func (p *Parser) parseCall() *ast.CallStmt {
	at := p.previous.Position
	name := p.identifier("expected procedure name after 'call'")

	open := p.current.Position
	p.consume(lexer.TokenLeftParen, "expected '(' after procedure name")
	call := &ast.Binary{At: open, Op: ast.Call, Left: name, Right: p.parseArguments()}
	p.consume(lexer.TokenSemicolon, "expected ';' after call")

	return &ast.CallStmt{At: at, Call: call}
}

// parseArguments parses a possibly empty argument list and the closing
// parenthesis; the opening one is already consumed.
func (p *Parser) parseArguments() ast.Expr {
	var args []ast.Expr
	if !p.check(lexer.TokenRightParen) {
		args = append(args, p.parseExpression())
		for p.match(lexer.TokenComma) {
			args = append(args, p.parseExpression())
		}
	}
	p.consume(lexer.TokenRightParen, "expected ')' after arguments")
	return ast.Chain(args...)
}

// Expressions

// parseExpression parses an expression at the lowest precedence.
func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(PrecOr)
}

// parsePrecedence is the Pratt loop: parse a prefix expression, then keep
// folding infix and postfix operators that bind at least as tightly as
// precedence.
func (p *Parser) parsePrecedence(precedence Precedence) ast.Expr {
	left := p.parsePrefix()

	for precedence <= getPrecedence(p.current.Type) {
		left = p.parseInfix(left)
	}
	return left
}

// parsePrefix parses literals, identifiers, grouping and unary operators.
func (p *Parser) parsePrefix() ast.Expr {
	tok := p.current

	switch tok.Type {
	case lexer.TokenInteger:
		p.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("integer literal %s out of range", tok.Lexeme))
		}
		return &ast.IntLit{At: tok.Position, Value: int32(n)}

	case lexer.TokenReal:
		p.advance()
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("invalid real literal %s", tok.Lexeme))
		}
		return &ast.RealLit{At: tok.Position, Value: f}

	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return &ast.BoolLit{At: tok.Position, Value: tok.Type == lexer.TokenTrue}

	case lexer.TokenText:
		p.advance()
		text, err := strconv.Unquote(tok.Lexeme)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("invalid escape in text literal %s", tok.Lexeme))
		}
		return ast.NewText(tok.Position, text)

	case lexer.TokenIdentifier:
		p.advance()
		return &ast.Ident{At: tok.Position, Name: tok.Lexeme}

	case lexer.TokenLeftParen:
		p.advance()
		e := p.parseExpression()
		p.consume(lexer.TokenRightParen, "expected ')' after expression")
		return e

	case lexer.TokenMinus, lexer.TokenFix, lexer.TokenFloat:
		p.advance()
		op := ast.Neg
		switch tok.Type {
		case lexer.TokenFix:
			op = ast.Fix
		case lexer.TokenFloat:
			op = ast.Float
		}
		return &ast.Unary{At: tok.Position, Op: op, Operand: p.parsePrecedence(PrecUnary)}
	}

	p.error(fmt.Sprintf("expected expression, got %s", tok.Type))
	panic(bailout{})
}

// parseInfix folds one infix or postfix operator onto left.
func (p *Parser) parseInfix(left ast.Expr) ast.Expr {
	tok := p.current
	p.advance()

	switch tok.Type {
	case lexer.TokenLeftBracket:
		var indices []ast.Expr
		indices = append(indices, p.parseExpression())
		for p.match(lexer.TokenComma) {
			indices = append(indices, p.parseExpression())
		}
		p.consume(lexer.TokenRightBracket, "expected ']' after index")
		return &ast.Binary{At: left.Pos(), Op: ast.Index, Left: left, Right: ast.Chain(indices...)}

	case lexer.TokenDot:
		field := p.identifier("expected field name after '.'")
		return &ast.Binary{At: left.Pos(), Op: ast.Period, Left: left, Right: field}

	case lexer.TokenLeftParen:
		return &ast.Binary{At: left.Pos(), Op: ast.Call, Left: left, Right: p.parseArguments()}
	}

	op := binaryOps[tok.Type]
	// Left-associative: the right operand binds one level tighter.
	right := p.parsePrecedence(getPrecedence(tok.Type) + 1)
	return &ast.Binary{At: tok.Position, Op: op, Left: left, Right: right}
}

// Token helpers

// identifier consumes an identifier or reports message.
func (p *Parser) identifier(message string) *ast.Ident {
	tok := p.current
	p.consume(lexer.TokenIdentifier, message)
	return &ast.Ident{At: tok.Position, Name: tok.Lexeme}
}

// advance moves to the next non-comment token. Lexical errors are recorded
// and the invalid token is passed through.
func (p *Parser) advance() {
	p.previous = p.current
	for {
		token, err := p.lexer.NextToken()
		if err != nil {
			p.errors = append(p.errors, &SyntaxError{Pos: token.Position, Message: stripPosition(err.Error(), token.Position)})
		}
		if token.Type != lexer.TokenComment {
			p.current = token
			return
		}
	}
}

// stripPosition removes the "file:line:col: " prefix the lexer puts on its
// errors, since SyntaxError adds it back.
func stripPosition(msg string, pos lexer.Position) string {
	prefix := pos.String() + ": "
	if len(msg) >= len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func (p *Parser) check(tokenTypes ...lexer.TokenType) bool {
	for _, tt := range tokenTypes {
		if p.current.Type == tt {
			return true
		}
	}
	return false
}

func (p *Parser) match(tokenTypes ...lexer.TokenType) bool {
	if p.check(tokenTypes...) {
		p.advance()
		return true
	}
	return false
}

// consume advances past an expected token or reports message and unwinds
// to the enclosing statement.
func (p *Parser) consume(tokenType lexer.TokenType, message string) {
	if p.check(tokenType) {
		p.advance()
		return
	}
	p.error(message)
	panic(bailout{})
}

func (p *Parser) isAtEnd() bool {
	return p.current.Type == lexer.TokenEOF
}

// error reports message at the current token and enters panic mode; the
// caller unwinds with bailout right after.
func (p *Parser) error(message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.errorAt(p.current, message)
}

// errorAt records an error at tok. Once input has run out, only the first
// end-of-input error is kept.
func (p *Parser) errorAt(tok lexer.Token, message string) {
	if tok.Type == lexer.TokenEOF && len(p.errors) > 0 {
		if last, ok := p.errors[len(p.errors)-1].(*SyntaxError); ok && last.AtEOF {
			return
		}
	}
	p.errors = append(p.errors, &SyntaxError{
		Pos:     tok.Position,
		Message: message,
		AtEOF:   tok.Type == lexer.TokenEOF,
	})
}

// synchronize skips tokens until a statement boundary: just past a ';' or
// at a token that starts a statement or closes a body.
func (p *Parser) synchronize() {
	p.panicMode = false

	for !p.isAtEnd() {
		if p.previous.Type == lexer.TokenSemicolon {
			return
		}

		if p.current.Type.StartsStatement() {
			return
		}
		switch p.current.Type {
		case lexer.TokenEnd, lexer.TokenFi, lexer.TokenElse:
			return
		}

		p.advance()
	}
}
