package semantic

import (
	"fmt"

	"github.com/hassan/minic/internal/lexer"
)

// ContractError reports a tree or frame state the lowering core cannot
// handle: a required child is missing, a statement kind is unexpected, or
// a control-flow frame was ended out of order. It is raised with panic and
// returned by Lower; it never counts as a diagnostic.
type ContractError struct {
	Pos     lexer.Position
	Message string
}

func (e *ContractError) Error() string {
	if !e.Pos.IsValid() {
		return "contract violation: " + e.Message
	}
	return fmt.Sprintf("%s: contract violation: %s", e.Pos, e.Message)
}

func violation(pos lexer.Position, format string, args ...interface{}) *ContractError {
	return &ContractError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// popFrame removes frame from the top of stack, or panics if it is not
// the top.
func popFrame[F comparable](stack *[]F, frame F, what string) {
	checkTop(*stack, frame, what)
	*stack = (*stack)[:len(*stack)-1]
}

func checkTop[F comparable](stack []F, frame F, what string) {
	if len(stack) == 0 {
		panic(violation(lexer.Position{}, "%s frame ended but none is open", what))
	}
	if stack[len(stack)-1] != frame {
		panic(violation(lexer.Position{}, "%s frame ended out of order", what))
	}
}
