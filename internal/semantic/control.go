package semantic

import (
	"github.com/hassan/minic/internal/ir"
	"github.com/hassan/minic/internal/lexer"
	"github.com/hassan/minic/internal/parser/ast"
	"github.com/hassan/minic/internal/semantic/types"
)

// CondFrame is an open conditional.
//
// CONTROL FLOW:
//          cond != false
//         /             \
//      then             else
//         \             /
//            ifcont
//
// Both arms end in a branch to ifcont. Without an else part the else
// block only branches on.
type CondFrame struct {
	l *Lowerer

	Then  *ir.BasicBlock
	Else  *ir.BasicBlock
	Merge *ir.BasicBlock

	inElse bool
}

func (l *Lowerer) newCond() *CondFrame {
	fn := l.currentFunction()
	return &CondFrame{
		l:     l,
		Then:  l.b.CreateBlock(fn, "then"),
		Else:  l.b.CreateBlock(fn, "else"),
		Merge: l.b.CreateBlock(fn, "ifcont"),
	}
}

// BeginIf evaluates cond, branches on it and opens the then arm.
func (l *Lowerer) BeginIf(cond ast.Expr) *CondFrame {
	f := l.newCond()
	l.conds = append(l.conds, f)

	l.b.CondBranch(l.condition(cond), f.Then, f.Else)
	l.b.SetInsertPoint(f.Then)
	return f
}

// BeginElse closes the then arm and opens the else arm.
func (f *CondFrame) BeginElse() {
	checkTop(f.l.conds, f, "conditional")
	if f.inElse {
		panic(violation(lexer.Position{}, "conditional has two else parts"))
	}
	f.l.b.Branch(f.Merge)
	f.l.b.SetInsertPoint(f.Else)
	f.inElse = true
}

// End closes the conditional and continues at ifcont.
func (f *CondFrame) End() {
	l := f.l
	popFrame(&l.conds, f, "conditional")
	if !f.inElse {
		l.b.Branch(f.Else)
		l.b.SetInsertPoint(f.Else)
	}
	l.b.Branch(f.Merge)
	l.b.SetInsertPoint(f.Merge)
}

// condition lowers a boolean test to "cond != false". A test that failed
// to resolve, or is not boolean, is replaced by false so the frame still
// gets its edges.
func (l *Lowerer) condition(e ast.Expr) *ir.Value {
	v := l.lowerExpr(e)
	if v == nil {
		return ir.ConstBool(false)
	}
	if !types.IsBool(v.Type) {
		l.errorf(e.Pos(), "Must be boolean type")
		return ir.ConstBool(false)
	}
	return l.b.Compare(ir.PredNE, v, ir.ConstBool(false))
}

func (l *Lowerer) lowerIf(s *ast.IfStmt) {
	f := l.BeginIf(s.Cond)
	l.lowerBody(s.Then)
	if s.Else != nil {
		f.BeginElse()
		l.lowerBody(s.Else)
	}
	f.End()
}

// LoopFrame is an open counted loop. It owns a conditional frame whose
// blocks play the loop roles: Merge is the head, Then the step, Else the
// exit.
//
// CONTROL FLOW:
//   target := init
//   br ifcont
// ifcont:                      head
//   if not while goto else
//   if target > to goto else
//   <body>
//   br then
// then:                        step
//   target := target + by
//   br ifcont
// else:                        exit
//
// The target is resolved once, before the loop. A target that failed to
// resolve leaves addr nil; head and step then skip it.
type LoopFrame struct {
	l    *Lowerer
	cond *CondFrame
	addr *ir.Value
	typ  types.Type

	Target ast.Expr
	By     ast.Expr
	To     ast.Expr
}

// Head returns the block that tests the loop condition.
func (f *LoopFrame) Head() *ir.BasicBlock { return f.cond.Merge }

// Step returns the block that advances the target.
func (f *LoopFrame) Step() *ir.BasicBlock { return f.cond.Then }

// Exit returns the block after the loop.
func (f *LoopFrame) Exit() *ir.BasicBlock { return f.cond.Else }

// BeginLoop stores the initial value, emits the head tests and opens the
// body. by, to and while may be nil. A label that decorates this loop gets
// the step block as its repeat target and the exit as its repent target.
func (l *Lowerer) BeginLoop(target, init, by, to, while ast.Expr) *LoopFrame {
	addr, typ := l.loopTarget(target)
	l.storeAt(target, addr, typ, l.lowerExpr(init))

	cond := l.newCond()
	l.conds = append(l.conds, cond)
	if n := len(l.labels); n > 0 {
		if label := l.labels[n-1]; label.ForLoop && label.Repeat == nil {
			label.Repeat = cond.Then
			label.Exit = cond.Else
		}
	}
	f := &LoopFrame{l: l, cond: cond, addr: addr, typ: typ, Target: target, By: by, To: to}
	l.loops = append(l.loops, f)

	l.b.Branch(cond.Merge)
	l.b.SetInsertPoint(cond.Merge)
	index := f.index()

	fn := l.currentFunction()
	if while != nil {
		next := l.b.CreateBlock(fn, "to_label")
		l.b.CondBranch(l.condition(while), next, cond.Else)
		l.b.SetInsertPoint(next)
	}
	if to != nil {
		body := l.b.CreateBlock(fn, "loop_body")
		l.b.CondBranch(l.withinBound(index, to), body, cond.Else)
		l.b.SetInsertPoint(body)
	}
	return f
}

// loopTarget resolves the loop target to its address. The target must
// be an assignable numeric location; nil means it was reported.
func (l *Lowerer) loopTarget(target ast.Expr) (*ir.Value, types.Type) {
	addr, t := l.place(target)
	if addr == nil {
		return nil, nil
	}
	if !types.IsNumeric(t) {
		l.errorf(target.Pos(), "%s: loop target must be numeric", target.Show())
		return nil, nil
	}
	return addr, t
}

// index loads the current value of the target, or nil when it failed.
func (f *LoopFrame) index() *ir.Value {
	if f.addr == nil {
		return nil
	}
	return f.l.b.Load(f.typ, f.addr)
}

// withinBound compares target <= to with the promotion rule.
func (l *Lowerer) withinBound(index *ir.Value, to ast.Expr) *ir.Value {
	bound := l.lowerExpr(to)
	if index == nil || bound == nil {
		return ir.ConstBool(false)
	}
	if !types.IsNumeric(index.Type) || !types.IsNumeric(bound.Type) {
		l.invalidOperands(to.Pos(), ast.LessEq)
		return ir.ConstBool(false)
	}
	index, bound = l.promote(index, bound)
	if types.IsReal(index.Type) {
		return l.b.Compare(floatCompare[ast.LessEq], index, bound)
	}
	return l.b.Compare(intCompare[ast.LessEq], index, bound)
}

// End emits the step (by defaults to 1), branches back to the head, and
// continues after the loop.
func (f *LoopFrame) End() {
	l := f.l
	checkTop(l.loops, f, "loop")
	checkTop(l.conds, f.cond, "loop")
	l.loops = l.loops[:len(l.loops)-1]
	l.conds = l.conds[:len(l.conds)-1]

	l.b.Branch(f.Step())
	l.b.SetInsertPoint(f.Step())

	step := ir.ConstInt(1)
	if f.By != nil {
		step = l.lowerExpr(f.By)
	}
	if index := f.index(); index != nil && step != nil {
		if types.IsNumeric(step.Type) {
			index, step = l.promote(index, step)
			op := intArith[ast.Plus]
			if types.IsReal(index.Type) {
				op = floatArith[ast.Plus]
			}
			l.storeAt(f.Target, f.addr, f.typ, l.b.Binary(op, index, step))
		} else {
			l.invalidOperands(f.By.Pos(), ast.Plus)
		}
	}

	l.b.Branch(f.Head())
	l.b.SetInsertPoint(f.Exit())
}

func (l *Lowerer) lowerFor(s *ast.ForStmt) {
	f := l.BeginLoop(s.Target, s.Init, s.By, s.To, s.While)
	l.lowerBody(s.Body)
	f.End()
}

// LabelFrame is an open labelled construct.
//
// A label on a loop takes its blocks from the loop: repeat goes to the
// step, repent to the exit. A label on a block opens "bb" at once and
// branches into it; repeat goes back to bb, and the first repent creates
// the exit block "be".
type LabelFrame struct {
	l  *Lowerer
	fn *ir.Function

	Name    string
	ForLoop bool
	Repeat  *ir.BasicBlock
	Exit    *ir.BasicBlock
}

// BeginLabel opens a label. forLoop selects the loop flavor; the loop
// must begin next.
func (l *Lowerer) BeginLabel(name *ast.Ident, forLoop bool) *LabelFrame {
	f := &LabelFrame{l: l, fn: l.currentFunction(), Name: name.Name, ForLoop: forLoop}
	if !forLoop {
		f.Repeat = l.b.CreateBlock(f.fn, "bb")
		l.b.Branch(f.Repeat)
		l.b.SetInsertPoint(f.Repeat)
	}
	l.labels = append(l.labels, f)
	return f
}

// exit returns the repent target, creating it on first use.
func (f *LabelFrame) exit() *ir.BasicBlock {
	if f.Exit == nil && !f.ForLoop {
		f.Exit = f.l.b.CreateBlock(f.fn, "be")
	}
	return f.Exit
}

// End closes the label. A block label that was repented continues at its
// exit block.
func (f *LabelFrame) End() {
	l := f.l
	popFrame(&l.labels, f, "label")
	if !f.ForLoop && f.Exit != nil {
		l.b.Branch(f.Exit)
		l.b.SetInsertPoint(f.Exit)
	}
}

func (l *Lowerer) lowerLabel(s *ast.LabelStmt) {
	if s.Loop != nil {
		f := l.BeginLabel(s.Name, true)
		l.lowerFor(s.Loop)
		f.End()
		return
	}
	f := l.BeginLabel(s.Name, false)
	l.lowerBody(s.Body)
	f.End()
}

// findLabel resolves an active label of the current function; the
// innermost one wins.
func (l *Lowerer) findLabel(id *ast.Ident) *LabelFrame {
	fn := l.currentFunction()
	for i := len(l.labels) - 1; i >= 0; i-- {
		if f := l.labels[i]; f.Name == id.Name && f.fn == fn {
			return f
		}
	}
	l.errorf(id.Pos(), "%s: label is unknown", id.Name)
	return nil
}

// Repeat jumps back to the head of a labelled construct.
func (l *Lowerer) Repeat(id *ast.Ident) {
	f := l.findLabel(id)
	if f == nil {
		return
	}
	if f.Repeat == nil {
		panic(violation(id.Pos(), "label %s has no loop", id.Name))
	}
	l.b.Branch(f.Repeat)
}

// Repent leaves a labelled construct.
func (l *Lowerer) Repent(id *ast.Ident) {
	f := l.findLabel(id)
	if f == nil {
		return
	}
	exit := f.exit()
	if exit == nil {
		panic(violation(id.Pos(), "label %s has no loop", id.Name))
	}
	l.b.Branch(exit)
}
