package ir

// Prune removes basic blocks that cannot be reached from the entry block.
// Returns true if any blocks were removed.
//
// Unreachable blocks appear naturally during lowering: code after a return
// or repent lands in a "dead" block, and a merge block whose arms both
// returned has no predecessors.
//
// ALGORITHM:
// 1. Start from entry block
// 2. Do a DFS with an explicit stack following successor edges
// 3. Drop blocks not visited, and drop them from surviving predecessor lists
func Prune(fn *Function) bool {
	if fn.External {
		return false
	}

	reachable := make(map[*BasicBlock]bool)
	stack := []*BasicBlock{fn.Entry}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if reachable[current] {
			continue
		}
		reachable[current] = true

		for _, succ := range current.Successors {
			if !reachable[succ] {
				stack = append(stack, succ)
			}
		}
	}

	newBlocks := make([]*BasicBlock, 0, len(fn.Blocks))
	modified := false

	for _, block := range fn.Blocks {
		if reachable[block] {
			newBlocks = append(newBlocks, block)
		} else {
			modified = true
		}
	}

	if !modified {
		return false
	}

	fn.Blocks = newBlocks
	for i, block := range fn.Blocks {
		block.Index = i
		preds := block.Predecessors[:0]
		for _, p := range block.Predecessors {
			if reachable[p] {
				preds = append(preds, p)
			}
		}
		block.Predecessors = preds
	}

	return true
}

// Prune removes unreachable blocks from every function of the module.
func (m *Module) Prune() bool {
	modified := false
	for _, fn := range m.Functions {
		if Prune(fn) {
			modified = true
		}
	}
	return modified
}
