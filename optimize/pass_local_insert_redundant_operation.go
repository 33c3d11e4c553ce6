// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/instr"
	"github.com/gdscript-tools/bcopt/opcode"
)

// PassLocalInsertRedundantOperation rewrites a copy of a known
// expression's result into a direct duplicate of that expression. `s
// ← a+b; t ← s` becomes `s ← a+b; t ← a+b`, collapsing the copy chain
// so local CSE (run afterward) can fold the two additions into one.
// On its own this can make a block bigger; it only pays off once LCSE
// and dead-assignment-elimination run after it.
func (o *FunctionOptimizer) PassLocalInsertRedundantOperation() error {
	if o.cfg == nil {
		return ErrNotBegun
	}
	changed := false

	for _, b := range o.cfg.Blocks {
		if len(b.Instructions) == 0 {
			continue
		}

		available := make(map[addr.Address]instr.OpExpression)
		for idx := range b.Instructions {
			i := &b.Instructions[idx]

			if i.Opcode == opcode.ASSIGN {
				if expr, ok := available[i.SourceAddress0]; ok {
					rewriteAssignFromExpression(i, expr)
					changed = true
				}
			}

			if i.WritesTarget() {
				invalidateAvailable(available, i.TargetAddress)
			}
			if i.IsExpression() {
				available[i.TargetAddress] = instr.FromInstruction(*i)
			}
		}
	}

	if changed {
		o.invalidateDataFlow()
	}
	return nil
}

// invalidateAvailable drops every recorded expression that a write to
// target makes stale: the entry keyed by target itself, and any entry
// whose expression reads target as an operand — an available `a+b ->
// s` is no longer valid for reuse once `a` or `b` is overwritten, even
// though the write lands on neither s nor its own key.
func invalidateAvailable(available map[addr.Address]instr.OpExpression, target addr.Address) {
	delete(available, target)
	for k, expr := range available {
		if exprReadsAddress(expr, target) {
			delete(available, k)
		}
	}
}

// rewriteAssignFromExpression turns an ASSIGN into a duplicate of
// expr, keeping the ASSIGN's own target.
func rewriteAssignFromExpression(i *instr.Instruction, expr instr.OpExpression) {
	i.Opcode = expr.Opcode
	i.VariantOp = expr.VariantOp
	i.SourceAddress0 = expr.SourceAddress0
	i.SourceAddress1 = expr.SourceAddress1
	i.DefUse = expr.DefUse | opcode.Target
	i.Stride = strideForExpressionOpcode(expr.Opcode)
}

func strideForExpressionOpcode(op opcode.Opcode) int {
	if op == opcode.OPERATOR {
		return 5
	}
	return 3 // ASSIGN
}
