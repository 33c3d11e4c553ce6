// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/instr"
	"github.com/gdscript-tools/bcopt/opcode"
)

// availableExpr is one entry in local CSE's per-block expression
// table: the normalized expression, the address it was last computed
// into, and whether a later write has made it stale.
type availableExpr struct {
	expr    instr.OpExpression
	target  addr.Address
	removed bool
}

// PassLocalCommonSubexpressionElimination elides a re-computation of
// an expression already available earlier in the same block, instead
// redirecting reads of its target to the address already holding the
// value. It never looks across block boundaries: an elision that
// would still be visible to a successor is made visible again by a
// materializing ASSIGN appended at the end of the block.
func (o *FunctionOptimizer) PassLocalCommonSubexpressionElimination() error {
	if o.cfg == nil {
		return ErrNotBegun
	}
	if err := o.requireDataFlow(); err != nil {
		return err
	}

	for _, b := range o.cfg.Blocks {
		if len(b.Instructions) == 0 {
			continue
		}

		var availables []availableExpr
		swaps := make(map[addr.Address]addr.Address)
		kept := make([]instr.Instruction, 0, len(b.Instructions))

		for _, orig := range b.Instructions {
			i := orig

			if substituteSwaps(&i, swaps) {
				i.SortOperands()
			}

			dropped := false
			added := -1
			if i.IsExpression() {
				expr := instr.FromInstruction(i)
				if idx, ok := findAvailable(availables, expr); ok {
					dropped = true
					swaps[i.TargetAddress] = availables[idx].target
				} else {
					added = len(availables)
					availables = append(availables, availableExpr{expr: expr, target: i.TargetAddress})
				}
			}

			writes := !dropped && i.WritesTarget()
			if writes {
				target := i.TargetAddress
				for idx := range availables {
					if availables[idx].removed {
						continue
					}
					if idx == added && !exprReadsAddress(availables[idx].expr, target) {
						continue
					}
					if availables[idx].target == target || exprReadsAddress(availables[idx].expr, target) {
						availables[idx].removed = true
					}
				}
				for k, v := range swaps {
					if v == target {
						kept = append(kept, materializingAssign(k, v))
						delete(swaps, k)
					}
				}
				delete(swaps, target)
			}

			if !dropped {
				kept = append(kept, i)
			}
		}

		for k, v := range swaps {
			if b.Outs.Contains(k) {
				kept = append(kept, materializingAssign(k, v))
			}
		}

		b.Instructions = kept
	}

	return nil
}

func findAvailable(availables []availableExpr, expr instr.OpExpression) (int, bool) {
	for idx, a := range availables {
		if a.removed {
			continue
		}
		if a.expr.Equal(expr) {
			return idx, true
		}
	}
	return 0, false
}

// exprReadsAddress reports whether e reads a, either as its
// expression-level source operand.
func exprReadsAddress(e instr.OpExpression, a addr.Address) bool {
	if e.DefUse.Has(opcode.Source0) && e.SourceAddress0 == a {
		return true
	}
	if (e.DefUse.Has(opcode.Source1) || e.DefUse.Has(opcode.Index)) && e.SourceAddress1 == a {
		return true
	}
	return false
}

// substituteSwaps rewrites every read slot of i whose address is
// redirected by swaps. Reports whether anything changed, so the
// caller knows to re-normalize a commutative operator's operand
// order.
func substituteSwaps(i *instr.Instruction, swaps map[addr.Address]addr.Address) bool {
	changed := false
	if i.DefUse.Has(opcode.Source0) {
		if v, ok := swaps[i.SourceAddress0]; ok {
			i.SourceAddress0 = v
			changed = true
		}
	}
	if i.DefUse.Has(opcode.Source1) || i.DefUse.Has(opcode.Index) {
		if v, ok := swaps[i.SourceAddress1]; ok {
			i.SourceAddress1 = v
			changed = true
		}
	}
	if i.DefUse.Has(opcode.Varargs) {
		for idx, a := range i.Varargs {
			if v, ok := swaps[a]; ok {
				i.Varargs[idx] = v
				changed = true
			}
		}
	}
	return changed
}

// materializingAssign rebuilds the observable effect of an elided
// expression so a later overwrite or a block boundary can't make the
// elision visible as a behavior change.
func materializingAssign(target, source addr.Address) instr.Instruction {
	return instr.Instruction{
		Opcode:         opcode.ASSIGN,
		TargetAddress:  target,
		SourceAddress0: source,
		DefUse:         opcode.Target | opcode.Source0,
		Stride:         3,
	}
}
