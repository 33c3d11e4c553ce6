// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"github.com/gdscript-tools/bcopt/cfg"
	"github.com/gdscript-tools/bcopt/instr"
)

// PassDeadAssignmentElimination drops an instruction whose target is
// never read again in this block or any successor, as long as
// dropping it can't change observable behavior
// (instr.Instruction.MayHaveSideEffects reports the instructions this
// pass must never remove). Walks each block backward from its
// live-out set so a use further down the block keeps the definition
// that reaches it alive.
func (o *FunctionOptimizer) PassDeadAssignmentElimination() error {
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

		live := b.Outs.Clone()
		switch b.Type {
		case cfg.BranchIfNot:
			live.Add(b.JumpConditionAddress)
		case cfg.Iterate, cfg.IterateBegin:
			live.Add(b.IteratorContainerAddress)
		}

		kept := make([]instr.Instruction, 0, len(b.Instructions))
		for idx := len(b.Instructions) - 1; idx >= 0; idx-- {
			i := b.Instructions[idx]

			if i.WritesTarget() && !live.Contains(i.TargetAddress) && !i.MayHaveSideEffects() {
				continue
			}

			if i.WritesTarget() {
				live.Remove(i.TargetAddress)
			}
			for _, a := range i.ReadAddresses() {
				live.Add(a)
			}
			kept = append(kept, i)
		}

		for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
			kept[l], kept[r] = kept[r], kept[l]
		}
		b.Instructions = kept
	}

	o.invalidateDataFlow()
	return nil
}
