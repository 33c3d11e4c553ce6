// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/worklist"
)

// AnalyzeDataFlow runs the standard backward fixed-point live-variable
// analysis over the graph: ins(B) = uses(B) ∪ (outs(B) \ defs(B)),
// outs(B) = ⋃ ins(succ). Each sweep walks from ExitID along
// back-edges with a distinct-history worklist, so a sweep visits any
// given block at most once; the outer repeat-until-no-change loop
// reruns sweeps because a loop body can need more than one sweep to
// converge. Convergence is guaranteed because every set only grows
// over a finite address universe.
func (g *ControlFlowGraph) AnalyzeDataFlow() error {
	if _, ok := g.Blocks[g.EntryID]; !ok {
		return ErrNoEntry
	}
	if _, ok := g.Blocks[g.ExitID]; !ok {
		return ErrNoExit
	}

	for _, b := range g.Blocks {
		b.UpdateDefUse()
		b.Ins = b.Uses.Clone()
		b.Outs = mapset.NewThreadUnsafeSet[addr.Address]()
	}

	for {
		changed := false

		sweep := worklist.NewDistinct[int]()
		sweep.Push(g.ExitID)

		for !sweep.Empty() {
			id := sweep.Pop()
			b, ok := g.Blocks[id]
			if !ok {
				return blockNotFoundError(id)
			}

			newOuts := mapset.NewThreadUnsafeSet[addr.Address]()
			for _, succID := range b.ForwardEdges {
				succ, ok := g.Blocks[succID]
				if !ok {
					return blockNotFoundError(succID)
				}
				newOuts = newOuts.Union(succ.Ins)
			}
			newIns := b.Uses.Clone().Union(newOuts.Difference(b.Defs))

			if !newIns.Equal(b.Ins) || !newOuts.Equal(b.Outs) {
				changed = true
			}
			b.Ins = newIns
			b.Outs = newOuts

			for _, pred := range b.BackEdges.ToSlice() {
				sweep.Push(pred)
			}
		}

		if !changed {
			return nil
		}
	}
}
