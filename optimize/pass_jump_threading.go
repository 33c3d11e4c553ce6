// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import "github.com/gdscript-tools/bcopt/cfg"

// PassJumpThreading splices empty NORMAL blocks out of the jump
// graph and collapses conditionals whose two arms converge. It runs
// to a fixed point internally: threading one block's predecessors
// through to its successor can expose another empty block, or make a
// BRANCH_IF_NOT block's two edges converge, so the two rewrites keep
// alternating until a full round changes nothing. The spliced-out
// blocks are left in place for dead-block elimination to collect.
func (o *FunctionOptimizer) PassJumpThreading() error {
	if o.cfg == nil {
		return ErrNotBegun
	}
	for {
		// Both rewrites run every round, unconditionally of each other:
		// threading can make a BRANCH_IF_NOT's arms converge, and
		// collapsing a BRANCH_IF_NOT can expose a newly-empty NORMAL
		// block for threading.
		threaded := o.threadEmptyBlocks()
		collapsed := o.collapseConvergentBranches()
		if !threaded && !collapsed {
			return nil
		}
		o.invalidateDataFlow()
	}
}

// threadEmptyBlocks redirects every predecessor of a zero-instruction,
// unfrozen NORMAL block to that block's sole successor.
func (o *FunctionOptimizer) threadEmptyBlocks() bool {
	g := o.cfg
	changed := false

	for id, b := range g.Blocks {
		if id == g.EntryID || id == g.ExitID {
			continue
		}
		if b.Type != cfg.Normal || b.IsFrozen() || len(b.Instructions) != 0 {
			continue
		}
		if len(b.ForwardEdges) != 1 || b.ForwardEdges[0] == id {
			continue
		}
		succID := b.ForwardEdges[0]
		succ, ok := g.Blocks[succID]
		if !ok || b.BackEdges.Cardinality() == 0 {
			continue
		}

		for _, predID := range b.BackEdges.ToSlice() {
			pred, ok := g.Blocks[predID]
			if !ok {
				continue
			}
			pred.ReplaceJumps(id, succID)
			b.BackEdges.Remove(predID)
			succ.BackEdges.Add(predID)
			changed = true
		}
	}
	return changed
}

// collapseConvergentBranches reclassifies a BRANCH_IF_NOT block whose
// two forward edges land on the same block as an unconditional NORMAL
// block.
func (o *FunctionOptimizer) collapseConvergentBranches() bool {
	changed := false
	for _, b := range o.cfg.Blocks {
		if b.Type != cfg.BranchIfNot {
			continue
		}
		if len(b.ForwardEdges) == 2 && b.ForwardEdges[0] == b.ForwardEdges[1] {
			b.Type = cfg.Normal
			b.ForwardEdges = b.ForwardEdges[:1]
			changed = true
		}
	}
	return changed
}
