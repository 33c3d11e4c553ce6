// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

// PassDeadBlockElimination removes every block with an empty
// back-edge set, other than the entry, the exit, and frozen defarg
// blocks (the dispatch table points at those by absolute offset even
// when nothing else in the graph jumps to them). Safe to call
// repeatedly: a block orphaned by one sweep's removals is picked up
// by the next sweep, not this one.
func (o *FunctionOptimizer) PassDeadBlockElimination() error {
	if o.cfg == nil {
		return ErrNotBegun
	}
	g := o.cfg

	var condemned []int
	for id, b := range g.Blocks {
		if id == g.EntryID || id == g.ExitID {
			continue
		}
		if b.IsFrozen() {
			continue
		}
		if b.BackEdges.Cardinality() != 0 {
			continue
		}
		condemned = append(condemned, id)
	}

	for _, id := range condemned {
		b := g.Blocks[id]
		for _, t := range b.ForwardEdges {
			if target, ok := g.Blocks[t]; ok {
				target.BackEdges.Remove(id)
			}
		}
		delete(g.Blocks, id)
	}

	if len(condemned) > 0 {
		g.Order = pruneOrder(g.Order, condemned)
		o.invalidateDataFlow()
	}
	return nil
}

func pruneOrder(order []int, removed []int) []int {
	gone := make(map[int]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}
	kept := order[:0]
	for _, id := range order {
		if !gone[id] {
			kept = append(kept, id)
		}
	}
	return kept
}
