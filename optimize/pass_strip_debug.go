// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"github.com/gdscript-tools/bcopt/opcode"
	"github.com/gdscript-tools/bcopt/worklist"
)

// PassStripDebug drops LINE and BREAKPOINT instructions from every
// block reachable from the entry. Frozen defarg blocks are skipped
// entirely — shrinking one would move an offset the dispatch table
// still points at. LINE and BREAKPOINT contribute nothing to a
// block's def/use sets, so this never invalidates liveness.
func (o *FunctionOptimizer) PassStripDebug() error {
	if o.cfg == nil {
		return ErrNotBegun
	}
	g := o.cfg

	wl := worklist.NewDistinct[int]()
	wl.Push(g.EntryID)
	for !wl.Empty() {
		id := wl.Pop()
		b, err := g.Block(id)
		if err != nil {
			return err
		}
		if !b.IsFrozen() {
			kept := b.Instructions[:0]
			for _, i := range b.Instructions {
				if i.Opcode == opcode.LINE || i.Opcode == opcode.BREAKPOINT {
					continue
				}
				kept = append(kept, i)
			}
			b.Instructions = kept
		}
		for _, t := range b.ForwardEdges {
			wl.Push(t)
		}
	}
	return nil
}
