// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"sort"

	"github.com/gdscript-tools/bcopt/opcode"
	"github.com/gdscript-tools/bcopt/worklist"
)

const (
	entryBlockID = -1
	exitBlockID  = -2
)

// isTerminator reports whether op ends a block. JUMP_TO_DEF_ARGUMENT
// and the branch family end a block by jumping; RETURN/END end a
// block by reaching the CFG's single exit — opcode.IsBranch is false
// for those two, so they're checked separately.
func isTerminator(op opcode.Opcode) bool {
	return op.IsBranch() || op == opcode.RETURN || op == opcode.END
}

// BuildBlocks lifts the flat instruction stream recorded by
// Disassemble into this graph's basic blocks. defargOffsets are the
// function's default-argument dispatch offsets (Function.
// DefaultArgumentAddresses) — every one of them except the largest is
// frozen: BuildBlocks records the exact byte span its block occupied
// so later passes and Assemble can preserve it.
func (g *ControlFlowGraph) BuildBlocks(defargOffsets []int) error {
	byOffset := make(map[int]int, len(g.instructions)) // offset -> index into g.instructions
	for idx, oi := range g.instructions {
		byOffset[oi.offset] = idx
	}
	jumpTargets, defargAt := discoverJumpTargets(g.instructions, defargOffsets)

	frozen := frozenOffsets(defargOffsets)

	g.Blocks = make(map[int]*Block)
	g.Order = nil

	entry := NewBlock(entryBlockID, Normal)
	exit := NewBlock(exitBlockID, Terminator)
	g.Blocks[entryBlockID] = entry
	g.Blocks[exitBlockID] = exit
	g.EntryID = entryBlockID
	g.ExitID = exitBlockID

	wl := worklist.NewDistinct[int]()
	if len(g.instructions) > 0 {
		entry.ForwardEdges = []int{0}
		wl.Push(0)
	} else {
		entry.ForwardEdges = []int{exitBlockID}
	}

	for !wl.Empty() {
		start := wl.Pop()
		if start == exitBlockID {
			continue
		}
		if _, exists := g.Blocks[start]; exists {
			continue
		}

		idx, ok := byOffset[start]
		if !ok {
			// A jump target that doesn't land on an instruction boundary
			// never happens for well-formed input; skip defensively.
			continue
		}

		b := NewBlock(start, Normal)
		g.Order = append(g.Order, start)
		g.Blocks[start] = b

		cur := idx
		for {
			if cur >= len(g.instructions) {
				// Fell off the end without an explicit terminator.
				b.ForwardEdges = []int{exitBlockID}
				break
			}
			oi := g.instructions[cur]
			if oi.offset != start && jumpTargets[oi.offset] {
				b.ForwardEdges = []int{oi.offset}
				wl.Push(oi.offset)
				if frozen[start] {
					size := oi.offset - start
					b.ForceCodeSize = &size
				}
				break
			}
			i := oi.inst
			if !isTerminator(i.Opcode) {
				b.Instructions = append(b.Instructions, i)
				cur++
				continue
			}

			fallThrough := oi.offset + i.Stride
			switch i.Opcode {
			case opcode.JUMP:
				b.Type = Normal
				b.ForwardEdges = []int{i.BranchIP}
				wl.Push(i.BranchIP)
			case opcode.JUMP_IF:
				b.Type = BranchIfNot
				b.JumpConditionAddress = i.SourceAddress0
				b.ForwardEdges = []int{i.BranchIP, fallThrough}
				wl.Push(i.BranchIP)
				wl.Push(fallThrough)
			case opcode.JUMP_IF_NOT:
				b.Type = BranchIfNot
				b.JumpConditionAddress = i.SourceAddress0
				b.ForwardEdges = []int{fallThrough, i.BranchIP}
				wl.Push(fallThrough)
				wl.Push(i.BranchIP)
			case opcode.ITERATE_BEGIN, opcode.ITERATE:
				if i.Opcode == opcode.ITERATE_BEGIN {
					b.Type = IterateBegin
				} else {
					b.Type = Iterate
				}
				b.IteratorCounterAddress = i.SourceAddress0
				b.IteratorContainerAddress = i.SourceAddress1
				b.IteratorValueAddress = i.TargetAddress
				b.ForwardEdges = []int{fallThrough, i.BranchIP}
				wl.Push(fallThrough)
				wl.Push(i.BranchIP)
			case opcode.JUMP_TO_DEF_ARGUMENT:
				b.Type = DefargAssignment
				edges := append([]int{fallThrough}, defargAt...)
				b.ForwardEdges = edges
				wl.Push(fallThrough)
				for _, d := range defargAt {
					wl.Push(d)
				}
			case opcode.RETURN, opcode.END:
				b.Type = Normal
				b.ForwardEdges = []int{exitBlockID}
			}

			if frozen[start] {
				size := fallThrough - start
				b.ForceCodeSize = &size
			}
			break
		}
	}

	linkBackEdges(g.Blocks)
	g.instructions = nil
	g.dataFlowDirty = true
	return nil
}

// discoverJumpTargets is build_blocks' Pass A: a linear walk recording
// every offset a branch instruction can land on, plus the defarg
// table's own targets (defargAt, one entry per offset in
// defargOffsets, order-preserved — JUMP_TO_DEF_ARGUMENT's forward
// edges must resolve through the function's table, not a recomputed
// one).
func discoverJumpTargets(instructions []offsetInstruction, defargOffsets []int) (map[int]bool, []int) {
	targets := make(map[int]bool)
	for _, o := range defargOffsets {
		targets[o] = true
	}
	defargAt := append([]int(nil), defargOffsets...)

	for _, oi := range instructions {
		i := oi.inst
		fallThrough := oi.offset + i.Stride
		switch i.Opcode {
		case opcode.JUMP:
			targets[int(i.BranchIP)] = true
		case opcode.JUMP_IF, opcode.JUMP_IF_NOT:
			targets[int(i.BranchIP)] = true
			targets[fallThrough] = true
		case opcode.ITERATE, opcode.ITERATE_BEGIN:
			targets[int(i.BranchIP)] = true
			targets[fallThrough] = true
		case opcode.JUMP_TO_DEF_ARGUMENT:
			targets[fallThrough] = true
		}
	}
	return targets, defargAt
}

func frozenOffsets(defargOffsets []int) map[int]bool {
	if len(defargOffsets) == 0 {
		return nil
	}
	sorted := append([]int(nil), defargOffsets...)
	sort.Ints(sorted)
	frozen := make(map[int]bool, len(sorted)-1)
	for _, o := range sorted[:len(sorted)-1] {
		frozen[o] = true
	}
	return frozen
}

func linkBackEdges(blocks map[int]*Block) {
	for _, b := range blocks {
		for _, t := range b.ForwardEdges {
			if target, ok := blocks[t]; ok {
				target.BackEdges.Add(b.ID)
			}
		}
	}
}
