// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"github.com/gdscript-tools/bcopt/instr"
	"github.com/gdscript-tools/bcopt/opcode"
	"github.com/gdscript-tools/bcopt/worklist"
)

// blockSize returns the int32-word cost of b's own kept instructions
// plus its terminator, either with or without a trailing unconditional
// JUMP. hasJump must match the adjacency decision Assemble's emit pass
// will actually make for this block, so layout and emit agree on every
// offset.
func blockSize(b *Block, hasJump bool) int {
	size := b.AssembledStride()
	switch b.Type {
	case Normal:
		if hasJump {
			size += 2
		}
	case BranchIfNot:
		size += 3 // JUMP_IF_NOT
		if hasJump {
			size += 2
		}
	case Iterate, IterateBegin:
		size += 5
		if hasJump {
			size += 2
		}
	case DefargAssignment:
		size += 1 + (len(b.ForwardEdges) - 1)
	case Terminator:
		size += 1 // END
	}
	return size
}

// fallThroughOmittable reports whether b's block type carries an
// unconditional jump to ForwardEdges[0] that emission can fold away
// when that target immediately follows b in the chosen order.
func fallThroughOmittable(b *Block) bool {
	switch b.Type {
	case Normal, BranchIfNot, Iterate, IterateBegin:
		return len(b.ForwardEdges) > 0
	default:
		return false
	}
}

// layout is Assemble's Pass A. It first settles a topological block
// order with a distinct-history worklist seeded at EntryID (forward
// edges pushed in order, popped LIFO — matching the original's stack
// exactly, including that a block's second-or-later forward edge
// often lands adjacent before its fall-through does), then makes a
// second pass over that fixed order to record each block's starting
// offset, sizing every block against the real next block in the
// order rather than a guess.
func (g *ControlFlowGraph) layout() (order []int, offsets map[int]int, err error) {
	wl := worklist.NewDistinct[int]()
	wl.Push(g.EntryID)

	for !wl.Empty() {
		id := wl.Pop()
		b, ok := g.Blocks[id]
		if !ok {
			return nil, nil, blockNotFoundError(id)
		}
		order = append(order, id)
		for _, t := range b.ForwardEdges {
			wl.Push(t)
		}
	}

	offsets = make(map[int]int, len(order))
	cur := 0
	for idx, id := range order {
		offsets[id] = cur
		b := g.Blocks[id]

		hasJump := true
		if fallThroughOmittable(b) && idx+1 < len(order) && order[idx+1] == b.ForwardEdges[0] {
			hasJump = false
		}
		cur += blockSize(b, hasJump)
	}

	return order, offsets, nil
}

// Assemble lowers the graph back into a flat int32 bytecode stream.
// Pass A computes a topological block order and offset map; Pass B
// emits each block's kept instructions followed by its encoded
// terminator, omitting an unconditional fall-through jump whenever
// the next block in order is already the jump's target. Frozen
// default-argument blocks are padded with BREAKPOINT to their
// original size, and Assemble fails with ErrAssemblyOverflow if a
// frozen block grew past it.
func (g *ControlFlowGraph) Assemble() ([]int32, error) {
	order, offsets, err := g.layout()
	if err != nil {
		return nil, err
	}

	var code []int32
	for idx, id := range order {
		b := g.Blocks[id]
		if id == g.EntryID {
			continue
		}

		start := len(code)
		for _, i := range b.Instructions {
			if i.Omit {
				continue
			}
			code = instr.Encode(code, i)
		}

		var nextID int
		hasNext := idx+1 < len(order)
		if hasNext {
			nextID = order[idx+1]
		}

		switch b.Type {
		case Normal:
			if !(hasNext && len(b.ForwardEdges) > 0 && nextID == b.ForwardEdges[0]) {
				if len(b.ForwardEdges) > 0 {
					code = instr.Encode(code, instr.Instruction{Opcode: opcode.JUMP, BranchIP: offsets[b.ForwardEdges[0]]})
				}
			}

		case BranchIfNot:
			code = instr.Encode(code, instr.Instruction{
				Opcode:         opcode.JUMP_IF_NOT,
				SourceAddress0: b.JumpConditionAddress,
				BranchIP:       offsets[b.ForwardEdges[1]],
			})
			if !(hasNext && nextID == b.ForwardEdges[0]) {
				code = instr.Encode(code, instr.Instruction{Opcode: opcode.JUMP, BranchIP: offsets[b.ForwardEdges[0]]})
			}

		case Iterate, IterateBegin:
			op := opcode.ITERATE
			if b.Type == IterateBegin {
				op = opcode.ITERATE_BEGIN
			}
			code = instr.Encode(code, instr.Instruction{
				Opcode:         op,
				SourceAddress0: b.IteratorCounterAddress,
				SourceAddress1: b.IteratorContainerAddress,
				BranchIP:       offsets[b.ForwardEdges[1]],
				TargetAddress:  b.IteratorValueAddress,
			})
			if !(hasNext && nextID == b.ForwardEdges[0]) {
				code = instr.Encode(code, instr.Instruction{Opcode: opcode.JUMP, BranchIP: offsets[b.ForwardEdges[0]]})
			}

		case DefargAssignment:
			code = append(code, int32(opcode.JUMP_TO_DEF_ARGUMENT))
			for _, t := range b.ForwardEdges[1:] {
				code = append(code, int32(offsets[t]))
			}

		case Terminator:
			code = append(code, int32(opcode.END))
		}

		if b.IsFrozen() {
			want := *b.ForceCodeSize
			got := len(code) - start
			if got > want {
				return nil, assemblyOverflowError(id, want, got)
			}
			for got < want {
				code = append(code, int32(opcode.BREAKPOINT))
				got++
			}
		}
	}

	return code, nil
}
