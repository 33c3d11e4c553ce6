// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfg lifts a linear bytecode stream into a control-flow
// graph of basic blocks, runs liveness analysis over it, and lowers
// it back into a fresh bytecode stream. See ControlFlowGraph for the
// disassemble/build_blocks/analyze_data_flow/assemble pipeline this
// package is built around.
package cfg

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/instr"
)

// BlockType classifies how a Block's instruction sequence ends. The
// terminator itself is never an element of Instructions — it's
// expressed entirely through BlockType plus ForwardEdges (and the
// condition/iterator fields below), so no pass can accidentally
// corrupt control flow by editing the tail of a block's instructions.
type BlockType int

const (
	Normal BlockType = iota
	BranchIfNot
	Iterate
	IterateBegin
	DefargAssignment
	Terminator
)

func (t BlockType) String() string {
	switch t {
	case Normal:
		return "NORMAL"
	case BranchIfNot:
		return "BRANCH_IF_NOT"
	case Iterate:
		return "ITERATE"
	case IterateBegin:
		return "ITERATE_BEGIN"
	case DefargAssignment:
		return "DEFARG_ASSIGNMENT"
	case Terminator:
		return "TERMINATOR"
	default:
		return "UNKNOWN"
	}
}

// Block is a maximal straight-line run of non-branching instructions
// plus a typed terminator. Its id is a stable handle: during
// BuildBlocks it is the block's entry offset in the input stream, but
// once construction finishes no code may rely on that — Assemble
// computes fresh offsets keyed by id.
type Block struct {
	ID   int
	Type BlockType

	// JumpConditionAddress is meaningful only when Type == BranchIfNot.
	JumpConditionAddress addr.Address

	// Iterator triple, meaningful only when Type is Iterate or
	// IterateBegin.
	IteratorCounterAddress   addr.Address
	IteratorContainerAddress addr.Address
	IteratorValueAddress     addr.Address

	// Instructions never contains a branch or terminator opcode.
	Instructions []instr.Instruction

	// ForwardEdges is ordered: for BranchIfNot, [fall_through, taken];
	// for Iterate/IterateBegin, [loop_body, loop_exit]; for Normal,
	// exactly one edge; for DefargAssignment,
	// [fall_through, defarg0, defarg1, ...]; for Terminator, none.
	ForwardEdges []int
	BackEdges    mapset.Set[int]

	Defs mapset.Set[addr.Address]
	Uses mapset.Set[addr.Address]
	Ins  mapset.Set[addr.Address]
	Outs mapset.Set[addr.Address]

	// ForceCodeSize is non-nil for a frozen default-argument block: the
	// exact byte span (in int32 words) it occupied in the input, which
	// every pass and Assemble must preserve.
	ForceCodeSize *int
}

// NewBlock returns a Block with its edge and dataflow sets allocated.
func NewBlock(id int, t BlockType) *Block {
	return &Block{
		ID:        id,
		Type:      t,
		BackEdges: mapset.NewThreadUnsafeSet[int](),
		Defs:      mapset.NewThreadUnsafeSet[addr.Address](),
		Uses:      mapset.NewThreadUnsafeSet[addr.Address](),
		Ins:       mapset.NewThreadUnsafeSet[addr.Address](),
		Outs:      mapset.NewThreadUnsafeSet[addr.Address](),
	}
}

// IsFrozen reports whether this block's byte size must not change.
func (b *Block) IsFrozen() bool { return b.ForceCodeSize != nil }

// UpdateDefUse recomputes Defs and Uses from the block's instructions
// and terminator. Ins/Outs are untouched — AnalyzeDataFlow seeds and
// iterates those separately.
func (b *Block) UpdateDefUse() {
	b.Defs = mapset.NewThreadUnsafeSet[addr.Address]()
	b.Uses = mapset.NewThreadUnsafeSet[addr.Address]()

	for _, i := range b.Instructions {
		if i.WritesTarget() {
			b.Defs.Add(i.TargetAddress)
		}
		for _, a := range i.ReadAddresses() {
			if !b.Defs.Contains(a) {
				b.Uses.Add(a)
			}
		}
	}

	switch b.Type {
	case DefargAssignment:
		// Contributes nothing.
	case BranchIfNot:
		if !b.Defs.Contains(b.JumpConditionAddress) {
			b.Uses.Add(b.JumpConditionAddress)
		}
	case Iterate, IterateBegin:
		b.Defs.Add(b.IteratorValueAddress)
		b.Defs.Add(b.IteratorCounterAddress)
		if !b.Defs.Contains(b.IteratorContainerAddress) {
			b.Uses.Add(b.IteratorContainerAddress)
		}
	}
}

// ReplaceJumps redirects every forward edge equal to from into to. It
// only rewrites b's own ForwardEdges; the BackEdges of the from and to
// blocks are left for the caller to update. Used by jump-threading to
// splice an empty block out of the graph.
func (b *Block) ReplaceJumps(from, to int) {
	for i, e := range b.ForwardEdges {
		if e == from {
			b.ForwardEdges[i] = to
		}
	}
}

// AssembledStride returns the number of int32 words this block's own
// instructions occupy, excluding the terminator. Assemble adds the
// terminator's stride on top of this.
func (b *Block) AssembledStride() int {
	total := 0
	for _, i := range b.Instructions {
		if i.Omit {
			continue
		}
		total += i.Stride
	}
	return total
}
