// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg_test

import (
	"testing"

	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/cfg"
	"github.com/gdscript-tools/bcopt/opcode"
)

func buildGraph(t *testing.T, code []int32, defargOffsets []int) *cfg.ControlFlowGraph {
	t.Helper()
	g := cfg.New()
	if err := g.Disassemble(code); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if err := g.BuildBlocks(defargOffsets); err != nil {
		t.Fatalf("BuildBlocks: %v", err)
	}
	return g
}

func TestBuildBlocksMinimalReturn(t *testing.T) {
	g := buildGraph(t, []int32{int32(opcode.END)}, nil)

	// One entry, one real block, one exit.
	if len(g.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(g.Blocks))
	}
	entry, err := g.Block(g.EntryID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entry.ForwardEdges) != 1 || entry.ForwardEdges[0] != 0 {
		t.Fatalf("entry forward edges = %v, want [0]", entry.ForwardEdges)
	}

	real, err := g.Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(real.Instructions) != 0 {
		t.Fatalf("real block has %d instructions, want 0", len(real.Instructions))
	}
	if len(real.ForwardEdges) != 1 || real.ForwardEdges[0] != g.ExitID {
		t.Fatalf("real block forward edges = %v, want [%d]", real.ForwardEdges, g.ExitID)
	}
}

func TestBuildBlocksDeadBlockAfterUnconditionalJump(t *testing.T) {
	// JUMP 4; ASSIGN 0 1; END -- offsets 0, 2, 4.
	code := []int32{
		int32(opcode.JUMP), 4,
		int32(opcode.ASSIGN), 0, 1,
		int32(opcode.END),
	}
	g := buildGraph(t, code, nil)

	// Offset 2 (the ASSIGN) is never a jump target and never the
	// worklist seed, so it must never materialize into a block.
	if _, err := g.Block(2); err == nil {
		t.Fatalf("offset 2 should not be a block, but Block(2) succeeded")
	}

	b0, err := g.Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(b0.Instructions) != 0 {
		t.Fatalf("block 0 has %d instructions, want 0", len(b0.Instructions))
	}
	if len(b0.ForwardEdges) != 1 || b0.ForwardEdges[0] != 4 {
		t.Fatalf("block 0 forward edges = %v, want [4]", b0.ForwardEdges)
	}

	b4, err := g.Block(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(b4.ForwardEdges) != 1 || b4.ForwardEdges[0] != g.ExitID {
		t.Fatalf("block 4 forward edges = %v, want [%d]", b4.ForwardEdges, g.ExitID)
	}
}

func TestBuildBlocksConditionalCollapseShape(t *testing.T) {
	// if x: pass else: pass -- JUMP_IF 3 5; JUMP 5; END (offsets 0, 3, 5).
	cond := addr.New(addr.Stack, 0)
	code := []int32{
		int32(opcode.JUMP_IF), int32(cond), 5,
		int32(opcode.JUMP), 5,
		int32(opcode.END),
	}
	g := buildGraph(t, code, nil)

	b0, err := g.Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if b0.Type != cfg.BranchIfNot {
		t.Fatalf("block 0 type = %v, want BranchIfNot", b0.Type)
	}
	// JUMP_IF's sense is inverted on storage: forward_edges = [branch_ip, fall_through].
	if len(b0.ForwardEdges) != 2 || b0.ForwardEdges[0] != 5 || b0.ForwardEdges[1] != 3 {
		t.Fatalf("block 0 forward edges = %v, want [5 3]", b0.ForwardEdges)
	}
	if b0.JumpConditionAddress != cond {
		t.Fatalf("block 0 condition = %v, want %v", b0.JumpConditionAddress, cond)
	}
}

func TestBuildBlocksFreezesNonLastDefarg(t *testing.T) {
	// Two defargs at offsets 1 and 2; JUMP_TO_DEF_ARGUMENT at offset 0.
	code := []int32{
		int32(opcode.JUMP_TO_DEF_ARGUMENT),
		int32(opcode.END),
		int32(opcode.END),
	}
	g := buildGraph(t, code, []int{1, 2})

	b1, err := g.Block(1)
	if err != nil {
		t.Fatal(err)
	}
	if !b1.IsFrozen() {
		t.Fatalf("defarg block at the lower offset should be frozen")
	}

	b2, err := g.Block(2)
	if err != nil {
		t.Fatal(err)
	}
	if b2.IsFrozen() {
		t.Fatalf("the last defarg block must stay unfrozen")
	}
}

func TestBuildBlocksBackEdgesSymmetric(t *testing.T) {
	// A loop: block 0 branches to the exit-bound END at offset 5, or
	// falls through to block 3, which jumps back to block 0.
	cond := addr.New(addr.Stack, 0)
	code := []int32{
		int32(opcode.JUMP_IF_NOT), int32(cond), 5,
		int32(opcode.JUMP), 0,
		int32(opcode.END),
	}
	g := buildGraph(t, code, nil)

	for _, b := range g.Blocks {
		for _, f := range b.ForwardEdges {
			target, err := g.Block(f)
			if err != nil {
				t.Fatalf("forward edge to missing block %d", f)
			}
			if !target.BackEdges.Contains(b.ID) {
				t.Fatalf("block %d -> %d missing the matching back edge", b.ID, f)
			}
		}
		for _, s := range b.BackEdges.ToSlice() {
			source, err := g.Block(s)
			if err != nil {
				t.Fatalf("back edge from missing block %d", s)
			}
			found := false
			for _, f := range source.ForwardEdges {
				if f == b.ID {
					found = true
				}
			}
			if !found {
				t.Fatalf("block %d's back edge %d has no matching forward edge", b.ID, s)
			}
		}
	}
}
