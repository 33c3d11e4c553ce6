// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"github.com/gdscript-tools/bcopt/instr"
)

// ControlFlowGraph owns a function's lifted basic blocks plus the two
// distinguished block ids that bound it. Its lifecycle mirrors the
// teacher's Disassembly: one pass builds an owned, self-contained
// result that later stages consume and eventually discard.
type ControlFlowGraph struct {
	Blocks  map[int]*Block
	Order   []int // block ids in the order Disassemble/BuildBlocks discovered them
	EntryID int
	ExitID  int

	// instructions is the flat parse of the input stream, populated by
	// Disassemble and consumed by BuildBlocks. Nil once BuildBlocks has
	// run — blocks own their instructions after that.
	instructions []offsetInstruction

	dataFlowDirty bool
}

type offsetInstruction struct {
	offset int
	inst   instr.Instruction
}

// New returns an empty ControlFlowGraph ready for Disassemble.
func New() *ControlFlowGraph {
	return &ControlFlowGraph{Blocks: make(map[int]*Block)}
}

// Block looks up a block by id.
func (g *ControlFlowGraph) Block(id int) (*Block, error) {
	b, ok := g.Blocks[id]
	if !ok {
		return nil, blockNotFoundError(id)
	}
	return b, nil
}

// Disassemble parses code linearly via instr.Parse until the stream is
// exhausted, recording each instruction's offset. It performs no jump
// resolution — that's BuildBlocks' job. The sum of strides is checked
// to equal len(code), matching the DISASM_FULL invariant.
func (g *ControlFlowGraph) Disassemble(code []int32) error {
	g.instructions = g.instructions[:0]
	offset := 0
	for offset < len(code) {
		i, err := instr.Parse(code, offset)
		if err != nil {
			return err
		}
		g.instructions = append(g.instructions, offsetInstruction{offset: offset, inst: i})
		offset += i.Stride
	}
	return nil
}

// MarkDataFlowDirty flags that liveness must be recomputed before the
// next pass that depends on it reads Ins/Outs.
func (g *ControlFlowGraph) MarkDataFlowDirty() { g.dataFlowDirty = true }

// RequireDataFlow re-runs AnalyzeDataFlow only if the dirty flag is
// set, then clears it.
func (g *ControlFlowGraph) RequireDataFlow() error {
	if !g.dataFlowDirty {
		return nil
	}
	if err := g.AnalyzeDataFlow(); err != nil {
		return err
	}
	g.dataFlowDirty = false
	return nil
}
