// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"io"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
)

// PrintDebugInfo gates whether DebugPrint/DebugPrintInstructions
// actually write anything. false by default; tests and tools flip it
// on deliberately.
var PrintDebugInfo = false

var debugLogger *log.Logger

func init() {
	var w io.Writer = io.Discard
	if PrintDebugInfo {
		w = os.Stderr
	}
	debugLogger = log.New(w, "", 0)
}

// DebugPrint dumps every block's type, edges, and dataflow sets, in
// Order. Intended for interactive debugging of a single function's
// graph, not for machine consumption.
func (g *ControlFlowGraph) DebugPrint(name string) {
	if !PrintDebugInfo {
		return
	}
	debugLogger.SetOutput(os.Stderr)

	debugLogger.Printf("------ CFG -----------------------------")
	debugLogger.Printf("Name: %s", name)
	debugLogger.Printf("Blocks: %d", len(g.Blocks))

	for _, id := range append([]int{g.EntryID}, g.Order...) {
		b, ok := g.Blocks[id]
		if !ok {
			continue
		}
		debugLogger.Printf("------ Block ------")
		debugLogger.Printf("id: %d", b.ID)
		debugLogger.Printf("type: %s", b.Type)
		debugLogger.Printf("back edges: %d", b.BackEdges.Cardinality())
		debugLogger.Printf("forward edges: %d", len(b.ForwardEdges))
		debugLogger.Printf("ins: %s", spew.Sdump(b.Ins))
		debugLogger.Printf("outs: %s", spew.Sdump(b.Outs))

		if len(b.Instructions) == 0 {
			debugLogger.Printf("instructions: none")
		} else {
			debugLogger.Printf("instructions:")
			for _, i := range b.Instructions {
				debugLogger.Printf("    %s", i.String())
			}
		}

		if len(b.ForwardEdges) == 0 {
			debugLogger.Printf("forward edges: none")
		} else {
			for _, e := range b.ForwardEdges {
				debugLogger.Printf("    %d", e)
			}
		}
		debugLogger.Printf("")
	}
}

// DebugPrintInstructions dumps the flat disassembly recorded by
// Disassemble, with running offsets. Call before BuildBlocks — it
// reads g.instructions, which BuildBlocks clears.
func (g *ControlFlowGraph) DebugPrintInstructions() {
	if !PrintDebugInfo {
		return
	}
	debugLogger.SetOutput(os.Stderr)
	debugLogger.Printf("------ Instructions ------")
	for _, oi := range g.instructions {
		debugLogger.Printf("%d: %s", oi.offset, oi.inst.String())
	}
}
