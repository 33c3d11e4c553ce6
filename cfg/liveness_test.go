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

func TestAnalyzeDataFlowSimpleChain(t *testing.T) {
	// ASSIGN a<-b; JUMP_IF_NOT a c; ASSIGN d<-a; END -- a is live across
	// the branch, b is live only in the first block, d dies unused.
	a := addr.New(addr.Stack, 0)
	b := addr.New(addr.Stack, 1)
	d := addr.New(addr.Stack, 2)

	code := []int32{
		int32(opcode.ASSIGN), int32(a), int32(b),
		int32(opcode.JUMP_IF_NOT), int32(a), 9,
		int32(opcode.ASSIGN), int32(d), int32(a),
		int32(opcode.END),
	}
	g := buildGraph(t, code, nil)
	if err := g.AnalyzeDataFlow(); err != nil {
		t.Fatalf("AnalyzeDataFlow: %v", err)
	}

	b0, err := g.Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if !b0.Uses.Contains(b) {
		t.Fatalf("block 0 uses = %v, want to contain b", b0.Uses.ToSlice())
	}
	if !b0.Defs.Contains(a) {
		t.Fatalf("block 0 defs = %v, want to contain a", b0.Defs.ToSlice())
	}
	if !b0.Outs.Contains(a) {
		t.Fatalf("a must be live out of block 0 (used by the branch and the next block)")
	}
	if b0.Outs.Contains(b) {
		t.Fatalf("b must not be live out of block 0, nothing downstream reads it")
	}
}

func TestAnalyzeDataFlowLoopConverges(t *testing.T) {
	counter := addr.New(addr.Stack, 0)
	container := addr.New(addr.Stack, 1)
	value := addr.New(addr.Stack, 2)

	code := []int32{
		int32(opcode.ITERATE_BEGIN), int32(counter), int32(container), 7, int32(value),
		int32(opcode.JUMP), 0,
		int32(opcode.END),
	}
	g := buildGraph(t, code, nil)
	if err := g.AnalyzeDataFlow(); err != nil {
		t.Fatalf("AnalyzeDataFlow: %v", err)
	}

	b0, err := g.Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if !b0.Ins.Contains(container) {
		t.Fatalf("container must be live into the loop header across every iteration")
	}
}

func TestAnalyzeDataFlowMissingEntryOrExit(t *testing.T) {
	g := cfg.New()
	if err := g.AnalyzeDataFlow(); err == nil {
		t.Fatalf("expected an error analyzing an empty graph")
	}
}
