// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize_test

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/gdscript-tools/bcopt/opcode"
)

func TestPassDeadBlockEliminationSparesFrozenDefargBlock(t *testing.T) {
	code := []int32{
		int32(opcode.JUMP_TO_DEF_ARGUMENT),
		int32(opcode.END),
		int32(opcode.END),
	}
	o := newOptimizer(t, code, []int{1, 2})

	frozen, err := o.CFG().Block(1)
	if err != nil {
		t.Fatal(err)
	}
	if !frozen.IsFrozen() {
		t.Fatalf("block 1 should be frozen")
	}
	// Simulate orphaning: nothing jumps here any more.
	frozen.BackEdges = mapset.NewThreadUnsafeSet[int]()

	if err := o.PassDeadBlockElimination(); err != nil {
		t.Fatalf("PassDeadBlockElimination: %v", err)
	}

	if _, err := o.CFG().Block(1); err != nil {
		t.Fatalf("frozen defarg block must survive dead-block elimination: %v", err)
	}
}

func TestPassDeadBlockEliminationRemovesOrphanedUnfrozenBlock(t *testing.T) {
	code := []int32{
		int32(opcode.JUMP_TO_DEF_ARGUMENT),
		int32(opcode.END),
		int32(opcode.END),
	}
	o := newOptimizer(t, code, []int{1, 2})

	last, err := o.CFG().Block(2)
	if err != nil {
		t.Fatal(err)
	}
	if last.IsFrozen() {
		t.Fatalf("block 2 is the last defarg offset and must not be frozen")
	}
	last.BackEdges = mapset.NewThreadUnsafeSet[int]()

	if err := o.PassDeadBlockElimination(); err != nil {
		t.Fatalf("PassDeadBlockElimination: %v", err)
	}

	if _, err := o.CFG().Block(2); err == nil {
		t.Fatalf("orphaned unfrozen block should have been removed")
	}
}
