// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize_test

import (
	"reflect"
	"testing"

	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/opcode"
)

// TestConditionalCollapseAndDeadBlockElimination reproduces an
// if/else whose two arms both fall into the same successor: the
// BRANCH_IF_NOT collapses to NORMAL, the now-empty blocks get
// threaded out, and dead-block elimination removes what's left.
func TestConditionalCollapseAndDeadBlockElimination(t *testing.T) {
	cond := addr.New(addr.Stack, 0)
	code := []int32{
		int32(opcode.JUMP_IF), int32(cond), 5,
		int32(opcode.JUMP), 5,
		int32(opcode.END),
	}
	o, fn := newOptimizerWithFunction(t, code, nil)

	if err := o.PassJumpThreading(); err != nil {
		t.Fatalf("PassJumpThreading: %v", err)
	}
	if err := o.PassDeadBlockElimination(); err != nil {
		t.Fatalf("PassDeadBlockElimination: %v", err)
	}
	if err := o.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	want := []int32{int32(opcode.END)}
	if !reflect.DeepEqual(fn.Code, want) {
		t.Fatalf("Code = %v, want %v", fn.Code, want)
	}
}

func TestThreadEmptyBlockRedirectsPredecessor(t *testing.T) {
	code := []int32{
		int32(opcode.JUMP), 2,
		int32(opcode.END),
	}
	o := newOptimizer(t, code, nil)

	if err := o.PassJumpThreading(); err != nil {
		t.Fatalf("PassJumpThreading: %v", err)
	}

	entry, err := o.CFG().Block(o.CFG().EntryID)
	if err != nil {
		t.Fatal(err)
	}
	// Block 0 (the JUMP) and block 2 (the END, lifted as an empty NORMAL
	// block bound for the exit) are both empty, so the fixed point threads
	// the entry through both of them to the exit.
	if !reflect.DeepEqual(entry.ForwardEdges, []int{o.CFG().ExitID}) {
		t.Fatalf("entry forward edges = %v, want threaded through blocks 0 and 2 to the exit %d", entry.ForwardEdges, o.CFG().ExitID)
	}
}
