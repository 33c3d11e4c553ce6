// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize_test

import (
	"testing"

	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/opcode"
)

// TestPassDeadAssignmentEliminationDropsUnreadTarget: ASSIGN a<-b;
// JUMP_IF_NOT a 9; ASSIGN d<-a; END. Nothing downstream ever reads d,
// so its assignment must be removed; a is read by the branch and a
// later block, so its assignment must survive.
func TestPassDeadAssignmentEliminationDropsUnreadTarget(t *testing.T) {
	a := addr.New(addr.Stack, 0)
	b := addr.New(addr.Stack, 1)
	d := addr.New(addr.Stack, 2)

	code := []int32{
		int32(opcode.ASSIGN), int32(a), int32(b),
		int32(opcode.JUMP_IF_NOT), int32(a), 9,
		int32(opcode.ASSIGN), int32(d), int32(a),
		int32(opcode.END),
	}
	o := newOptimizer(t, code, nil)

	if err := o.PassDeadAssignmentElimination(); err != nil {
		t.Fatalf("PassDeadAssignmentElimination: %v", err)
	}

	dead, err := o.CFG().Block(6)
	if err != nil {
		t.Fatal(err)
	}
	if len(dead.Instructions) != 0 {
		t.Fatalf("block 6 instructions = %v, want the dead ASSIGN to d removed", dead.Instructions)
	}

	live, err := o.CFG().Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(live.Instructions) != 1 || live.Instructions[0].TargetAddress != a {
		t.Fatalf("block 0 instructions = %v, want the live ASSIGN to a kept", live.Instructions)
	}
}

// TestPassDeadAssignmentEliminationKeepsSideEffects asserts that a
// may-have-side-effects instruction with an unread target is never
// removed, even though dataflow alone would call its target dead.
func TestPassDeadAssignmentEliminationKeepsSideEffects(t *testing.T) {
	target := addr.New(addr.Stack, 0)
	base := addr.New(addr.Stack, 1)

	code := []int32{
		int32(opcode.CALL_RETURN), 0, int32(base), 7, int32(target),
		int32(opcode.END),
	}
	o := newOptimizer(t, code, nil)

	if err := o.PassDeadAssignmentElimination(); err != nil {
		t.Fatalf("PassDeadAssignmentElimination: %v", err)
	}

	b, err := o.CFG().Block(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Instructions) != 1 || b.Instructions[0].Opcode != opcode.CALL_RETURN {
		t.Fatalf("instructions = %v, want CALL_RETURN kept despite unread target", b.Instructions)
	}
}
