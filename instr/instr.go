// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package instr models one bytecode instruction: a tagged variant
// over opcode.Opcode with decoded operand slots, plus the Parse/Encode
// pair that bridges the linear bytecode stream and this structured
// form. Parse and Encode are a pair of hand-written switches, one case
// per opcode, kept in lock step by hand rather than generated from a
// shared table — see Parse's doc comment for why.
package instr

import (
	"fmt"
	"strings"

	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/opcode"
)

// Instruction is the structured view of one bytecode operation: an
// opcode plus whichever operand slots it uses. Branch/terminator
// opcodes are parsed into Instruction like any other — it's cfg.BuildBlocks
// that strips them out of a Block's instruction list and folds them
// into the block's terminator (§3 of the spec: "a block's instructions
// never contain any branch/terminator opcode").
type Instruction struct {
	Opcode opcode.Opcode

	// VariantOp is only meaningful when Opcode == opcode.OPERATOR.
	VariantOp VariantOp

	TargetAddress  addr.Address
	SourceAddress0 addr.Address
	// SourceAddress1 overlaps the original's index_address union member:
	// for SET/GET it holds the index operand; for everything else that
	// uses a second source it holds source_address1. IndexAddress is a
	// read-only alias for the SET/GET case.
	SourceAddress1 addr.Address

	IndexArg    int // name/global/method index, opcode-dependent
	TypeArg     int // Variant::Type tag, opcode-dependent
	VarargCount int
	Varargs     []addr.Address

	BranchIP int // absolute offset in the *input* stream; set only for branch opcodes, which BuildBlocks folds into the Block's terminator

	Stride int // number of int32 slots this instruction occupies, opcode word included

	Omit bool // assembly hint: drop this instruction instead of encoding it

	DefUse opcode.DefUse
}

// IndexAddress reads the SET/GET-family index operand. Only valid
// when DefUse has the Index bit set.
func (i Instruction) IndexAddress() addr.Address { return i.SourceAddress1 }

// IsBranch reports whether this instruction is one of the
// branch-family opcodes that build_blocks consumes as a terminator
// rather than pushing into a Block's instruction list.
func (i Instruction) IsBranch() bool { return i.Opcode.IsBranch() }

// MayHaveSideEffects reports whether dead-assignment elimination must
// keep this instruction even if its target is never read.
func (i Instruction) MayHaveSideEffects() bool { return i.Opcode.MayHaveSideEffects() }

// IsExpression reports whether the instruction is an ASSIGN or
// OPERATOR — the two opcodes OpExpression/CSE matching applies to.
func (i Instruction) IsExpression() bool {
	return i.Opcode == opcode.ASSIGN || i.Opcode == opcode.OPERATOR
}

// SortOperands normalizes a commutative binary OPERATOR's two source
// addresses into address order (source0 <= source1), matching
// Instruction::sort_operands in the original and the commutative
// normalization OpExpression equality requires.
func (i *Instruction) SortOperands() {
	if i.Opcode != opcode.OPERATOR {
		return
	}
	if !i.VariantOp.IsCommutative() {
		return
	}
	if i.SourceAddress0 > i.SourceAddress1 {
		i.SourceAddress0, i.SourceAddress1 = i.SourceAddress1, i.SourceAddress0
	}
}

// ReadAddresses returns every address this instruction consumes, in
// def/use-mask order: source0, source1/index, varargs, and the SELF
// pseudo-address if used. Used to build a block's `uses` set (§4.4)
// and by local CSE/dead-assignment elimination to keep "live" sets in
// sync with what an instruction reads.
func (i Instruction) ReadAddresses() []addr.Address {
	var out []addr.Address
	if i.DefUse.Has(opcode.Source0) {
		out = append(out, i.SourceAddress0)
	}
	if i.DefUse.Has(opcode.Source1) || i.DefUse.Has(opcode.Index) {
		out = append(out, i.SourceAddress1)
	}
	if i.DefUse.Has(opcode.Varargs) {
		out = append(out, i.Varargs...)
	}
	if i.DefUse.Has(opcode.SelfUse) {
		out = append(out, addr.Self)
	}
	return out
}

// WritesTarget reports whether this instruction defines TargetAddress.
func (i Instruction) WritesTarget() bool { return i.DefUse.Has(opcode.Target) }

func (i Instruction) operatorString() string {
	return fmt.Sprintf("OPERATOR %s = (%s, %s)", i.TargetAddress, i.VariantOp, i.argsString())
}

func (i Instruction) argsString() string {
	var parts []string
	if i.DefUse.Has(opcode.Source0) {
		parts = append(parts, i.SourceAddress0.String())
	}
	if i.DefUse.Has(opcode.Source1) {
		parts = append(parts, i.SourceAddress1.String())
	}
	return strings.Join(parts, ", ")
}

// String renders a human-readable, non-round-tripping diagnostic
// line, mirroring Instruction::to_string in the original.
func (i Instruction) String() string {
	switch i.Opcode {
	case opcode.OPERATOR:
		return i.operatorString()
	case opcode.JUMP:
		return fmt.Sprintf("JUMP %d", i.BranchIP)
	case opcode.JUMP_IF:
		return fmt.Sprintf("JUMP_IF %d", i.BranchIP)
	case opcode.JUMP_IF_NOT:
		return fmt.Sprintf("JUMP_IF_NOT %d", i.BranchIP)
	case opcode.ITERATE:
		return fmt.Sprintf("ITERATE (ESCAPE %d)", i.BranchIP)
	case opcode.ITERATE_BEGIN:
		return fmt.Sprintf("ITERATE_BEGIN (ESCAPE %d)", i.BranchIP)
	case opcode.LINE:
		return fmt.Sprintf("LINE %d", i.IndexArg)
	case opcode.RETURN:
		return fmt.Sprintf("RETURN %s", i.SourceAddress0)
	case opcode.CALL_RETURN:
		return fmt.Sprintf("CALL_RETURN %d(%s) -> %s", i.IndexArg, i.varargsString(), i.TargetAddress)
	case opcode.CALL_SELF_BASE:
		return fmt.Sprintf("CALL_SELF_BASE %d(%s) -> %s", i.IndexArg, i.varargsString(), i.TargetAddress)
	case opcode.CALL_BUILT_IN:
		return fmt.Sprintf("CALL_BUILT_IN %d(%s) -> %s", i.IndexArg, i.varargsString(), i.TargetAddress)
	case opcode.END:
		return "END"
	case opcode.CALL:
		return fmt.Sprintf("CALL %d(%s)", i.IndexArg, i.varargsString())
	case opcode.ASSIGN:
		return fmt.Sprintf("ASSIGN %s = %s", i.TargetAddress, i.SourceAddress0)
	case opcode.JUMP_TO_DEF_ARGUMENT:
		return "JUMP_TO_DEF_ARGUMENT"
	case opcode.CONSTRUCT_ARRAY:
		return fmt.Sprintf("CONSTRUCT_ARRAY [%s] -> %s", i.varargsString(), i.TargetAddress)
	case opcode.CONSTRUCT_DICTIONARY:
		return fmt.Sprintf("CONSTRUCT_DICTIONARY {%s} -> %s", i.varargsString(), i.TargetAddress)
	case opcode.BOX_INT:
		return fmt.Sprintf("BOX INT %s into %s", i.SourceAddress0, i.TargetAddress)
	case opcode.BOX_REAL:
		return fmt.Sprintf("BOX REAL %s into %s", i.SourceAddress0, i.TargetAddress)
	case opcode.UNBOX_INT:
		return fmt.Sprintf("UNBOX INT %s into %s", i.SourceAddress0, i.TargetAddress)
	case opcode.UNBOX_REAL:
		return fmt.Sprintf("UNBOX REAL %s into %s", i.SourceAddress0, i.TargetAddress)
	default:
		return i.Opcode.String()
	}
}

func (i Instruction) varargsString() string {
	parts := make([]string, len(i.Varargs))
	for idx, a := range i.Varargs {
		parts[idx] = a.String()
	}
	return strings.Join(parts, " ")
}
