// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/opcode"
)

func TestOpExpressionCommutativeNormalization(t *testing.T) {
	a := addr.New(addr.Stack, 1)
	b := addr.New(addr.Stack, 2)

	forward := FromInstruction(Instruction{
		Opcode: opcode.OPERATOR, VariantOp: OpAdd,
		SourceAddress0: a, SourceAddress1: b,
		DefUse: opcode.Source0 | opcode.Source1 | opcode.Target,
	})
	backward := FromInstruction(Instruction{
		Opcode: opcode.OPERATOR, VariantOp: OpAdd,
		SourceAddress0: b, SourceAddress1: a,
		DefUse: opcode.Source0 | opcode.Source1 | opcode.Target,
	})
	assert.True(t, forward.Equal(backward))
}

func TestOpExpressionNonCommutativeOrderMatters(t *testing.T) {
	a := addr.New(addr.Stack, 1)
	b := addr.New(addr.Stack, 2)

	forward := FromInstruction(Instruction{
		Opcode: opcode.OPERATOR, VariantOp: OpSubtract,
		SourceAddress0: a, SourceAddress1: b,
		DefUse: opcode.Source0 | opcode.Source1 | opcode.Target,
	})
	backward := FromInstruction(Instruction{
		Opcode: opcode.OPERATOR, VariantOp: OpSubtract,
		SourceAddress0: b, SourceAddress1: a,
		DefUse: opcode.Source0 | opcode.Source1 | opcode.Target,
	})
	assert.False(t, forward.Equal(backward))
}

// A unary operator's SourceAddress1 carries no meaning; two unary
// expressions over the same source0 must compare equal even when one
// was built the way Parse builds it, with a leftover source_address1
// word and the Source1 bit set.
func TestOpExpressionUnaryIgnoresSource1(t *testing.T) {
	a := addr.New(addr.Stack, 3)

	one := FromInstruction(Instruction{
		Opcode: opcode.OPERATOR, VariantOp: OpNot,
		SourceAddress0: a,
		DefUse:         opcode.Source0 | opcode.Target,
	})
	two := FromInstruction(Instruction{
		Opcode: opcode.OPERATOR, VariantOp: OpNot,
		SourceAddress0: a,
		SourceAddress1: addr.New(addr.Stack, 7),
		DefUse:         opcode.Source0 | opcode.Source1 | opcode.Target,
	})
	assert.True(t, one.Equal(two))
	assert.True(t, one.VariantOp.IsUnary())
}

func TestOpExpressionAssignMatchesBySource(t *testing.T) {
	a := addr.New(addr.Stack, 4)
	one := FromInstruction(Instruction{Opcode: opcode.ASSIGN, SourceAddress0: a, DefUse: opcode.Source0 | opcode.Target})
	two := FromInstruction(Instruction{Opcode: opcode.ASSIGN, SourceAddress0: a, DefUse: opcode.Source0 | opcode.Target})
	assert.True(t, one.Equal(two))
}

func TestOpExpressionDifferentOpcodeNeverEqual(t *testing.T) {
	a := addr.New(addr.Stack, 4)
	assign := FromInstruction(Instruction{Opcode: opcode.ASSIGN, SourceAddress0: a, DefUse: opcode.Source0 | opcode.Target})
	operator := FromInstruction(Instruction{Opcode: opcode.OPERATOR, VariantOp: OpNot, SourceAddress0: a, DefUse: opcode.Source0 | opcode.Target})
	assert.False(t, assign.Equal(operator))
}
