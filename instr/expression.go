// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instr

import (
	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/opcode"
)

// ExpressionType is a coarse result-type tag carried by an
// OpExpression. UNKNOWN is a legal value: CSE still matches two
// expressions whose type is unknown to each other, it just can't use
// the type to tell two same-shaped expressions apart.
type ExpressionType int32

const ExpressionTypeUnknown ExpressionType = 0

// OpExpression is the normalized view of an ASSIGN or OPERATOR
// instruction that local CSE matches by value. Two OpExpressions
// compare equal only if every field matches, after commutative binary
// operators have their operands sorted into source0 <= source1 order.
//
// Only ASSIGN and OPERATOR ever become an OpExpression — every other
// opcode either has side effects or doesn't produce a reusable value
// in a form CSE can key on.
type OpExpression struct {
	Opcode         opcode.Opcode
	VariantOp      VariantOp
	ExpressionType ExpressionType
	DefUse         opcode.DefUse
	SourceAddress0 addr.Address
	SourceAddress1 addr.Address
}

// FromInstruction builds the OpExpression for i, normalizing
// commutative operand order. i must be an ASSIGN or OPERATOR
// instruction; callers check Instruction.IsExpression first.
func FromInstruction(i Instruction) OpExpression {
	e := OpExpression{
		Opcode:         i.Opcode,
		VariantOp:      i.VariantOp,
		ExpressionType: ExpressionTypeUnknown,
		DefUse:         i.DefUse &^ opcode.Target,
		SourceAddress0: i.SourceAddress0,
		SourceAddress1: i.SourceAddress1,
	}
	if e.Opcode == opcode.OPERATOR && e.VariantOp.IsUnary() {
		e.SourceAddress1 = 0
		e.DefUse &^= opcode.Source1
	}
	if e.Opcode == opcode.OPERATOR && e.VariantOp.IsCommutative() {
		if e.SourceAddress0 > e.SourceAddress1 {
			e.SourceAddress0, e.SourceAddress1 = e.SourceAddress1, e.SourceAddress0
		}
	}
	return e
}

// Equal reports whether e and other describe the same reusable value.
// For a unary operator (NEGATE, NOT) SourceAddress1 carries no meaning.
// It is compared like any other field but never differs in a way that
// matters, since FromInstruction zeroes it and clears the Source1 bit
// for unary instructions.
func (e OpExpression) Equal(other OpExpression) bool {
	return e.Opcode == other.Opcode &&
		e.VariantOp == other.VariantOp &&
		e.ExpressionType == other.ExpressionType &&
		e.DefUse == other.DefUse &&
		e.SourceAddress0 == other.SourceAddress0 &&
		e.SourceAddress1 == other.SourceAddress1
}

// Less provides a total order over OpExpression so it can key a
// sorted available-expressions structure if a pass wants one beyond a
// plain slice scan.
func (e OpExpression) Less(other OpExpression) bool {
	if e.Opcode != other.Opcode {
		return e.Opcode < other.Opcode
	}
	if e.VariantOp != other.VariantOp {
		return e.VariantOp < other.VariantOp
	}
	if e.ExpressionType != other.ExpressionType {
		return e.ExpressionType < other.ExpressionType
	}
	if e.DefUse != other.DefUse {
		return e.DefUse < other.DefUse
	}
	if e.SourceAddress0 != other.SourceAddress0 {
		return e.SourceAddress0 < other.SourceAddress0
	}
	return e.SourceAddress1 < other.SourceAddress1
}
