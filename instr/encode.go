// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instr

import (
	"github.com/gdscript-tools/bcopt/addr"
	"github.com/gdscript-tools/bcopt/opcode"
)

// Encode appends the int32 words for i to code and returns the result.
// It is the exact inverse of Parse: every case below writes the same
// slots, in the same order, that the matching Parse case reads. Keeping
// the two switches in lock step is what makes a disassemble/assemble
// round trip byte-identical for any instruction Parse never needed to
// special-case.
func Encode(code []int32, i Instruction) []int32 {
	code = append(code, int32(i.Opcode))

	switch i.Opcode {
	case opcode.OPERATOR:
		code = append(code, int32(i.VariantOp), int32(i.SourceAddress0), int32(i.SourceAddress1), int32(i.TargetAddress))

	case opcode.EXTENDS_TEST:
		code = append(code, int32(i.SourceAddress0), int32(i.SourceAddress1), int32(i.TargetAddress))

	case opcode.IS_BUILTIN:
		code = append(code, int32(i.SourceAddress0), int32(i.TypeArg), int32(i.TargetAddress))

	case opcode.SET:
		code = append(code, int32(i.TargetAddress), int32(i.SourceAddress1), int32(i.SourceAddress0))

	case opcode.GET:
		code = append(code, int32(i.SourceAddress0), int32(i.SourceAddress1), int32(i.TargetAddress))

	case opcode.SET_NAMED:
		code = append(code, int32(i.SourceAddress0), int32(i.IndexArg), int32(i.TargetAddress))

	case opcode.GET_NAMED:
		code = append(code, int32(i.TargetAddress), int32(i.IndexArg), int32(i.SourceAddress0))

	case opcode.SET_MEMBER:
		code = append(code, int32(i.IndexArg), int32(i.SourceAddress0))

	case opcode.GET_MEMBER:
		code = append(code, int32(i.IndexArg), int32(i.TargetAddress))

	case opcode.ASSIGN:
		code = append(code, int32(i.TargetAddress), int32(i.SourceAddress0))

	case opcode.ASSIGN_TRUE, opcode.ASSIGN_FALSE:
		code = append(code, int32(i.TargetAddress))

	case opcode.ASSIGN_TYPED_BUILTIN:
		code = append(code, int32(i.TypeArg), int32(i.TargetAddress), int32(i.SourceAddress0))

	case opcode.ASSIGN_TYPED_NATIVE, opcode.ASSIGN_TYPED_SCRIPT:
		code = append(code, int32(i.SourceAddress0), int32(i.TargetAddress), int32(i.SourceAddress1))

	case opcode.CAST_TO_BUILTIN:
		code = append(code, int32(i.TypeArg), int32(i.SourceAddress0), int32(i.TargetAddress))

	case opcode.CAST_TO_NATIVE, opcode.CAST_TO_SCRIPT:
		code = append(code, int32(i.SourceAddress0), int32(i.SourceAddress1), int32(i.TargetAddress))

	case opcode.CONSTRUCT:
		code = append(code, int32(i.TypeArg), int32(i.VarargCount))
		code = appendVarargs(code, i.Varargs)
		code = append(code, int32(i.TargetAddress))

	case opcode.CONSTRUCT_ARRAY:
		code = append(code, int32(i.VarargCount))
		code = appendVarargs(code, i.Varargs)
		code = append(code, int32(i.TargetAddress))

	case opcode.CONSTRUCT_DICTIONARY:
		// Mirrors Parse's literal-layout decision: target sits at
		// 2+vararg_count*2, vararg_count slots past where the varargs
		// end. We zero-fill that gap rather than guess its meaning.
		code = append(code, int32(i.VarargCount))
		code = appendVarargs(code, i.Varargs)
		for j := 0; j < i.VarargCount; j++ {
			code = append(code, 0) // reserved, see Parse
		}
		code = append(code, int32(i.TargetAddress))

	case opcode.CALL, opcode.CALL_RETURN:
		code = append(code, int32(i.VarargCount), int32(i.SourceAddress0), int32(i.IndexArg))
		code = appendVarargs(code, i.Varargs)
		code = append(code, int32(i.TargetAddress))

	case opcode.CALL_BUILT_IN:
		code = append(code, int32(i.IndexArg), int32(i.VarargCount))
		code = appendVarargs(code, i.Varargs)
		code = append(code, int32(i.TargetAddress))

	case opcode.CALL_SELF:
		// Unreachable: Parse never produces this opcode (ErrDecodeOpcode).

	case opcode.CALL_SELF_BASE:
		code = append(code, int32(i.IndexArg), int32(i.VarargCount))
		code = appendVarargs(code, i.Varargs)
		code = append(code, 0) // reserved slot the stride fix skips on decode
		code = append(code, int32(i.TargetAddress))

	case opcode.YIELD:
		code = append(code, 0)

	case opcode.YIELD_SIGNAL:
		code = append(code, int32(i.SourceAddress0), int32(i.IndexArg))

	case opcode.YIELD_RESUME:
		code = append(code, int32(i.TargetAddress))

	case opcode.JUMP:
		code = append(code, int32(i.BranchIP))

	case opcode.JUMP_IF, opcode.JUMP_IF_NOT:
		code = append(code, int32(i.SourceAddress0), int32(i.BranchIP))

	case opcode.JUMP_TO_DEF_ARGUMENT:
		// No operand in the stream; the defarg table is external.

	case opcode.ITERATE_BEGIN, opcode.ITERATE:
		code = append(code, int32(i.SourceAddress0), int32(i.SourceAddress1), int32(i.BranchIP), int32(i.TargetAddress))

	case opcode.ASSERT:
		code = append(code, int32(i.SourceAddress0), int32(i.SourceAddress1))

	case opcode.BREAKPOINT:
		// No operand word, despite the original's generous bounds check.

	case opcode.LINE:
		code = append(code, int32(i.IndexArg))

	case opcode.END:
		// no operands

	case opcode.RETURN:
		code = append(code, int32(i.SourceAddress0))

	case opcode.BOX_INT, opcode.BOX_REAL, opcode.UNBOX_INT, opcode.UNBOX_REAL:
		code = append(code, int32(i.SourceAddress0), int32(i.TargetAddress))
	}

	return code
}

func appendVarargs(code []int32, varargs []addr.Address) []int32 {
	for _, v := range varargs {
		code = append(code, int32(v))
	}
	return code
}
