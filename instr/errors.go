// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package instr

import (
	"errors"
	"fmt"

	"github.com/gdscript-tools/bcopt/opcode"
)

// ErrDecodeBounds is returned when an instruction's operand slots run
// past the end of the code buffer.
var ErrDecodeBounds = errors.New("instr: bytecode ends mid-instruction")

// ErrDecodeOpcode is returned when Parse encounters an opcode word it
// does not recognize, or one it recognizes but refuses to decode
// because it is unreachable in practice (see CALL_SELF, §9 of the
// spec's Open Questions).
var ErrDecodeOpcode = errors.New("instr: unknown or unsupported opcode")

func boundsError(op opcode.Opcode, index, need, size int) error {
	return fmt.Errorf("%w: opcode %s at %d needs %d more slot(s), buffer has %d", ErrDecodeBounds, op, index, need, size)
}

func opcodeError(word int32, index int) error {
	return fmt.Errorf("%w: %d at offset %d", ErrDecodeOpcode, word, index)
}
