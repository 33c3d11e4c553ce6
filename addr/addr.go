// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package addr encodes the addressable value store the bytecode
// operates over: stack slots, function arguments, constants, class
// members, globals and a couple of typed scratch registers, all
// packed into a single integer so the optimizer can compare two
// operands for "same value" with plain equality.
package addr

import "fmt"

// Kind tags which region of the value space an Address refers to.
type Kind int

const (
	Stack Kind = iota
	Argument
	LocalConstant
	ClassMember
	ClassConstant
	GlobalConstant
	TypedIntRegister
	TypedRealRegister
	SelfKind
)

func (k Kind) String() string {
	switch k {
	case Stack:
		return "stack"
	case Argument:
		return "arg"
	case LocalConstant:
		return "const"
	case ClassMember:
		return "member"
	case ClassConstant:
		return "class_const"
	case GlobalConstant:
		return "global"
	case TypedIntRegister:
		return "ireg"
	case TypedRealRegister:
		return "rreg"
	case SelfKind:
		return "self"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// bits is the number of low bits reserved for the index; the kind
// occupies everything above it. This mirrors the original's
// kind<<ADDR_BITS|index packing (§3, §6 of the wire format).
const bits = 24
const mask = 1<<bits - 1

// Self is the distinguished pseudo-address used by GET_MEMBER-family
// instructions to read/write through the implicit `self` receiver.
// It carries no index; any index bits are ignored on encode.
var Self = New(SelfKind, 0)

// Address is a single encoded integer: kind in the high bits, index
// in the low bits. Two addresses refer to the same value iff the
// encoded integers are equal — the optimizer never looks past this.
type Address int32

// New packs a kind and index into an Address.
func New(k Kind, index int) Address {
	return Address(int32(k)<<bits | int32(index&mask))
}

// Kind returns the address's region tag.
func (a Address) Kind() Kind {
	return Kind(int32(a) >> bits)
}

// Index returns the address's offset within its region.
func (a Address) Index() int {
	return int(int32(a) & mask)
}

func (a Address) String() string {
	if a == Self {
		return "self"
	}
	return fmt.Sprintf("%s[%d]", a.Kind(), a.Index())
}
