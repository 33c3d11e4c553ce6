// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package optimize runs transform passes over a lifted control-flow
// graph and writes the result back into a function's bytecode buffer.
// FunctionOptimizer owns the begin/commit lifecycle; the Pass*
// functions are the individual transforms, each a method on
// FunctionOptimizer so they can share its CFG and dirty-flag
// bookkeeping.
package optimize

import (
	"errors"

	"github.com/gdscript-tools/bcopt/cfg"
	"github.com/gdscript-tools/bcopt/function"
)

// ErrNotBegun is returned by any pass or Commit invoked before Begin.
var ErrNotBegun = errors.New("optimize: Begin has not been called")

// FunctionOptimizer lifts a Function's bytecode into a CFG, exposes
// one method per transform pass, and lowers the result back on
// Commit. Between Begin and Commit it owns the CFG exclusively; the
// Function is read once at Begin and written once at Commit.
type FunctionOptimizer struct {
	fn  *function.Function
	cfg *cfg.ControlFlowGraph
}

// New returns an idle FunctionOptimizer. Call Begin before any pass.
func New() *FunctionOptimizer {
	return &FunctionOptimizer{}
}

// Begin lifts fn's bytecode into a fresh CFG: disassemble, then
// build_blocks against fn's default-argument table.
func (o *FunctionOptimizer) Begin(fn *function.Function) error {
	g := cfg.New()
	if err := g.Disassemble(fn.Code); err != nil {
		return err
	}
	if err := g.BuildBlocks(fn.DefaultArgumentAddresses); err != nil {
		return err
	}
	o.fn = fn
	o.cfg = g
	return nil
}

// CFG exposes the owned graph, mainly for tests and debug tooling.
func (o *FunctionOptimizer) CFG() *cfg.ControlFlowGraph {
	return o.cfg
}

// Commit assembles the CFG and overwrites fn.Code with the result,
// then releases the CFG. Begin must be called again before further
// passes can run.
func (o *FunctionOptimizer) Commit() error {
	if o.cfg == nil {
		return ErrNotBegun
	}
	code, err := o.cfg.Assemble()
	if err != nil {
		return err
	}
	o.fn.Code = code
	o.cfg = nil
	o.fn = nil
	return nil
}

func (o *FunctionOptimizer) requireDataFlow() error {
	if o.cfg == nil {
		return ErrNotBegun
	}
	return o.cfg.RequireDataFlow()
}

func (o *FunctionOptimizer) invalidateDataFlow() {
	if o.cfg != nil {
		o.cfg.MarkDataFlowDirty()
	}
}
