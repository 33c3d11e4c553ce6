// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package function holds the external record the optimizer reads at
// the start of a run and writes back once at the end: the bytecode
// buffer, the default-argument jump table, and the read-only helpers
// a function carries alongside its code.
package function

import "fmt"

// Function is the in-memory contract between the optimizer and
// whatever owns a compiled function's bytecode. The optimizer reads
// Code and DefaultArgumentAddresses at Begin and overwrites Code once
// at Commit; every other field is read-only as far as this package is
// concerned.
type Function struct {
	Name string

	// Code is the flat int32 bytecode buffer.
	Code []int32

	// DefaultArgumentAddresses are byte offsets into Code, one per
	// parameter carrying a default value. The optimizer must preserve
	// every offset here except possibly the largest.
	DefaultArgumentAddresses []int

	StackSize     int
	ArgumentCount int

	// Constants and GlobalNames back GetConstant/GetGlobalName. Neither
	// is interpreted by the optimizer — addresses into either are
	// opaque as far as dataflow is concerned.
	Constants   []any
	GlobalNames []string
}

// GetConstant returns the i'th local constant.
func (f *Function) GetConstant(i int) any {
	return f.Constants[i]
}

// GetGlobalName returns the i'th global name.
func (f *Function) GetGlobalName(i int) string {
	return f.GlobalNames[i]
}

// String renders a short identifying summary, handy in error messages
// and CLI output.
func (f *Function) String() string {
	return fmt.Sprintf("%s (code=%d words, defargs=%d)", f.Name, len(f.Code), len(f.DefaultArgumentAddresses))
}

// ExportView is the JSON-tagged projection of a Function suitable for
// serialization by a CLI or a diagnostic endpoint. It never round
// trips back into a Function — Constants is stringified for display,
// not reparsed.
type ExportView struct {
	Name                     string   `json:"name"`
	Code                     []int32  `json:"code"`
	DefaultArgumentAddresses []int    `json:"default_argument_addresses"`
	StackSize                int      `json:"stack_size"`
	ArgumentCount            int      `json:"argument_count"`
	Constants                []string `json:"constants"`
	GlobalNames              []string `json:"global_names"`
}

// Export projects f into its ExportView.
func (f *Function) Export() ExportView {
	constants := make([]string, len(f.Constants))
	for i, c := range f.Constants {
		constants[i] = fmt.Sprintf("%v", c)
	}
	return ExportView{
		Name:                     f.Name,
		Code:                     f.Code,
		DefaultArgumentAddresses: f.DefaultArgumentAddresses,
		StackSize:                f.StackSize,
		ArgumentCount:            f.ArgumentCount,
		Constants:                constants,
		GlobalNames:              f.GlobalNames,
	}
}
