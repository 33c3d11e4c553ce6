// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize_test

import (
	"testing"

	"github.com/gdscript-tools/bcopt/function"
	"github.com/gdscript-tools/bcopt/optimize"
)

func newOptimizer(t *testing.T, code []int32, defargOffsets []int) *optimize.FunctionOptimizer {
	t.Helper()
	o, _ := newOptimizerWithFunction(t, code, defargOffsets)
	return o
}

func newOptimizerWithFunction(t *testing.T, code []int32, defargOffsets []int) (*optimize.FunctionOptimizer, *function.Function) {
	t.Helper()
	fn := &function.Function{Code: code, DefaultArgumentAddresses: defargOffsets}
	o := optimize.New()
	if err := o.Begin(fn); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return o, fn
}
