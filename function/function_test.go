// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package function_test

import (
	"encoding/json"
	"testing"

	"github.com/gdscript-tools/bcopt/function"
)

func TestExportViewRoundTripsThroughJSON(t *testing.T) {
	f := &function.Function{
		Name:                     "_ready",
		Code:                     []int32{1, 2, 3},
		DefaultArgumentAddresses: []int{4},
		StackSize:                8,
		ArgumentCount:            2,
		Constants:                []any{1, "hi"},
		GlobalNames:              []string{"Vector2"},
	}

	data, err := json.Marshal(f.Export())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got function.ExportView
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != f.Name || got.StackSize != f.StackSize || len(got.Code) != len(f.Code) {
		t.Fatalf("ExportView round trip mismatch: %+v", got)
	}
}

func TestGetConstantAndGlobalName(t *testing.T) {
	f := &function.Function{
		Constants:   []any{42},
		GlobalNames: []string{"Input"},
	}
	if f.GetConstant(0) != 42 {
		t.Fatalf("GetConstant(0) = %v, want 42", f.GetConstant(0))
	}
	if f.GetGlobalName(0) != "Input" {
		t.Fatalf("GetGlobalName(0) = %q, want Input", f.GetGlobalName(0))
	}
}
