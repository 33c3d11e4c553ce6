// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFunction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fn.json")
	const doc = `{
		"name": "test_fn",
		"code": [11],
		"default_argument_addresses": [],
		"stack_size": 1,
		"argument_count": 0,
		"constants": ["1", "two"],
		"global_names": ["g"]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	fn, err := loadFunction(path)
	if err != nil {
		t.Fatalf("loadFunction: %v", err)
	}
	if fn.Name != "test_fn" {
		t.Fatalf("Name = %q, want test_fn", fn.Name)
	}
	if len(fn.Code) != 1 || fn.Code[0] != 11 {
		t.Fatalf("Code = %v, want [11]", fn.Code)
	}
	if len(fn.Constants) != 2 || fn.Constants[0] != "1" || fn.Constants[1] != "two" {
		t.Fatalf("Constants = %v, want [1 two]", fn.Constants)
	}
	if len(fn.GlobalNames) != 1 || fn.GlobalNames[0] != "g" {
		t.Fatalf("GlobalNames = %v, want [g]", fn.GlobalNames)
	}
}

func TestLoadFunctionMissingFile(t *testing.T) {
	if _, err := loadFunction(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

// TestDefaultPipelineNamesAreRegistered guards against the pipeline
// and the name table drifting apart.
func TestDefaultPipelineNamesAreRegistered(t *testing.T) {
	for _, name := range defaultPipeline {
		if _, ok := passesByName[name]; !ok {
			t.Fatalf("defaultPipeline names %q, which has no entry in passesByName", name)
		}
	}
	if len(defaultPipeline) != len(passesByName) {
		t.Fatalf("defaultPipeline has %d entries, passesByName has %d; every registered pass should be reachable from the default pipeline", len(defaultPipeline), len(passesByName))
	}
}
