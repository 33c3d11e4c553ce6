// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command bcopt loads a bytecode function from a JSON file, runs a
// requested pass pipeline over it, and prints the result.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gdscript-tools/bcopt/cfg"
	"github.com/gdscript-tools/bcopt/function"
	"github.com/gdscript-tools/bcopt/optimize"
)

func main() {
	log.SetPrefix("bcopt: ")
	log.SetFlags(0)

	app := &cli.App{
		Name:  "bcopt",
		Usage: "disassemble and optimize lifted bytecode functions",
		Commands: []*cli.Command{
			disasmCommand(),
			optimizeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func disasmCommand() *cli.Command {
	return &cli.Command{
		Name:      "disasm",
		Usage:     "print a function's control-flow graph and instructions",
		ArgsUsage: "FILE.json",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "v", Usage: "enable verbose block/dataflow dump"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("disasm takes exactly one FILE.json argument", 1)
			}
			fn, err := loadFunction(c.Args().First())
			if err != nil {
				return err
			}

			cfg.PrintDebugInfo = c.Bool("v")

			g := cfg.New()
			if err := g.Disassemble(fn.Code); err != nil {
				return err
			}
			g.DebugPrintInstructions()
			if err := g.BuildBlocks(fn.DefaultArgumentAddresses); err != nil {
				return err
			}
			g.DebugPrint(fn.Name)
			printBlocks(fn.Name, g)
			return nil
		},
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "optimize",
		Usage:     "run a pass pipeline and print the function before and after",
		ArgsUsage: "FILE.json",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "pass",
				Usage: "a pass to run, repeatable, in the order given (default: the full pipeline)",
			},
			&cli.BoolFlag{Name: "v", Usage: "enable verbose block/dataflow dump"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("optimize takes exactly one FILE.json argument", 1)
			}
			fn, err := loadFunction(c.Args().First())
			if err != nil {
				return err
			}

			cfg.PrintDebugInfo = c.Bool("v")

			passes := c.StringSlice("pass")
			if len(passes) == 0 {
				passes = defaultPipeline
			}

			o := optimize.New()
			if err := o.Begin(fn); err != nil {
				return err
			}

			fmt.Printf("%s: before (%d words)\n", fn.Name, len(fn.Code))
			o.CFG().DebugPrint(fn.Name)
			printBlocks(fn.Name+" [before]", o.CFG())

			for _, name := range passes {
				run, ok := passesByName[name]
				if !ok {
					return cli.Exit(fmt.Sprintf("unknown pass %q", name), 1)
				}
				if err := run(o); err != nil {
					return fmt.Errorf("pass %q: %w", name, err)
				}
			}

			if err := o.Commit(); err != nil {
				return err
			}

			fmt.Printf("\n%s: after (%d words)\n", fn.Name, len(fn.Code))
			for _, w := range fn.Code {
				fmt.Printf(" %d", w)
			}
			fmt.Println()
			return nil
		},
	}
}

// defaultPipeline is the order the driver runs passes in when none are
// named explicitly: strip debug info first since nothing downstream
// depends on it, threading and dead-block elimination to simplify the
// graph shape, then the dataflow-driven passes, with insert-redundant
// running before local CSE so CSE gets a chance to re-fold whatever it
// exposes.
var defaultPipeline = []string{
	"strip-debug",
	"jump-threading",
	"dead-block-elimination",
	"insert-redundant-operation",
	"local-cse",
	"dead-assignment-elimination",
}

var passesByName = map[string]func(*optimize.FunctionOptimizer) error{
	"strip-debug":                 (*optimize.FunctionOptimizer).PassStripDebug,
	"dead-block-elimination":      (*optimize.FunctionOptimizer).PassDeadBlockElimination,
	"jump-threading":              (*optimize.FunctionOptimizer).PassJumpThreading,
	"dead-assignment-elimination": (*optimize.FunctionOptimizer).PassDeadAssignmentElimination,
	"local-cse":                   (*optimize.FunctionOptimizer).PassLocalCommonSubexpressionElimination,
	"insert-redundant-operation":  (*optimize.FunctionOptimizer).PassLocalInsertRedundantOperation,
}

// printBlocks renders the block list in discovery order, one line per
// instruction, the way the teacher's wasm-dump renders a disassembled
// function body.
func printBlocks(name string, g *cfg.ControlFlowGraph) {
	fmt.Printf("%s: %d block(s)\n", name, len(g.Blocks))
	order := append([]int{g.EntryID}, g.Order...)
	seen := make(map[int]bool, len(order))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		b, err := g.Block(id)
		if err != nil {
			continue
		}
		fmt.Printf("block[%d] %s edges=%v\n", b.ID, b.Type, b.ForwardEdges)
		for _, i := range b.Instructions {
			fmt.Printf("    %s\n", i.String())
		}
	}
}

// inputFunction is the on-disk JSON shape bcopt reads. It mirrors
// function.ExportView's field names but, unlike ExportView, is meant
// to be read back into a function.Function: Constants stay opaque
// strings, which is all the optimizer ever needs from them.
type inputFunction struct {
	Name                     string   `json:"name"`
	Code                     []int32  `json:"code"`
	DefaultArgumentAddresses []int    `json:"default_argument_addresses"`
	StackSize                int      `json:"stack_size"`
	ArgumentCount            int      `json:"argument_count"`
	Constants                []string `json:"constants"`
	GlobalNames              []string `json:"global_names"`
}

func loadFunction(path string) (*function.Function, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	defer f.Close()

	var in inputFunction
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", path, err)
	}

	constants := make([]any, len(in.Constants))
	for i, c := range in.Constants {
		constants[i] = c
	}

	return &function.Function{
		Name:                     in.Name,
		Code:                     in.Code,
		DefaultArgumentAddresses: in.DefaultArgumentAddresses,
		StackSize:                in.StackSize,
		ArgumentCount:            in.ArgumentCount,
		Constants:                constants,
		GlobalNames:              in.GlobalNames,
	}, nil
}
