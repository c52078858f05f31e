//go:build ignore

// generate_testdata.go creates directory trees for benchmarking livetree.
// Usage: go run scripts/generate_testdata.go [output dir]
//
// Creates (under testdata/bench by default):
//
//	small/   a shallow tree, a few hundred entries
//	medium/  a few thousand entries
//	large/   deep and wide, enough to hit the default entry cap
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/livetree/pkg/testutil"
)

type datasetSpec struct {
	name string
	cfg  testutil.GeneratorConfig
	desc string
}

var datasets = []datasetSpec{
	{"small", testutil.GeneratorConfig{Seed: 1, MaxDepth: 3, MaxChildren: 8, DirRatio: 0.3}, "shallow tree"},
	{"medium", testutil.GeneratorConfig{Seed: 2, MaxDepth: 4, MaxChildren: 12, DirRatio: 0.35, HiddenRatio: 0.05}, "typical project"},
	{"large", testutil.GeneratorConfig{Seed: 3, MaxDepth: 6, MaxChildren: 10, DirRatio: 0.45, HiddenRatio: 0.05}, "monorepo-sized"},
}

func main() {
	outputDir := filepath.Join("testdata", "bench")
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	for _, ds := range datasets {
		root := filepath.Join(outputDir, ds.name)
		fmt.Printf("Generating %s dataset (%s)...\n", ds.name, ds.desc)
		if err := os.RemoveAll(root); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear %s: %v\n", root, err)
			os.Exit(1)
		}

		paths := testutil.New(ds.cfg).Paths()
		dirs := 0
		for _, p := range paths {
			full := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(p, "/")))
			if strings.HasSuffix(p, "/") {
				dirs++
				if err := os.MkdirAll(full, 0o755); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", full, err)
					os.Exit(1)
				}
				continue
			}
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", filepath.Dir(full), err)
				os.Exit(1)
			}
			if err := os.WriteFile(full, []byte(p+"\n"), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", full, err)
				os.Exit(1)
			}
		}
		fmt.Printf("  Written %s (%d entries, %d directories)\n", root, len(paths), dirs)
	}

	fmt.Println("\nDone! Benchmark trees created in", outputDir)
}
