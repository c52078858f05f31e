// Package testutil provides filesystem fixtures and tree assertions for tests.
// Generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// GeneratorConfig controls random tree generation.
type GeneratorConfig struct {
	Seed        int64   // Random seed for determinism (0 = use current time)
	MaxDepth    int     // Deepest directory level (default: 3)
	MaxChildren int     // Children per directory (default: 4)
	DirRatio    float64 // Probability that a child is a directory (default: 0.4)
	HiddenRatio float64 // Probability that a name is hidden (default: 0)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42, // Deterministic
		MaxDepth:    3,
		MaxChildren: 4,
		DirRatio:    0.4,
	}
}

// Generator creates random directory layouts.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = 4
	}
	if cfg.DirRatio <= 0 {
		cfg.DirRatio = 0.4
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Paths returns a sorted list of MakeTree paths (directories end in "/").
// Names mix case so ordering tests exercise case folding.
func (g *Generator) Paths() []string {
	var out []string
	var walk func(prefix string, depth int)
	walk = func(prefix string, depth int) {
		n := 1 + g.rng.Intn(g.cfg.MaxChildren)
		used := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			name := g.name(i)
			if used[strings.ToLower(name)] {
				continue
			}
			used[strings.ToLower(name)] = true

			if depth < g.cfg.MaxDepth && g.rng.Float64() < g.cfg.DirRatio {
				dir := prefix + name + "/"
				out = append(out, dir)
				walk(dir, depth+1)
				continue
			}
			out = append(out, prefix+name+".txt")
		}
	}
	walk("", 1)
	sort.Strings(out)
	return out
}

func (g *Generator) name(i int) string {
	letters := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var b strings.Builder
	if g.cfg.HiddenRatio > 0 && g.rng.Float64() < g.cfg.HiddenRatio {
		b.WriteByte('.')
	}
	for j := 0; j < 3+g.rng.Intn(4); j++ {
		b.WriteByte(letters[g.rng.Intn(len(letters))])
	}
	fmt.Fprintf(&b, "%d", i)
	return b.String()
}
