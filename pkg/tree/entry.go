// Package tree builds the ordered, display-ready listing of a directory.
//
// Build walks the filesystem depth-first and returns a flat slice of entries
// in display order. Each entry carries its connector prefix ("├── ", "│   ",
// ...) so rendering never has to look at neighbours. A rebuild always
// produces a fresh slice; no identity is carried over between rebuilds.
package tree

import (
	"github.com/vanderheijden86/livetree/pkg/ignore"
)

// DefaultMaxEntries caps a single rebuild.
const DefaultMaxEntries = 10000

// Diagnostics recorded on entries.
const (
	ErrCycle      = "cycle detected"
	ErrPermission = "permission denied"
	ErrVanished   = "no longer exists"
)

// Entry is a single line of the tree.
type Entry struct {
	Name          string // display name, valid UTF-8
	Path          string // filesystem path
	Depth         int    // 1 = direct child of the root
	IsDir         bool
	IsSymlink     bool
	SymlinkTarget string // raw link target when IsSymlink
	IsLast        bool   // last member of its sibling group
	Prefix        string // connector glyphs for this position
	Err           string // per-entry diagnostic, empty when healthy
}

// Config controls a rebuild. It is treated as read-only.
type Config struct {
	MaxDepth       int // 0 = unbounded
	ShowHidden     bool
	DirsOnly       bool
	FollowSymlinks bool
	Ignore         *ignore.Matcher
	MaxEntries     int // 0 = DefaultMaxEntries, negative = unbounded
}

// DefaultConfig matches running with no flags.
func DefaultConfig() Config {
	return Config{
		Ignore:     ignore.Default(),
		MaxEntries: DefaultMaxEntries,
	}
}

func (c Config) entryCap() int {
	switch {
	case c.MaxEntries == 0:
		return DefaultMaxEntries
	case c.MaxEntries < 0:
		return 0
	default:
		return c.MaxEntries
	}
}

// Snapshot is the result of one rebuild.
type Snapshot struct {
	Entries   []Entry
	Truncated bool   // the entry cap stopped the walk early
	Err       string // the root itself could not be listed
}

// Len returns the number of entries kept.
func (s Snapshot) Len() int {
	return len(s.Entries)
}

// Builder abstracts tree construction so the event loop can be driven by a
// canned snapshot in tests.
type Builder interface {
	Build(root string, cfg Config) Snapshot
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(root string, cfg Config) Snapshot

// Build calls f.
func (f BuilderFunc) Build(root string, cfg Config) Snapshot {
	return f(root, cfg)
}

// FS is the filesystem-backed Builder.
var FS Builder = BuilderFunc(Build)
