package tree

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vanderheijden86/livetree/pkg/debug"
	"github.com/vanderheijden86/livetree/pkg/metrics"
)

// HiddenMarker prefixes hidden entry names.
const HiddenMarker = "."

// child is a directory member before it is placed in the output.
type child struct {
	name      string
	path      string
	rel       string
	isDir     bool
	isSymlink bool
	target    string
	err       string
}

type walker struct {
	cfg   Config
	limit int
	out   []Entry
	full  bool

	// onPath holds the canonical paths of the directories on the current
	// descent path. Entries are removed on backtrack, so two sibling links to
	// the same directory are both expanded; only a link back to an ancestor
	// is a cycle.
	onPath map[string]struct{}
}

// Build walks root and returns its entries in display order. Failures on
// individual entries are recorded on the entry; the walk always completes
// (or stops at the entry cap).
func Build(root string, cfg Config) Snapshot {
	defer metrics.Timer(metrics.TreeBuild)()

	w := &walker{cfg: cfg, limit: cfg.entryCap()}
	if cfg.FollowSymlinks {
		w.onPath = make(map[string]struct{})
		if canon, err := filepath.EvalSymlinks(root); err == nil {
			w.onPath[canon] = struct{}{}
		}
	}

	var snap Snapshot
	if err := w.walk(root, "", 1); err != nil {
		debug.Log("tree: listing root %s: %v", root, err)
		snap.Err = describe(err)
	}
	Layout(w.out)

	snap.Entries = w.out
	snap.Truncated = w.full
	return snap
}

func (w *walker) walk(dir, rel string, depth int) error {
	des, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	children := make([]child, 0, len(des))
	for _, de := range des {
		if c, keep := w.inspect(dir, rel, de); keep {
			children = append(children, c)
		}
	}
	slices.SortFunc(children, compareChildren)

	for _, c := range children {
		if w.limit > 0 && len(w.out) >= w.limit {
			w.full = true
			return nil
		}

		idx := len(w.out)
		w.out = append(w.out, Entry{
			Name:          displayName(c.name),
			Path:          c.path,
			Depth:         depth,
			IsDir:         c.isDir,
			IsSymlink:     c.isSymlink,
			SymlinkTarget: c.target,
			Err:           c.err,
		})

		if !c.isDir || c.err != "" || !w.descends(depth) {
			continue
		}

		canon, msg := w.enter(c.path)
		if msg != "" {
			w.out[idx].Err = msg
			continue
		}
		err := w.walk(c.path, c.rel, depth+1)
		w.leave(canon)
		if err != nil {
			w.out[idx].Err = describe(err)
		}
		if w.full {
			return nil
		}
	}
	return nil
}

// inspect classifies one directory member and applies the filters. Filters
// that need to know whether the member is a directory run last.
func (w *walker) inspect(dir, rel string, de fs.DirEntry) (child, bool) {
	name := de.Name()
	if !w.cfg.ShowHidden && IsHidden(name) {
		return child{}, false
	}

	c := child{
		name: name,
		path: filepath.Join(dir, name),
		rel:  joinRel(rel, name),
	}

	mode := de.Type()
	switch {
	case mode&fs.ModeSymlink != 0:
		c.isSymlink = true
		if target, err := os.Readlink(c.path); err == nil {
			c.target = target
		} else {
			c.target = "?"
		}
		if w.cfg.FollowSymlinks {
			info, err := os.Stat(c.path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				c.err = "broken link"
			case err != nil:
				c.err = describe(err)
			default:
				c.isDir = info.IsDir()
			}
		}
	case mode.IsDir():
		c.isDir = true
	}

	if w.cfg.Ignore.Match(c.rel, c.isDir) {
		return child{}, false
	}
	if w.cfg.DirsOnly && !c.isDir {
		return child{}, false
	}
	return c, true
}

func (w *walker) descends(depth int) bool {
	return w.cfg.MaxDepth <= 0 || depth < w.cfg.MaxDepth
}

// enter records dir on the descent path. A non-empty message means the
// directory must not be descended.
func (w *walker) enter(dir string) (string, string) {
	if w.onPath == nil {
		return "", ""
	}
	canon, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", describe(err)
	}
	if _, seen := w.onPath[canon]; seen {
		return "", ErrCycle
	}
	w.onPath[canon] = struct{}{}
	return canon, ""
}

func (w *walker) leave(canon string) {
	if w.onPath != nil && canon != "" {
		delete(w.onPath, canon)
	}
}

// IsHidden reports whether name carries the hidden marker.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, HiddenMarker)
}

// compareChildren orders directories first, hidden names after visible ones,
// then case-insensitively. The raw name breaks ties so the order is total.
func compareChildren(a, b child) int {
	if a.isDir != b.isDir {
		if a.isDir {
			return -1
		}
		return 1
	}
	if ah, bh := IsHidden(a.name), IsHidden(b.name); ah != bh {
		if ah {
			return 1
		}
		return -1
	}
	if c := strings.Compare(strings.ToLower(a.name), strings.ToLower(b.name)); c != 0 {
		return c
	}
	return strings.Compare(a.name, b.name)
}

// describe turns a filesystem error into a short plain-language cause.
func describe(err error) string {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return ErrPermission
	case errors.Is(err, fs.ErrNotExist):
		return ErrVanished
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

func displayName(name string) string {
	return strings.ToValidUTF8(name, "�")
}

func joinRel(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}
